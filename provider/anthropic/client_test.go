package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMessages = []relay.Message{
	{Role: relay.RoleSystem, Content: "be brief"},
	{Role: relay.RoleUser, Content: "hello"},
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New("test-key", WithModel("claude-haiku-4-5"), WithBaseURL(server.URL+"/"))
}

func writeSSE(w http.ResponseWriter, events ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	for _, data := range events {
		var typed struct {
			Type string `json:"type"`
		}
		_ = json.Unmarshal([]byte(data), &typed)
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", typed.Type, data)
	}
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"type":"error","error":{"type":%q,"message":%q}}`, errType, message)
}

func TestChat(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/messages"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-haiku-4-5",
			"content": [{"type": "text", "text": "Hello"}, {"type": "text", "text": " there"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 12, "output_tokens": 3}
		}`)
	})

	resp, err := client.Chat(context.Background(), testMessages, relay.WithMaxTokens(100), relay.WithTemperature(0.5))

	require.NoError(t, err)
	assert.Equal(t, "Hello there", resp.Content)
	assert.Equal(t, "end_turn", resp.FinishReason)
	assert.Equal(t, relay.Usage{InputTokens: 12, OutputTokens: 3}, resp.Usage)

	assert.Equal(t, "claude-haiku-4-5", body["model"])
	assert.EqualValues(t, 100, body["max_tokens"])
	assert.EqualValues(t, 0.5, body["temperature"])
	assert.Len(t, body["messages"], 1)
	assert.NotEmpty(t, body["system"])
}

func TestChatModelOverride(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"msg_1","type":"message","role":"assistant","model":"x","content":[],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":1}}`)
	})

	_, err := client.Chat(context.Background(), testMessages, relay.WithModel("claude-opus-4-5"))
	require.NoError(t, err)
	assert.Equal(t, "claude-opus-4-5", body["model"])
	assert.EqualValues(t, 4096, body["max_tokens"])
}

func TestChatError(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		errType   string
		retryable bool
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, errType: "rate_limit_error", retryable: true},
		{name: "overloaded", status: 529, errType: "overloaded_error", retryable: true},
		{name: "bad request", status: http.StatusBadRequest, errType: "invalid_request_error", retryable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeError(w, tt.status, tt.errType, "request rejected")
			})

			_, err := client.Chat(context.Background(), testMessages)

			var relayErr *relay.Error
			require.ErrorAs(t, err, &relayErr)
			assert.Equal(t, tt.status, relayErr.StatusCode())
			assert.Equal(t, relay.ProviderAnthropic, relayErr.Provider)
			assert.Equal(t, "claude-haiku-4-5", relayErr.Model)
			// Error messages include the test server's address, so only the
			// status-based verdict is stable here.
			if tt.retryable {
				assert.True(t, retry.IsRetryable(err))
			}
		})
	}
}

func TestChatEmptyInput(t *testing.T) {
	client := New("test-key")
	_, err := client.Chat(context.Background(), nil)
	assert.ErrorIs(t, err, relay.ErrEmptyInput)
	_, err = client.ChatStream(context.Background(), nil)
	assert.ErrorIs(t, err, relay.ErrEmptyInput)
}

func TestChatStream(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeSSE(w,
			`{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","model":"claude-haiku-4-5","content":[],"stop_reason":null,"usage":{"input_tokens":10,"output_tokens":1}}}`,
			`{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`,
			`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hel"}}`,
			`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"lo"}}`,
			`{"type":"content_block_stop","index":0}`,
			`{"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":4}}`,
			`{"type":"message_stop"}`,
		)
	})

	ch, err := client.ChatStream(context.Background(), testMessages)
	require.NoError(t, err)

	var events []relay.StreamEvent
	for event := range ch {
		events = append(events, event)
	}

	require.Len(t, events, 4)
	assert.True(t, events[0].Start)
	assert.False(t, events[0].IsContent())
	assert.Equal(t, "Hel", events[1].Delta)
	assert.Equal(t, "lo", events[2].Delta)
	require.True(t, events[3].Done)
	assert.Equal(t, "Hello", events[3].Response.Content)
	assert.Equal(t, "end_turn", events[3].Response.FinishReason)
	assert.Equal(t, 10, events[3].Response.Usage.InputTokens)
}

func TestChatStreamSetupError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusServiceUnavailable, "api_error", "unavailable")
	})

	ch, err := client.ChatStream(context.Background(), testMessages)

	assert.Nil(t, ch)
	assert.Equal(t, http.StatusServiceUnavailable, relay.StatusCodeOf(err))
	assert.True(t, retry.IsRetryable(err))
}

func TestForModel(t *testing.T) {
	base := New("test-key", WithModel("claude-sonnet-4-5"))
	haiku := base.ForModel("claude-haiku-4-5")

	assert.Equal(t, "claude-sonnet-4-5", base.ModelID())
	assert.Equal(t, "claude-haiku-4-5", haiku.ModelID())
	assert.Same(t, base.client, haiku.client)
	assert.Equal(t, relay.ProviderAnthropic, haiku.Provider())
}

func TestConvertMessages(t *testing.T) {
	msgs, system := convertMessages([]relay.Message{
		{Role: relay.RoleSystem, Content: "rules"},
		{Role: relay.RoleUser, Content: "q"},
		{Role: relay.RoleAssistant, Content: "a"},
		{Role: "tool", Content: "other"},
	})

	require.Len(t, system, 1)
	assert.Equal(t, "rules", system[0].Text)
	require.Len(t, msgs, 3)
	assert.EqualValues(t, "user", msgs[0].Role)
	assert.EqualValues(t, "assistant", msgs[1].Role)
	assert.EqualValues(t, "user", msgs[2].Role)
}
