package fallback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spetersoncode/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatStreamFirstModelSucceeds(t *testing.T) {
	a := newMockModel("a")
	b := newMockModel("b")
	m, _ := newTestModel(t, roster(a, b))

	ch, err := m.ChatStream(context.Background(), testMessages)
	require.NoError(t, err)

	events := collect(t, ch)
	require.Len(t, events, 3)
	assert.True(t, events[0].Start)
	assert.Equal(t, []string{"stream from a"}, deltas(events))
	assert.True(t, events[2].Done)
	assert.Equal(t, 0, b.streamCount())
}

func TestChatStreamSetupRetries(t *testing.T) {
	t.Run("rotates on retryable setup error", func(t *testing.T) {
		a := newMockModel("a").thenStream(streamPlan{err: statusError(429)})
		b := newMockModel("b")
		m, rec := newTestModel(t, roster(a, b))

		ch, err := m.ChatStream(context.Background(), testMessages)
		require.NoError(t, err)

		assert.Equal(t, []string{"stream from b"}, deltas(collect(t, ch)))
		assert.Equal(t, 2, a.streamCount())
		assert.Equal(t, 1, b.streamCount())
		assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, rec.Delays())
		assert.Equal(t, 1, m.CurrentIndex())
	})

	t.Run("returns non-retryable setup error", func(t *testing.T) {
		unauthorized := statusError(400)
		a := newMockModel("a").thenStream(streamPlan{err: unauthorized})
		b := newMockModel("b")
		m, _ := newTestModel(t, roster(a, b))

		ch, err := m.ChatStream(context.Background(), testMessages)

		assert.Nil(t, ch)
		assert.Same(t, unauthorized, err)
		assert.Equal(t, 0, b.streamCount())
	})

	t.Run("returns last error when every setup fails", func(t *testing.T) {
		last := statusError(503)
		a := newMockModel("a").thenStream(streamPlan{err: statusError(503)})
		b := newMockModel("b").thenStream(streamPlan{err: last})
		m, _ := newTestModel(t, roster(a, b), WithMaxRetriesPerModel(1))

		ch, err := m.ChatStream(context.Background(), testMessages)

		assert.Nil(t, ch)
		assert.Same(t, last, err)
	})
}

func TestChatStreamFailoverBeforeContent(t *testing.T) {
	a := newMockModel("a").thenStream(streamPlan{events: []relay.StreamEvent{
		{Start: true},
		{Start: true},
		{Err: statusError(503)},
	}})
	b := newMockModel("b")
	m, _ := newTestModel(t, roster(a, b), WithRetryAfterOutput(false))

	ch, err := m.ChatStream(context.Background(), testMessages)
	require.NoError(t, err)

	events := collect(t, ch)

	// Only the second model's output reaches the consumer.
	assert.Equal(t, contentEvents("b"), events)
	assert.NoError(t, streamErr(events))
	assert.Equal(t, 1, a.streamCount())
	assert.Equal(t, 1, b.streamCount())
	assert.Equal(t, 1, m.CurrentIndex())
}

func TestChatStreamFailureAfterContent(t *testing.T) {
	failure := statusError(503)
	partial := streamPlan{events: []relay.StreamEvent{
		{Start: true},
		{Delta: "partial"},
		{Err: failure},
	}}

	t.Run("fails over when retry after output is enabled", func(t *testing.T) {
		a := newMockModel("a").thenStream(partial)
		b := newMockModel("b")
		m, _ := newTestModel(t, roster(a, b))

		ch, err := m.ChatStream(context.Background(), testMessages)
		require.NoError(t, err)

		events := collect(t, ch)
		assert.Equal(t, []string{"partial", "stream from b"}, deltas(events))
		assert.NoError(t, streamErr(events))
		assert.Equal(t, 1, b.streamCount())
	})

	t.Run("surfaces error when retry after output is disabled", func(t *testing.T) {
		a := newMockModel("a").thenStream(partial)
		b := newMockModel("b")
		m, _ := newTestModel(t, roster(a, b), WithRetryAfterOutput(false))

		ch, err := m.ChatStream(context.Background(), testMessages)
		require.NoError(t, err)

		events := collect(t, ch)
		assert.Equal(t, []string{"partial"}, deltas(events))
		assert.Same(t, failure, streamErr(events))
		assert.Equal(t, 0, b.streamCount())
		assert.Equal(t, 0, m.CurrentIndex())
	})
}

func TestChatStreamCleanTermination(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "terminated", err: errors.New("terminated")},
		{name: "aborted", err: errors.New("The operation was Aborted")},
		{name: "canceled", err: context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newMockModel("a").thenStream(streamPlan{events: []relay.StreamEvent{
				{Delta: "chunk"},
				{Err: tt.err},
			}})
			b := newMockModel("b")
			m, _ := newTestModel(t, roster(a, b), WithRetryAfterOutput(false))

			ch, err := m.ChatStream(context.Background(), testMessages)
			require.NoError(t, err)

			events := collect(t, ch)
			require.Len(t, events, 1)
			assert.Equal(t, "chunk", events[0].Delta)
			assert.Equal(t, 0, b.streamCount())
		})
	}
}

func TestChatStreamTerminationBeforeContent(t *testing.T) {
	t.Run("message match fails over", func(t *testing.T) {
		a := newMockModel("a").thenStream(streamPlan{events: []relay.StreamEvent{
			{Err: errors.New("connection terminated")},
		}})
		b := newMockModel("b")
		m, _ := newTestModel(t, roster(a, b))

		ch, err := m.ChatStream(context.Background(), testMessages)
		require.NoError(t, err)

		assert.Equal(t, []string{"stream from b"}, deltas(collect(t, ch)))
		assert.Equal(t, 1, b.streamCount())
	})

	t.Run("cancellation closes without failover", func(t *testing.T) {
		a := newMockModel("a").thenStream(streamPlan{events: []relay.StreamEvent{
			{Start: true},
			{Err: context.Canceled},
		}})
		b := newMockModel("b")
		m, _ := newTestModel(t, roster(a, b))

		ch, err := m.ChatStream(context.Background(), testMessages)
		require.NoError(t, err)

		assert.Empty(t, collect(t, ch))
		assert.Equal(t, 0, b.streamCount())
	})
}

func TestChatStreamSingleHop(t *testing.T) {
	t.Run("second model failure is delivered", func(t *testing.T) {
		secondFailure := statusError(502)
		a := newMockModel("a").thenStream(streamPlan{events: []relay.StreamEvent{{Err: statusError(503)}}})
		b := newMockModel("b").thenStream(streamPlan{events: []relay.StreamEvent{
			{Delta: "from b"},
			{Err: secondFailure},
		}})
		c := newMockModel("c")
		m, _ := newTestModel(t, roster(a, b, c))

		ch, err := m.ChatStream(context.Background(), testMessages)
		require.NoError(t, err)

		events := collect(t, ch)
		assert.Equal(t, []string{"from b"}, deltas(events))
		assert.Same(t, secondFailure, streamErr(events))
		assert.Equal(t, 0, c.streamCount())
	})

	t.Run("second model setup failure is delivered", func(t *testing.T) {
		setupFailure := statusError(500)
		a := newMockModel("a").thenStream(streamPlan{events: []relay.StreamEvent{{Err: statusError(503)}}})
		b := newMockModel("b").thenStream(streamPlan{err: setupFailure})
		m, _ := newTestModel(t, roster(a, b))

		ch, err := m.ChatStream(context.Background(), testMessages)
		require.NoError(t, err)

		events := collect(t, ch)
		require.Len(t, events, 1)
		assert.Same(t, setupFailure, events[0].Err)
		assert.Equal(t, 1, b.streamCount())
	})
}

func TestChatStreamFailoverPassesOriginalRequest(t *testing.T) {
	a := newMockModel("a").thenStream(streamPlan{events: []relay.StreamEvent{{Err: statusError(503)}}})
	b := newMockModel("b")
	m, _ := newTestModel(t, roster(a, b))

	ch, err := m.ChatStream(context.Background(), testMessages, relay.WithMaxTokens(32), relay.WithTemperature(0.2))
	require.NoError(t, err)
	collect(t, ch)

	require.NotNil(t, b.lastOpts)
	assert.Equal(t, 32, b.lastOpts.MaxTokens)
	require.NotNil(t, b.lastOpts.Temperature)
	assert.InDelta(t, 0.2, *b.lastOpts.Temperature, 1e-9)
}

func TestChatStreamErrorHook(t *testing.T) {
	failure := statusError(503)
	var hookErr error
	var hookModel string
	a := newMockModel("a").thenStream(streamPlan{events: []relay.StreamEvent{{Err: failure}}})
	b := newMockModel("b")
	m, _ := newTestModel(t, roster(a, b), WithOnError(func(ctx context.Context, err error, modelID string) error {
		hookErr, hookModel = err, modelID
		panic("hook exploded")
	}))

	ch, err := m.ChatStream(context.Background(), testMessages)
	require.NoError(t, err)

	events := collect(t, ch)
	assert.Equal(t, []string{"stream from b"}, deltas(events))
	assert.Same(t, failure, hookErr)
	assert.Equal(t, "a", hookModel)
}

func TestChatStreamEvents(t *testing.T) {
	events := make(chan Event, 16)
	a := newMockModel("a").thenStream(streamPlan{events: []relay.StreamEvent{{Err: statusError(503)}}})
	b := newMockModel("b")
	m, _ := newTestModel(t, roster(a, b), WithEvents(events))

	ch, err := m.ChatStream(context.Background(), testMessages)
	require.NoError(t, err)
	collect(t, ch)
	close(events)

	var got []Event
	for e := range events {
		got = append(got, e)
	}
	require.Len(t, got, 2)
	assert.Equal(t, EventSuccess, got[0].Type)
	assert.Equal(t, EventStreamFailover, got[1].Type)
	assert.Equal(t, "b", got[1].ModelID)
	assert.Equal(t, "chat_stream", got[1].Operation)
	assert.Equal(t, got[0].CallID, got[1].CallID)
}

func TestChatStreamConsumerCancels(t *testing.T) {
	a := newMockModel("a").thenStream(streamPlan{
		events: []relay.StreamEvent{{Delta: "first"}, {Delta: "second"}},
		block:  true,
	})
	m, _ := newTestModel(t, roster(a))

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := m.ChatStream(ctx, testMessages)
	require.NoError(t, err)

	first := <-ch
	assert.Equal(t, "first", first.Delta)
	cancel()

	// The channel closes without an error event; goleak checks that the
	// producer and the drain goroutine exit.
	for event := range ch {
		assert.NoError(t, event.Err)
	}
}

func TestChatStreamCollect(t *testing.T) {
	a := newMockModel("a").thenStream(streamPlan{events: []relay.StreamEvent{{Start: true}, {Err: statusError(429)}}})
	b := newMockModel("b")
	m, _ := newTestModel(t, roster(a, b))

	ch, err := m.ChatStream(context.Background(), testMessages)
	require.NoError(t, err)

	resp, err := relay.Collect(context.Background(), ch)
	require.NoError(t, err)
	assert.Equal(t, "stream from b", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
}
