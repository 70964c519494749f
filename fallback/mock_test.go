package fallback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spetersoncode/relay"
	"github.com/stretchr/testify/require"
)

// mockModel is a scripted backend. Each call consumes the next scripted
// result; the last one repeats once the script runs out.
type mockModel struct {
	id       string
	provider relay.Provider

	mu          sync.Mutex
	chatScript  []chatResult
	streamPlans []streamPlan
	chatCalls   int
	streamCalls int
	lastOpts    *relay.Options
}

type chatResult struct {
	resp *relay.Response
	err  error
}

// streamPlan describes one ChatStream call: either a setup error or a
// sequence of events written to the returned channel.
type streamPlan struct {
	err    error
	events []relay.StreamEvent
	// block keeps the channel open after the events until ctx is done.
	block bool
}

func newMockModel(id string) *mockModel {
	return &mockModel{id: id, provider: relay.Provider("mock")}
}

func (m *mockModel) thenChat(resp *relay.Response, err error) *mockModel {
	m.chatScript = append(m.chatScript, chatResult{resp: resp, err: err})
	return m
}

func (m *mockModel) succeeds() *mockModel {
	return m.thenChat(&relay.Response{Content: "response from " + m.id}, nil)
}

func (m *mockModel) fails(err error) *mockModel {
	return m.thenChat(nil, err)
}

func (m *mockModel) thenStream(plan streamPlan) *mockModel {
	m.streamPlans = append(m.streamPlans, plan)
	return m
}

func (m *mockModel) ModelID() string          { return m.id }
func (m *mockModel) Provider() relay.Provider { return m.provider }

func (m *mockModel) Chat(ctx context.Context, messages []relay.Message, opts ...relay.Option) (*relay.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastOpts = relay.ApplyOptions(opts...)
	i := m.chatCalls
	m.chatCalls++
	if len(m.chatScript) == 0 {
		return &relay.Response{Content: "response from " + m.id}, nil
	}
	if i >= len(m.chatScript) {
		i = len(m.chatScript) - 1
	}
	r := m.chatScript[i]
	return r.resp, r.err
}

func (m *mockModel) ChatStream(ctx context.Context, messages []relay.Message, opts ...relay.Option) (<-chan relay.StreamEvent, error) {
	m.mu.Lock()
	m.lastOpts = relay.ApplyOptions(opts...)
	i := m.streamCalls
	m.streamCalls++
	var plan streamPlan
	if len(m.streamPlans) == 0 {
		plan = streamPlan{events: contentEvents(m.id)}
	} else {
		if i >= len(m.streamPlans) {
			i = len(m.streamPlans) - 1
		}
		plan = m.streamPlans[i]
	}
	m.mu.Unlock()

	if plan.err != nil {
		return nil, plan.err
	}

	ch := make(chan relay.StreamEvent)
	go func() {
		defer close(ch)
		for _, event := range plan.events {
			select {
			case ch <- event:
			case <-ctx.Done():
				return
			}
		}
		if plan.block {
			<-ctx.Done()
		}
	}()
	return ch, nil
}

func (m *mockModel) chatCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chatCalls
}

func (m *mockModel) streamCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.streamCalls
}

// contentEvents is a complete, successful stream from a model.
func contentEvents(id string) []relay.StreamEvent {
	return []relay.StreamEvent{
		{Start: true},
		{Delta: "stream from " + id},
		{Done: true, Response: &relay.Response{Content: "stream from " + id, FinishReason: "stop"}},
	}
}

// statusError is a provider error carrying an HTTP status.
func statusError(code int) error {
	return relay.NewError("mock", "", code, errors.New("request failed"))
}

// fakeClock is a controllable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// sleepRecorder replaces the backoff sleep and records requested delays.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *sleepRecorder) Delays() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]time.Duration, len(r.delays))
	copy(out, r.delays)
	return out
}

// newTestModel builds a fallback Model whose backoff does not sleep.
func newTestModel(t *testing.T, models []relay.Model, opts ...Option) (*Model, *sleepRecorder) {
	t.Helper()
	m, err := New(models, opts...)
	require.NoError(t, err)
	rec := &sleepRecorder{}
	m.sleep = rec.Sleep
	return m, rec
}

func roster(models ...*mockModel) []relay.Model {
	out := make([]relay.Model, len(models))
	for i, m := range models {
		out[i] = m
	}
	return out
}

// collect reads every event from a stream.
func collect(t *testing.T, ch <-chan relay.StreamEvent) []relay.StreamEvent {
	t.Helper()
	var events []relay.StreamEvent
	timeout := time.After(5 * time.Second)
	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, event)
		case <-timeout:
			t.Fatal("stream did not close")
			return events
		}
	}
}

func deltas(events []relay.StreamEvent) []string {
	var out []string
	for _, event := range events {
		if event.Delta != "" {
			out = append(out, event.Delta)
		}
	}
	return out
}

func streamErr(events []relay.StreamEvent) error {
	for _, event := range events {
		if event.Err != nil {
			return event.Err
		}
	}
	return nil
}
