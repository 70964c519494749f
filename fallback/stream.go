package fallback

import (
	"context"
	"errors"
	"strings"

	"github.com/spetersoncode/relay"
)

// maxStreamHops bounds how many times one stream may switch models after
// it has been opened.
const maxStreamHops = 1

// ChatStream opens a stream on the model at the cursor. Failures while
// opening the stream are retried and rotated exactly as in Chat.
//
// Once open, events are forwarded as they arrive. If the stream fails
// before any content was delivered, or RetryAfterOutput is set, the stream
// switches once to the next model and continues with its output. A model
// that fails before producing content contributes no events. A failure
// after content whose message mentions "terminated" or "aborted" ends the
// stream without an error event.
func (m *Model) ChatStream(ctx context.Context, messages []relay.Message, opts ...relay.Option) (<-chan relay.StreamEvent, error) {
	c := m.newCall("chat_stream")
	m.resetIfDue(c)

	var active relay.Model
	upstream, err := do(ctx, m, c, func(backend relay.Model) (<-chan relay.StreamEvent, error) {
		active = backend
		return backend.ChatStream(ctx, messages, opts...)
	})
	if err != nil {
		return nil, err
	}

	s := &session{
		m:        m,
		c:        c,
		ctx:      ctx,
		messages: messages,
		opts:     opts,
		active:   active,
		upstream: upstream,
		out:      make(chan relay.StreamEvent),
	}
	go s.run()

	return s.out, nil
}

// session holds the state of one ChatStream call.
type session struct {
	m        *Model
	c        call
	ctx      context.Context
	messages []relay.Message
	opts     []relay.Option

	active   relay.Model
	upstream <-chan relay.StreamEvent
	out      chan relay.StreamEvent

	streamed bool
	hops     int
	held     *relay.StreamEvent
}

func (s *session) run() {
	defer close(s.out)

	for {
		select {
		case <-s.ctx.Done():
			go drain(s.upstream)
			return
		case event, ok := <-s.upstream:
			if !ok {
				if s.held != nil {
					s.send(*s.held)
				}
				return
			}

			if event.Err != nil {
				if !s.failover(event.Err) {
					return
				}
				continue
			}

			if event.Start {
				s.held = &event
				continue
			}

			if s.held != nil {
				if !s.send(*s.held) {
					go drain(s.upstream)
					return
				}
				s.held = nil
			}
			s.streamed = true
			if !s.send(event) {
				go drain(s.upstream)
				return
			}
		}
	}
}

// failover handles a failure of the active upstream. It reports whether the
// session continues on a new upstream.
func (s *session) failover(err error) bool {
	failedID := s.active.ModelID()

	if s.cleanTermination(err) {
		s.c.logger.Debug("stream ended by termination", "model", failedID, "error", err)
		s.m.emit(s.c, Event{
			Type:    EventStreamCleanClose,
			ModelID: failedID,
			Error:   err,
		})
		go drain(s.upstream)
		return false
	}

	if (s.streamed && !s.m.settings.RetryAfterOutput) || s.hops >= maxStreamHops {
		go drain(s.upstream)
		s.send(relay.StreamEvent{Err: err})
		return false
	}
	s.hops++

	s.m.notify(s.ctx, s.c, err, failedID)

	from, next := s.m.advance()
	backend := s.m.models[next]
	s.c.logger.Warn("stream switching model",
		"from", s.m.models[from].ModelID(),
		"to", backend.ModelID(),
		"streamed", s.streamed,
		"error", err,
	)
	s.m.emit(s.c, Event{
		Type:       EventStreamFailover,
		ModelID:    backend.ModelID(),
		ModelIndex: next,
		Error:      err,
	})

	go drain(s.upstream)
	s.held = nil

	upstream, openErr := backend.ChatStream(s.ctx, s.messages, s.opts...)
	if openErr != nil {
		s.upstream = nil
		s.send(relay.StreamEvent{Err: openErr})
		return false
	}
	s.active = backend
	s.upstream = upstream
	return true
}

// cleanTermination reports whether err ends the stream without failure.
// Cancellation always does. Errors mentioning termination or abort only do
// once content has been delivered.
func (s *session) cleanTermination(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	if !s.streamed {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "terminated") || strings.Contains(msg, "aborted")
}

// send delivers an event unless the consumer has gone away.
func (s *session) send(event relay.StreamEvent) bool {
	select {
	case s.out <- event:
		return true
	case <-s.ctx.Done():
		return false
	}
}

// drain discards what is left on an abandoned upstream so its producer can
// finish.
func drain(ch <-chan relay.StreamEvent) {
	if ch == nil {
		return
	}
	for range ch {
	}
}
