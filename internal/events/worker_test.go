package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cedrus/internal/domain"
)

// recordingSink collects delivered events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (s *recordingSink) Deliver(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) all() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func TestPublisher_StampsEvents(t *testing.T) {
	sink := &recordingSink{}
	pub := NewPublisher(sink)

	err := pub.Emit(context.Background(), Event{
		Action:  ActionAuditStatusChanged,
		AuditID: uuid.New(),
		From:    domain.StatusDraft,
		To:      domain.StatusScheduled,
	})
	require.NoError(t, err)

	events := sink.all()
	require.Len(t, events, 1)
	assert.NotEqual(t, uuid.Nil, events[0].ID)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestWorker_DeliversToAllSinks(t *testing.T) {
	inbox := make(chan Event, 4)
	first := &recordingSink{}
	second := &recordingSink{}
	logger := slog.New(slog.DiscardHandler)

	worker := NewWorker(inbox, logger, first, second)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()

	event := Event{ID: uuid.New(), Action: ActionAuditStatusChanged, AuditID: uuid.New()}
	inbox <- event

	require.Eventually(t, func() bool {
		return len(first.all()) == 1 && len(second.all()) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
	assert.Equal(t, event.ID, first.all()[0].ID)
}

func TestWorker_FailingSinkDoesNotBlockOthers(t *testing.T) {
	inbox := make(chan Event, 4)
	failing := &recordingSink{err: errors.New("broker down")}
	healthy := &recordingSink{}
	logger := slog.New(slog.DiscardHandler)

	worker := NewWorker(inbox, logger, failing, healthy)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	inbox <- Event{ID: uuid.New()}

	require.Eventually(t, func() bool {
		return len(healthy.all()) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestChannelSink_NeverBlocks(t *testing.T) {
	inbox := make(chan Event, 1)
	sink := NewChannelSink(inbox, slog.New(slog.DiscardHandler))

	require.NoError(t, sink.Deliver(context.Background(), Event{ID: uuid.New()}))
	// Buffer is now full; the next delivery drops instead of blocking.
	require.NoError(t, sink.Deliver(context.Background(), Event{ID: uuid.New()}))
	assert.Len(t, inbox, 1)
}
