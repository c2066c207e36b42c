package events

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/island-order-service/internal/domain"
)

type memSink struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (s *memSink) Publish(ctx context.Context, ev domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, ev)
	return nil
}

type pl struct{}

func (pl) Len() int         { return 1 }
func (pl) Describe() string { return "x" }

func TestNotifierPublishesWithCorrelation(t *testing.T) {
	sink := &memSink{}
	n := NewNotifier([]domain.EventSink{sink}, zap.NewNop())

	o := domain.NewOrder("u1", "U1", pl{}, nil, n, nil)
	o.ID = 42
	n.BindOrder(o)

	require.NoError(t, n.ConfirmQueued("hello"))
	assert.Empty(t, sink.events, "confirm must not publish anything")

	n.NotifyInitializing("get ready")
	n.NotifyReady("come in", "A1B2C")
	n.NotifyGeneric("still here")
	n.NotifyFinished("done")

	require.Len(t, sink.events, 4)
	types := []string{
		domain.EventInitializing,
		domain.EventReady,
		domain.EventNotification,
		domain.EventFinished,
	}
	for i, ev := range sink.events {
		assert.Equal(t, types[i], ev.Type)
		assert.Equal(t, uint64(42), ev.OrderID)
		assert.Equal(t, "u1", ev.UserKey)
		assert.False(t, ev.At.IsZero())
	}
	assert.Equal(t, "A1B2C", sink.events[1].AccessCode)
}

func TestNotifierCancelledCarriesFault(t *testing.T) {
	sink := &memSink{}
	n := NewNotifier([]domain.EventSink{sink}, zap.NewNop())
	o := domain.NewOrder("u1", "U1", pl{}, nil, n, nil)
	n.BindOrder(o)

	n.NotifyCancelled("driver broke", true)
	require.Len(t, sink.events, 1)
	assert.True(t, sink.events[0].Faulted)
}

func TestNotifierSinkErrorDoesNotPanic(t *testing.T) {
	bad := &memSink{err: errors.New("down")}
	good := &memSink{}
	n := NewNotifier([]domain.EventSink{bad, good}, zap.NewNop())
	o := domain.NewOrder("u1", "U1", pl{}, nil, n, nil)
	n.BindOrder(o)

	n.NotifyFinished("done")
	assert.Len(t, good.events, 1, "one failing sink must not stop the rest")
}
