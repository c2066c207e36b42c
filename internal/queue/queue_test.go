package queue

import (
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/island-order-service/internal/domain"
	"github.com/example/island-order-service/internal/metrics"
)

type fakePayload struct{ n int }

func (p fakePayload) Len() int         { return p.n }
func (p fakePayload) Describe() string { return fmt.Sprintf("%d items", p.n) }

// spyNotifier фиксирует каждый вызов контракта уведомлений.
type spyNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (s *spyNotifier) record(c string) {
	s.mu.Lock()
	s.calls = append(s.calls, c)
	s.mu.Unlock()
}

func (s *spyNotifier) ConfirmQueued(msg string) error     { s.record("queued"); return nil }
func (s *spyNotifier) NotifyInitializing(msg string)      { s.record("initializing") }
func (s *spyNotifier) NotifyReady(msg, code string)       { s.record("ready") }
func (s *spyNotifier) NotifyCancelled(msg string, f bool) { s.record("cancelled") }
func (s *spyNotifier) NotifyFinished(msg string)          { s.record("finished") }
func (s *spyNotifier) NotifyGeneric(msg string)           { s.record("generic") }

func testConfig() Config {
	return Config{
		ETA: ETAConfig{
			ArrivalAllowance:   90,
			SetupAllowance:     95,
			UserTimeAllowed:    120,
			WaitForArriverTime: 60,
		},
	}
}

func newTestQueue(occupant func() string) *AdmissionQueue {
	return New(testConfig(), NewIDAllocator(0), occupant)
}

func order(userKey, name string) *domain.Order {
	return domain.NewOrder(userKey, name, fakePayload{n: 3}, nil, &spyNotifier{}, nil)
}

func TestAdmitAssignsPositionsAndETA(t *testing.T) {
	q := newTestQueue(nil)

	s1, f := q.TryAdmit(order("u1", "U1"))
	require.Nil(t, f)
	assert.Equal(t, 1, s1.Position)
	assert.Empty(t, s1.ETA, "head of the queue gets no numeric ETA")

	s2, f := q.TryAdmit(order("u2", "U2"))
	require.Nil(t, f)
	assert.Equal(t, 2, s2.Position)
	assert.Equal(t, "06m:05s", s2.ETA)

	s3, f := q.TryAdmit(order("u3", "U3"))
	require.Nil(t, f)
	assert.Equal(t, 3, s3.Position)
	assert.Equal(t, "10m:35s", s3.ETA)

	assert.Equal(t, 3, q.Count())
	assert.Equal(t, 1, q.PositionOf("u1"))
	assert.Equal(t, 2, q.PositionOf("u2"))
	assert.Equal(t, 3, q.PositionOf("u3"))
}

func TestAdmitRejectsDuplicateUser(t *testing.T) {
	q := newTestQueue(nil)

	_, f := q.TryAdmit(order("u1", "U1"))
	require.Nil(t, f)

	_, f = q.TryAdmit(order("u1", "U1 again"))
	require.NotNil(t, f)
	assert.Equal(t, FailureDuplicateUser, f.Kind)
	assert.NotEmpty(t, f.Message)
	assert.Equal(t, 1, q.Count(), "failed admission must leave no trace")
}

func TestAdmitRejectsWhileBeingServed(t *testing.T) {
	serving := "u1"
	q := newTestQueue(func() string { return serving })

	_, f := q.TryAdmit(order("u1", "U1"))
	require.NotNil(t, f)
	assert.Equal(t, FailureAlreadyProcessing, f.Kind)
	assert.Equal(t, 0, q.Count())

	// после передачи хода тот же пользователь проходит
	serving = ""
	_, f = q.TryAdmit(order("u1", "U1"))
	assert.Nil(t, f)
}

func TestReadmitAfterRemove(t *testing.T) {
	q := newTestQueue(nil)

	s, f := q.TryAdmit(order("u1", "U1"))
	require.Nil(t, f)

	assert.True(t, q.Remove(s.ID))
	assert.Equal(t, 0, q.Count())
	assert.False(t, q.Remove(s.ID), "second remove finds nothing")

	_, f = q.TryAdmit(order("u1", "U1"))
	assert.Nil(t, f)
}

func TestRemoveShiftsLaterPositionsOnly(t *testing.T) {
	q := newTestQueue(nil)
	var ids []uint64
	for i := 1; i <= 5; i++ {
		s, f := q.TryAdmit(order(fmt.Sprintf("u%d", i), fmt.Sprintf("U%d", i)))
		require.Nil(t, f)
		ids = append(ids, s.ID)
	}

	require.True(t, q.Remove(ids[2])) // убираем u3

	assert.Equal(t, 1, q.PositionOf("u1"))
	assert.Equal(t, 2, q.PositionOf("u2"))
	assert.Equal(t, 0, q.PositionOf("u3"))
	assert.Equal(t, 3, q.PositionOf("u4"))
	assert.Equal(t, 4, q.PositionOf("u5"))
}

func TestPopHeadKeepsFIFO(t *testing.T) {
	q := newTestQueue(nil)
	for i := 1; i <= 3; i++ {
		_, f := q.TryAdmit(order(fmt.Sprintf("u%d", i), fmt.Sprintf("U%d", i)))
		require.Nil(t, f)
	}

	first := q.PopHead()
	require.NotNil(t, first)
	assert.Equal(t, "u1", first.UserKey)
	assert.Equal(t, 1, q.PositionOf("u2"))

	q.PopHead()
	q.PopHead()
	assert.Nil(t, q.PopHead())
}

func TestSnapshotOrderAndUniqueness(t *testing.T) {
	q := newTestQueue(nil)
	for i := 1; i <= 10; i++ {
		_, f := q.TryAdmit(order(fmt.Sprintf("u%d", i), fmt.Sprintf("U%d", i)))
		require.Nil(t, f)
	}
	// повторные попытки не должны порождать двойников
	for i := 1; i <= 10; i++ {
		_, f := q.TryAdmit(order(fmt.Sprintf("u%d", i), fmt.Sprintf("U%d", i)))
		require.NotNil(t, f)
	}

	snap := q.Snapshot()
	require.Len(t, snap, 10)
	seen := make(map[string]bool)
	var prevID uint64
	for i, o := range snap {
		assert.False(t, seen[o.UserKey], "duplicate userKey %s in snapshot", o.UserKey)
		seen[o.UserKey] = true
		if i > 0 {
			assert.Greater(t, o.ID, prevID, "ids must grow in admission order")
		}
		prevID = o.ID
	}
}

func TestClearFiresNoCallbacks(t *testing.T) {
	q := newTestQueue(nil)
	spies := make([]*spyNotifier, 0, 4)
	hooks := 0
	for i := 1; i <= 4; i++ {
		spy := &spyNotifier{}
		spies = append(spies, spy)
		o := domain.NewOrder(fmt.Sprintf("u%d", i), fmt.Sprintf("U%d", i), fakePayload{}, nil, spy, func() { hooks++ })
		_, f := q.TryAdmit(o)
		require.Nil(t, f)
	}

	assert.Equal(t, 4, q.Clear())
	assert.Equal(t, 0, q.Count())
	assert.Equal(t, 0, hooks)
	for _, spy := range spies {
		assert.Empty(t, spy.calls)
	}

	// повторный clear безопасен
	assert.Equal(t, 0, q.Clear())
}

func TestPeekByUserKeyDoesNotRemove(t *testing.T) {
	q := newTestQueue(nil)
	_, f := q.TryAdmit(order("u1", "U1"))
	require.Nil(t, f)

	for i := 0; i < 3; i++ {
		o := q.PeekByUserKey("u1")
		require.NotNil(t, o)
		assert.Equal(t, "u1", o.UserKey)
	}
	assert.Equal(t, 1, q.Count())
	assert.Nil(t, q.PeekByUserKey("nobody"))
}

func TestShowIDsToken(t *testing.T) {
	cfg := testConfig()
	cfg.ShowIDs = true
	q := New(cfg, NewIDAllocator(7), nil)

	s, f := q.TryAdmit(order("u1", "U1"))
	require.Nil(t, f)
	assert.Equal(t, uint64(7), s.ID)
	assert.Contains(t, s.Message, "(ID 7)")

	q2 := newTestQueue(nil)
	s, f = q2.TryAdmit(order("u1", "U1"))
	require.Nil(t, f)
	assert.NotContains(t, s.Message, "(ID")
}

func TestDepthGaugeTracksQueue(t *testing.T) {
	q := newTestQueue(nil)
	for i := 0; i < 3; i++ {
		_, f := q.TryAdmit(order(fmt.Sprintf("u%d", i), fmt.Sprintf("U%d", i)))
		require.Nil(t, f)
	}
	require.NotNil(t, q.PopHead())

	var wg sync.WaitGroup
	for i := 3; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			o := order(fmt.Sprintf("u%d", i), fmt.Sprintf("U%d", i))
			if _, f := q.TryAdmit(o); f == nil {
				q.Remove(o.ID)
			}
		}(i)
	}
	wg.Wait()

	// после любого чередования приёмов и удалений датчик совпадает с
	// фактической глубиной
	assert.Equal(t, float64(q.Count()), testutil.ToFloat64(metrics.QueueDepth))
}

func TestConcurrentDistinctAdmissions(t *testing.T) {
	q := newTestQueue(nil)

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, f := q.TryAdmit(order(fmt.Sprintf("u%d", i), fmt.Sprintf("U%d", i)))
			assert.Nil(t, f)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, n, q.Count())

	snap := q.Snapshot()
	ids := make(map[uint64]bool, n)
	for _, o := range snap {
		assert.False(t, ids[o.ID], "id %d issued twice", o.ID)
		ids[o.ID] = true
	}
	// позиция каждого согласована с порядком среза
	for i, o := range snap {
		assert.Equal(t, i+1, q.PositionOf(o.UserKey))
	}
}

func TestConcurrentSameUserSingleWinner(t *testing.T) {
	q := newTestQueue(nil)

	const attempts = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, f := q.TryAdmit(order("u1", "U1")); f == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	assert.Equal(t, 1, q.Count())
}

func BenchmarkTryAdmitRemove(b *testing.B) {
	q := newTestQueue(nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s, f := q.TryAdmit(order(fmt.Sprintf("u%d", i), "bench"))
		if f != nil {
			b.Fatal(f.Message)
		}
		q.Remove(s.ID)
	}
}
