package changes

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
)

var day = time.Date(2030, 3, 4, 0, 0, 0, 0, time.UTC)

func newRedisStore(t *testing.T) (*RedisCursorStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisCursorStore(rdb), mr
}

func stores(t *testing.T) map[string]CursorStore {
	rs, _ := newRedisStore(t)
	return map[string]CursorStore{
		"redis":  rs,
		"memory": NewMemoryCursorStore(),
	}
}

func TestCursorAdvancesOnBump(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			n := NewNotifier(store, nil)

			cur, changed, err := n.ChangesSince(ctx, "prov-1", day, 0)
			require.NoError(t, err)
			assert.False(t, changed)
			assert.Equal(t, int64(0), cur)

			n.Touch(ctx, "prov-1", day)

			next, changed, err := n.ChangesSince(ctx, "prov-1", day, cur)
			require.NoError(t, err)
			assert.True(t, changed)
			assert.Greater(t, next, cur)

			// unchanged when polled again with the new cursor
			_, changed, err = n.ChangesSince(ctx, "prov-1", day, next)
			require.NoError(t, err)
			assert.False(t, changed)
		})
	}
}

func TestCursorIsScopedToProviderAndDate(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			n := NewNotifier(store, nil)

			n.Touch(ctx, "prov-1", day)

			_, changed, err := n.ChangesSince(ctx, "prov-2", day, 0)
			require.NoError(t, err)
			assert.False(t, changed)

			_, changed, err = n.ChangesSince(ctx, "prov-1", day.AddDate(0, 0, 1), 0)
			require.NoError(t, err)
			assert.False(t, changed)
		})
	}
}

func TestConfigBumpSignalsEveryDate(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			n := NewNotifier(store, nil)

			n.Touch(ctx, "prov-1", day)
			before, _, err := n.ChangesSince(ctx, "prov-1", day, 0)
			require.NoError(t, err)

			n.TouchConfig(ctx, "prov-1")

			after, changed, err := n.ChangesSince(ctx, "prov-1", day, before)
			require.NoError(t, err)
			assert.True(t, changed)
			assert.Greater(t, after, before)

			_, changed, err = n.ChangesSince(ctx, "prov-1", day.AddDate(0, 1, 0), 0)
			require.NoError(t, err)
			assert.True(t, changed)
		})
	}
}

func TestRedisDayKeyOutlivesItsDate(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	future := time.Now().UTC().AddDate(0, 0, 90).Format("2006-01-02")
	require.NoError(t, store.BumpDay(ctx, "prov-1", future))
	assert.Greater(t, mr.TTL(dayKey("prov-1", future)), 90*24*time.Hour+dayKeyTTL-time.Hour*25)

	// long past dates keep the plain window from the last bump
	require.NoError(t, store.BumpDay(ctx, "prov-1", "2020-01-01"))
	assert.InDelta(t, float64(dayKeyTTL), float64(mr.TTL(dayKey("prov-1", "2020-01-01"))), float64(time.Minute))
}

// flakyCursors fails the first failBumps bump calls, then delegates.
type flakyCursors struct {
	CursorStore
	mu        sync.Mutex
	failBumps int
	bumpCalls int
}

func (f *flakyCursors) fail() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bumpCalls++
	if f.failBumps > 0 {
		f.failBumps--
		return true
	}
	return false
}

func (f *flakyCursors) BumpDay(ctx context.Context, providerID, date string) error {
	if f.fail() {
		return errors.New("redis: connection reset")
	}
	return f.CursorStore.BumpDay(ctx, providerID, date)
}

func (f *flakyCursors) BumpConfig(ctx context.Context, providerID string) error {
	if f.fail() {
		return errors.New("redis: connection reset")
	}
	return f.CursorStore.BumpConfig(ctx, providerID)
}

func (f *flakyCursors) setFailures(n int) {
	f.mu.Lock()
	f.failBumps = n
	f.mu.Unlock()
}

func TestTouchRetriesTransientBumpFailure(t *testing.T) {
	ctx := context.Background()
	store := &flakyCursors{CursorStore: NewMemoryCursorStore(), failBumps: 1}
	n := NewNotifier(store, nil)
	n.retryDelay = time.Millisecond

	n.Touch(ctx, "prov-1", day)

	cur, changed, err := n.ChangesSince(ctx, "prov-1", day, 0)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, int64(1), cur)
	assert.Equal(t, 2, store.bumpCalls)
}

func TestExhaustedBumpIsReplayedBeforeAnswering(t *testing.T) {
	ctx := context.Background()
	store := &flakyCursors{CursorStore: NewMemoryCursorStore(), failBumps: bumpAttempts + 1}
	n := NewNotifier(store, nil)
	n.retryDelay = time.Millisecond

	n.Touch(ctx, "prov-1", day)

	// the store is still failing: no answer rather than a false "unchanged"
	_, _, err := n.ChangesSince(ctx, "prov-1", day, 0)
	require.Error(t, err)
	assert.True(t, httperr.IsStore(err))

	cur, changed, err := n.ChangesSince(ctx, "prov-1", day, 0)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, int64(1), cur)

	// replayed once, not on every poll
	_, changed, err = n.ChangesSince(ctx, "prov-1", day, cur)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestExhaustedConfigBumpIsReplayedByNextTouch(t *testing.T) {
	ctx := context.Background()
	store := &flakyCursors{CursorStore: NewMemoryCursorStore()}
	n := NewNotifier(store, nil)
	n.retryDelay = time.Millisecond

	store.setFailures(bumpAttempts)
	n.TouchConfig(ctx, "prov-1")

	n.Touch(ctx, "prov-1", day.AddDate(0, 0, 1))

	// the config bump reaches every date, including one never touched
	cur, changed, err := n.ChangesSince(ctx, "prov-1", day, 0)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, int64(1), cur)
}

func TestRedisDownIsStoreError(t *testing.T) {
	store, mr := newRedisStore(t)
	mr.Close()

	_, _, err := NewNotifier(store, nil).ChangesSince(context.Background(), "prov-1", day, 0)
	require.Error(t, err)
	assert.True(t, httperr.IsStore(err))
}

func TestPollerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var (
		mu      sync.Mutex
		seen    []int64
		polls   int
		backend int64 = 1
	)

	p := &Poller{
		Interval: 5 * time.Millisecond,
		Check: func(_ context.Context, cursor int64) (int64, bool, error) {
			mu.Lock()
			defer mu.Unlock()
			polls++
			if polls == 2 {
				return 0, false, errors.New("network blip")
			}
			if polls == 3 {
				backend = 2
			}
			return backend, backend != cursor, nil
		},
		OnChange: func(cursor int64) {
			mu.Lock()
			seen = append(seen, cursor)
			done := len(seen) == 2
			mu.Unlock()
			if done {
				cancel()
			}
		},
	}

	finished := make(chan int64)
	go func() { finished <- p.Run(ctx, 0) }()

	select {
	case last := <-finished:
		assert.Equal(t, int64(2), last)
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int64{1, 2}, seen)
}
