// Package changes implements the change-signal side of calendar sync:
// per provider/date cursors that advance on every ledger write, and a
// client poller that compares against the last cursor it saw.
package changes

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

// CursorStore keeps two monotonic counters: one per provider/date, bumped by
// appointment writes, and one per provider, bumped by config updates.
type CursorStore interface {
	BumpDay(ctx context.Context, providerID, date string) error
	BumpConfig(ctx context.Context, providerID string) error
	Cursor(ctx context.Context, providerID, date string) (int64, error)
}

// ======================================================
// REDIS
// ======================================================

// dayKeyTTL is how long a day key outlives its date, or its last bump when
// that is later. Keys of today and future dates never expire, so their
// cursors only move forward.
const dayKeyTTL = 45 * 24 * time.Hour

func dayKeyExpiry(date string, now time.Time) (time.Time, bool) {
	d, err := time.Parse(timezone.DateLayout, date)
	if err != nil {
		return time.Time{}, false
	}
	at := d.AddDate(0, 0, 1).Add(dayKeyTTL)
	if floor := now.Add(dayKeyTTL); at.Before(floor) {
		at = floor
	}
	return at, true
}

type RedisCursorStore struct {
	rdb *redis.Client
}

func NewRedisCursorStore(rdb *redis.Client) *RedisCursorStore {
	return &RedisCursorStore{rdb: rdb}
}

func dayKey(providerID, date string) string {
	return "sched:cursor:day:" + providerID + ":" + date
}

func configKey(providerID string) string {
	return "sched:cursor:cfg:" + providerID
}

func (s *RedisCursorStore) BumpDay(ctx context.Context, providerID, date string) error {
	key := dayKey(providerID, date)

	pipe := s.rdb.TxPipeline()
	pipe.Incr(ctx, key)
	if at, ok := dayKeyExpiry(date, time.Now()); ok {
		pipe.ExpireAt(ctx, key, at)
	} else {
		pipe.Expire(ctx, key, dayKeyTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisCursorStore) BumpConfig(ctx context.Context, providerID string) error {
	return s.rdb.Incr(ctx, configKey(providerID)).Err()
}

func (s *RedisCursorStore) Cursor(ctx context.Context, providerID, date string) (int64, error) {
	vals, err := s.rdb.MGet(ctx, dayKey(providerID, date), configKey(providerID)).Result()
	if err != nil {
		return 0, err
	}

	var total int64
	for _, v := range vals {
		total += toInt64(v)
	}
	return total, nil
}

func toInt64(v any) int64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// ======================================================
// MEMORY
// ======================================================

type MemoryCursorStore struct {
	counters sync.Map // key -> *atomic.Int64
}

func NewMemoryCursorStore() *MemoryCursorStore {
	return &MemoryCursorStore{}
}

func (s *MemoryCursorStore) counter(key string) *atomic.Int64 {
	c, _ := s.counters.LoadOrStore(key, new(atomic.Int64))
	return c.(*atomic.Int64)
}

func (s *MemoryCursorStore) BumpDay(_ context.Context, providerID, date string) error {
	s.counter(dayKey(providerID, date)).Add(1)
	return nil
}

func (s *MemoryCursorStore) BumpConfig(_ context.Context, providerID string) error {
	s.counter(configKey(providerID)).Add(1)
	return nil
}

func (s *MemoryCursorStore) Cursor(_ context.Context, providerID, date string) (int64, error) {
	return s.counter(dayKey(providerID, date)).Load() + s.counter(configKey(providerID)).Load(), nil
}

var (
	_ CursorStore = (*RedisCursorStore)(nil)
	_ CursorStore = (*MemoryCursorStore)(nil)
)
