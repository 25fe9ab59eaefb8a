package changes

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/logger"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

const (
	bumpAttempts     = 4
	bumpInitialDelay = 20 * time.Millisecond
)

// pendingBump is a cursor bump that exhausted its retries. An empty date
// marks a config bump.
type pendingBump struct {
	providerID string
	date       string
}

// Notifier answers "did anything change since cursor X" and advances
// cursors after ledger writes. It never returns slot data.
type Notifier struct {
	store CursorStore
	log   *zap.Logger

	retryDelay time.Duration

	mu      sync.Mutex
	pending map[pendingBump]struct{}
}

func NewNotifier(store CursorStore, log *zap.Logger) *Notifier {
	return &Notifier{
		store:      store,
		log:        logger.OrNop(log),
		retryDelay: bumpInitialDelay,
		pending:    make(map[pendingBump]struct{}),
	}
}

// ChangesSince reports changed whenever the current cursor differs from the
// caller's. A cursor ahead of the server (e.g. after a counter reset) also
// counts as changed so the caller refetches.
//
// Bumps still owed for the provider are replayed first. While one cannot be
// replayed the call fails instead of answering unchanged.
func (n *Notifier) ChangesSince(
	ctx context.Context,
	providerID string,
	date time.Time,
	cursor int64,
) (int64, bool, error) {

	if err := n.flush(ctx, providerID); err != nil {
		return 0, false, httperr.Store("replay cursor bump", err)
	}

	cur, err := n.store.Cursor(ctx, providerID, timezone.FormatDate(date))
	if err != nil {
		return 0, false, httperr.Store("read cursor", err)
	}

	return cur, cur != cursor, nil
}

// Touch advances the cursor of the appointment's provider/date. The bump is
// retried with backoff; if it still fails it is kept and replayed by the
// next Touch or ChangesSince for the provider. The write itself already
// happened, so nothing is returned.
func (n *Notifier) Touch(ctx context.Context, providerID string, date time.Time) {
	n.bump(ctx, pendingBump{providerID: providerID, date: timezone.FormatDate(date)})
}

// TouchConfig signals every date of the provider at once.
func (n *Notifier) TouchConfig(ctx context.Context, providerID string) {
	n.bump(ctx, pendingBump{providerID: providerID})
}

func (n *Notifier) bump(ctx context.Context, b pendingBump) {
	err := n.retry(ctx, func() error { return n.apply(ctx, b) })
	if err == nil {
		// replay anything still owed for this provider
		if ferr := n.flush(ctx, b.providerID); ferr != nil {
			n.log.Warn("cursor replay failed", zap.String("provider_id", b.providerID), zap.Error(ferr))
		}
		return
	}

	n.mu.Lock()
	n.pending[b] = struct{}{}
	n.mu.Unlock()

	n.log.Error("cursor bump failed, kept for replay",
		zap.String("provider_id", b.providerID),
		zap.String("date", b.date),
		zap.Error(err),
	)
}

func (n *Notifier) apply(ctx context.Context, b pendingBump) error {
	if b.date == "" {
		return n.store.BumpConfig(ctx, b.providerID)
	}
	return n.store.BumpDay(ctx, b.providerID, b.date)
}

func (n *Notifier) retry(ctx context.Context, fn func() error) error {
	delay := n.retryDelay
	var err error
	for attempt := 1; attempt <= bumpAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == bumpAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}

// flush replays owed bumps of one provider. One successful bump is enough
// to move the cursor, so repeated failures for a key collapse into one.
func (n *Notifier) flush(ctx context.Context, providerID string) error {
	n.mu.Lock()
	var owed []pendingBump
	for b := range n.pending {
		if b.providerID == providerID {
			owed = append(owed, b)
		}
	}
	n.mu.Unlock()

	for _, b := range owed {
		if err := n.apply(ctx, b); err != nil {
			return err
		}
		n.mu.Lock()
		delete(n.pending, b)
		n.mu.Unlock()
	}
	return nil
}
