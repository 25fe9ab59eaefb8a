package changes

import (
	"context"
	"time"
)

type CheckFunc func(ctx context.Context, cursor int64) (newCursor int64, changed bool, err error)

// Poller calls Check every Interval until its context is cancelled.
// Stopping is purely client side. A failed or missed poll loses nothing:
// the next one compares against the same last-known cursor.
type Poller struct {
	Interval time.Duration
	Check    CheckFunc
	OnChange func(cursor int64)
	OnError  func(err error)
}

// Run polls once immediately and then on every tick. It returns the last
// cursor seen when ctx is done.
func (p *Poller) Run(ctx context.Context, cursor int64) int64 {
	interval := p.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		cursor = p.poll(ctx, cursor)

		select {
		case <-ctx.Done():
			return cursor
		case <-ticker.C:
		}
	}
}

func (p *Poller) poll(ctx context.Context, cursor int64) int64 {
	next, changed, err := p.Check(ctx, cursor)
	if err != nil {
		if ctx.Err() == nil && p.OnError != nil {
			p.OnError(err)
		}
		return cursor
	}

	if changed {
		if p.OnChange != nil {
			p.OnChange(next)
		}
		return next
	}
	return cursor
}
