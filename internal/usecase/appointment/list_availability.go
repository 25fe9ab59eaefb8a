package appointment

import (
	"context"
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/availability"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

type ListAvailability struct {
	deps Deps
}

func NewListAvailability(deps Deps) *ListAvailability {
	return &ListAvailability{deps: deps}
}

// Execute lists the slots of date (YYYY-MM-DD, provider's zone). It only
// reads, so callers may run it freely in parallel.
func (uc *ListAvailability) Execute(
	ctx context.Context,
	providerID string,
	date string,
) ([]availability.Slot, error) {

	started := time.Now()
	defer func() {
		uc.deps.Metrics.ObserveAvailabilityLatency(time.Since(started).Seconds())
	}()

	sched, err := uc.deps.loadSchedule(ctx, providerID)
	if err != nil {
		return nil, err
	}

	day, err := timezone.ParseDate(date, sched.provider.Timezone)
	if err != nil {
		return nil, httperr.ErrValidation("date must be YYYY-MM-DD")
	}

	return sched.slots(ctx, uc.deps.Ledger, day)
}
