package appointment

import (
	"context"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/availability"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type Suggestion struct {
	Provider models.Provider   `json:"provider"`
	Slot     availability.Slot `json:"slot"`
}

type SuggestSlot struct {
	deps Deps
}

func NewSuggestSlot(deps Deps) *SuggestSlot {
	return &SuggestSlot{deps: deps}
}

// Execute finds the earliest bookable slot within horizonDays among the
// providers of the given specialization, or among all providers when none
// match. It returns nil when nothing is free.
func (uc *SuggestSlot) Execute(
	ctx context.Context,
	specialization string,
	horizonDays int,
) (*Suggestion, error) {

	if horizonDays <= 0 {
		horizonDays = 1
	}

	providers, err := uc.deps.Providers.ListProviders(ctx, specialization)
	if err != nil {
		return nil, err
	}
	if len(providers) == 0 && specialization != "" {
		if providers, err = uc.deps.Providers.ListProviders(ctx, ""); err != nil {
			return nil, err
		}
	}

	schedules := make([]*schedule, 0, len(providers))
	for _, p := range providers {
		sched, err := uc.deps.loadSchedule(ctx, p.ID)
		if err != nil {
			if httperr.IsStore(err) {
				return nil, err
			}
			uc.deps.logger().Warn("skipping provider without usable schedule",
				zap.String("provider_id", p.ID),
				zap.Error(err),
			)
			continue
		}
		schedules = append(schedules, sched)
	}

	now := uc.deps.now()

	for d := 0; d < horizonDays; d++ {
		var best *Suggestion

		for _, sched := range schedules {
			slots, err := sched.slots(ctx, uc.deps.Ledger, now.In(sched.loc).AddDate(0, 0, d))
			if err != nil {
				return nil, err
			}

			slot, ok := availability.FirstBookable(slots, now)
			if !ok {
				continue
			}
			if best == nil || slot.Start.Before(best.Slot.Start) {
				best = &Suggestion{Provider: *sched.provider, Slot: slot}
			}
		}

		if best != nil {
			return best, nil
		}
	}

	return nil, nil
}
