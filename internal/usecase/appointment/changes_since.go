package appointment

import (
	"context"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

type ChangeSignal struct {
	Cursor  int64 `json:"cursor"`
	Changed bool  `json:"changed"`
}

type ChangesSince struct {
	deps Deps
}

func NewChangesSince(deps Deps) *ChangesSince {
	return &ChangesSince{deps: deps}
}

func (uc *ChangesSince) Execute(
	ctx context.Context,
	providerID string,
	date string,
	cursor int64,
) (ChangeSignal, error) {

	if uc.deps.Changes == nil {
		return ChangeSignal{Cursor: cursor}, nil
	}

	p, err := uc.deps.Providers.GetProvider(ctx, providerID)
	if err != nil {
		return ChangeSignal{}, err
	}

	day, err := timezone.ParseDate(date, p.Timezone)
	if err != nil {
		return ChangeSignal{}, httperr.ErrValidation("date must be YYYY-MM-DD")
	}

	next, changed, err := uc.deps.Changes.ChangesSince(ctx, providerID, day, cursor)
	if err != nil {
		return ChangeSignal{}, err
	}

	return ChangeSignal{Cursor: next, Changed: changed}, nil
}
