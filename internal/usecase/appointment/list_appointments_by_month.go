package appointment

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/dto"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

type ListAppointmentsByMonth struct {
	deps Deps
}

func NewListAppointmentsByMonth(deps Deps) *ListAppointmentsByMonth {
	return &ListAppointmentsByMonth{deps: deps}
}

// Execute returns the active appointments of a calendar month.
func (uc *ListAppointmentsByMonth) Execute(
	ctx context.Context,
	actor domain.Actor,
	providerID string,
	year int,
	month int,
) ([]dto.AppointmentListDTO, error) {

	if !actor.ActsFor(providerID) {
		return nil, domain.ErrForbidden("view this calendar")
	}
	if month < 1 || month > 12 || year < 1970 {
		return nil, httperr.ErrValidation("month must be YYYY-MM")
	}

	p, err := uc.deps.Providers.GetProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}

	loc := timezone.Location(p.Timezone)

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0)

	appointments, err := uc.deps.Ledger.ListAppointmentsForPeriod(
		ctx,
		providerID,
		start,
		end,
		false,
	)
	if err != nil {
		return nil, err
	}

	return dto.FromAppointments(appointments, loc), nil
}
