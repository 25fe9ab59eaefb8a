package appointment

import (
	"context"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/dto"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

type ListAppointmentsByDate struct {
	deps Deps
}

func NewListAppointmentsByDate(deps Deps) *ListAppointmentsByDate {
	return &ListAppointmentsByDate{deps: deps}
}

// Execute returns the provider's day view. Cancelled rows are included only
// on request.
func (uc *ListAppointmentsByDate) Execute(
	ctx context.Context,
	actor domain.Actor,
	providerID string,
	date string,
	includeCancelled bool,
) ([]dto.AppointmentListDTO, error) {

	if !actor.ActsFor(providerID) {
		return nil, domain.ErrForbidden("view this calendar")
	}

	p, err := uc.deps.Providers.GetProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}

	day, err := timezone.ParseDate(date, p.Timezone)
	if err != nil {
		return nil, httperr.ErrValidation("date must be YYYY-MM-DD")
	}

	start, end := timezone.DayBounds(day)

	appointments, err := uc.deps.Ledger.ListAppointmentsForPeriod(
		ctx,
		providerID,
		start,
		end,
		includeCancelled,
	)
	if err != nil {
		return nil, err
	}

	return dto.FromAppointments(appointments, day.Location()), nil
}
