package appointment

import (
	"context"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type ConfirmAppointment struct {
	deps Deps
}

func NewConfirmAppointment(deps Deps) *ConfirmAppointment {
	return &ConfirmAppointment{deps: deps}
}

func (uc *ConfirmAppointment) Execute(
	ctx context.Context,
	actor domain.Actor,
	appointmentID string,
) (*models.Appointment, error) {

	current, err := uc.deps.Ledger.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !actor.ActsFor(current.ProviderID) {
		return nil, domain.ErrForbidden("confirm this appointment")
	}

	ap, changed, err := uc.deps.Ledger.Confirm(ctx, appointmentID, uc.deps.now())
	uc.deps.Metrics.ObserveTransition("confirm", err)
	if err != nil {
		return nil, err
	}

	if changed {
		uc.deps.touch(ctx, ap)
		uc.deps.dispatch(actor, audit.ActionConfirmed, ap, nil)
	}

	return ap, nil
}
