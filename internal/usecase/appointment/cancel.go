package appointment

import (
	"context"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type CancelAppointment struct {
	deps Deps
}

func NewCancelAppointment(deps Deps) *CancelAppointment {
	return &CancelAppointment{deps: deps}
}

// Execute is idempotent: cancelling a cancelled appointment returns it as is.
func (uc *CancelAppointment) Execute(
	ctx context.Context,
	actor domain.Actor,
	appointmentID string,
) (*models.Appointment, error) {

	current, err := uc.deps.Ledger.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !actor.CanCancel(current) {
		return nil, domain.ErrForbidden("cancel this appointment")
	}

	ap, changed, err := uc.deps.Ledger.Cancel(ctx, appointmentID, uc.deps.now())
	uc.deps.Metrics.ObserveTransition("cancel", err)
	if err != nil {
		return nil, err
	}

	if changed {
		uc.deps.touch(ctx, ap)
		uc.deps.dispatch(actor, audit.ActionCancelled, ap, nil)
	}

	return ap, nil
}
