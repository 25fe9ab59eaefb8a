package appointment

import (
	"context"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type CompleteAppointment struct {
	deps Deps
}

func NewCompleteAppointment(deps Deps) *CompleteAppointment {
	return &CompleteAppointment{deps: deps}
}

func (uc *CompleteAppointment) Execute(
	ctx context.Context,
	actor domain.Actor,
	appointmentID string,
) (*models.Appointment, error) {

	current, err := uc.deps.Ledger.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !actor.ActsFor(current.ProviderID) {
		return nil, domain.ErrForbidden("complete this appointment")
	}

	ap, err := uc.deps.Ledger.Complete(ctx, appointmentID, uc.deps.now())
	uc.deps.Metrics.ObserveTransition("complete", err)
	if err != nil {
		return nil, err
	}

	uc.deps.touch(ctx, ap)
	uc.deps.dispatch(actor, audit.ActionCompleted, ap, nil)

	return ap, nil
}
