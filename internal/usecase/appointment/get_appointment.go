package appointment

import (
	"context"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type GetAppointment struct {
	deps Deps
}

func NewGetAppointment(deps Deps) *GetAppointment {
	return &GetAppointment{deps: deps}
}

func (uc *GetAppointment) Execute(
	ctx context.Context,
	actor domain.Actor,
	appointmentID string,
) (*models.Appointment, error) {

	ap, err := uc.deps.Ledger.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !actor.CanView(ap) {
		return nil, domain.ErrForbidden("view this appointment")
	}
	return ap, nil
}
