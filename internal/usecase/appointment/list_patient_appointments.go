package appointment

import (
	"context"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type ListPatientAppointments struct {
	deps Deps
}

func NewListPatientAppointments(deps Deps) *ListPatientAppointments {
	return &ListPatientAppointments{deps: deps}
}

func (uc *ListPatientAppointments) Execute(
	ctx context.Context,
	actor domain.Actor,
	patientID string,
) ([]models.Appointment, error) {

	if !actor.IsSystem() && (actor.Role != domain.RolePatient || actor.ID != patientID) {
		return nil, domain.ErrForbidden("list these appointments")
	}

	return uc.deps.Ledger.ListAppointmentsForPatient(ctx, patientID)
}
