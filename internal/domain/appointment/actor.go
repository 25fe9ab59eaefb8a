package appointment

import (
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type Role string

const (
	RolePatient  Role = "patient"
	RoleProvider Role = "provider"
	// RoleSystem is for in-process callers (CLI, triage suggestions).
	RoleSystem Role = "system"
)

func (r Role) Valid() bool {
	return r == RolePatient || r == RoleProvider
}

// Actor is the identity asserted by the caller. It is trusted as given.
type Actor struct {
	ID   string
	Role Role
}

func SystemActor() Actor {
	return Actor{ID: "system", Role: RoleSystem}
}

func (a Actor) IsSystem() bool {
	return a.Role == RoleSystem
}

// ActsFor reports whether a may manage the given provider's schedule.
func (a Actor) ActsFor(providerID string) bool {
	return a.IsSystem() || (a.Role == RoleProvider && a.ID == providerID)
}

func (a Actor) CanCancel(ap *models.Appointment) bool {
	if a.IsSystem() {
		return true
	}
	switch a.Role {
	case RolePatient:
		return ap.PatientID == a.ID
	case RoleProvider:
		return ap.ProviderID == a.ID
	}
	return false
}

func (a Actor) CanView(ap *models.Appointment) bool {
	return a.CanCancel(ap)
}

func ErrForbidden(action string) error {
	return httperr.ErrBusinessf(httperr.CodeForbidden, "not allowed to %s", action)
}
