package appointment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

func TestActorPermissions(t *testing.T) {
	ap := &models.Appointment{ProviderID: "prov-1", PatientID: "pat-1"}

	assert.True(t, Actor{ID: "pat-1", Role: RolePatient}.CanCancel(ap))
	assert.False(t, Actor{ID: "pat-2", Role: RolePatient}.CanCancel(ap))
	assert.True(t, Actor{ID: "prov-1", Role: RoleProvider}.CanCancel(ap))
	assert.False(t, Actor{ID: "prov-2", Role: RoleProvider}.CanCancel(ap))
	assert.True(t, SystemActor().CanCancel(ap))

	// a patient whose id happens to equal the provider id still cannot act for it
	assert.False(t, Actor{ID: "prov-1", Role: RolePatient}.ActsFor("prov-1"))
	assert.True(t, Actor{ID: "prov-1", Role: RoleProvider}.ActsFor("prov-1"))

	assert.True(t, httperr.IsBusiness(ErrForbidden("cancel"), httperr.CodeForbidden))
}
