package dto

import (
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

// AppointmentListDTO is one row of a provider's calendar view.
type AppointmentListDTO struct {
	ID        string    `json:"id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Status    string    `json:"status"`
	PatientID string    `json:"patient_id"`
	Reason    string    `json:"reason"`
}

// FromAppointments renders times in loc, the provider's zone.
func FromAppointments(aps []models.Appointment, loc *time.Location) []AppointmentListDTO {
	out := make([]AppointmentListDTO, 0, len(aps))
	for _, ap := range aps {
		out = append(out, AppointmentListDTO{
			ID:        ap.ID,
			StartTime: ap.StartTime.In(loc),
			EndTime:   ap.EndTime.In(loc),
			Status:    ap.Status,
			PatientID: ap.PatientID,
			Reason:    ap.Reason,
		})
	}
	return out
}
