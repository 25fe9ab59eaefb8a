package appointment

import (
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

const DefaultReason = "General Checkup"

// ===============================
// Domain Actions
// ===============================

// Cancel releases the slot. Cancelling twice is a no-op; anything else is
// only allowed before the appointment starts.
func Cancel(ap *models.Appointment, now time.Time) (changed bool, err error) {
	switch Status(ap.Status) {
	case StatusCancelled:
		return false, nil
	case StatusCompleted:
		return false, httperr.ErrBusinessf(httperr.CodeInvalidTransition, "completed appointment cannot be cancelled")
	}

	if !now.Before(ap.StartTime) {
		return false, httperr.ErrBusinessf(httperr.CodeInvalidTransition, "appointment already started at %s", ap.StartTime.Format(time.RFC3339))
	}

	ap.Status = string(StatusCancelled)
	ap.CancelledAt = &now
	return true, nil
}

// Confirm acknowledges a scheduled appointment. Confirming twice is a no-op.
func Confirm(ap *models.Appointment, now time.Time) (changed bool, err error) {
	switch Status(ap.Status) {
	case StatusConfirmed:
		return false, nil
	case StatusScheduled:
		ap.Status = string(StatusConfirmed)
		ap.ConfirmedAt = &now
		return true, nil
	}
	return false, httperr.ErrBusinessf(httperr.CodeInvalidTransition, "%s appointment cannot be confirmed", ap.Status)
}

// Complete closes a confirmed appointment at or after its start.
func Complete(ap *models.Appointment, now time.Time) error {
	if Status(ap.Status) != StatusConfirmed {
		return httperr.ErrBusinessf(httperr.CodeInvalidTransition, "only confirmed appointments can be completed, got %s", ap.Status)
	}
	if now.Before(ap.StartTime) {
		return httperr.ErrBusinessf(httperr.CodeInvalidTransition, "appointment starts at %s", ap.StartTime.Format(time.RFC3339))
	}

	ap.Status = string(StatusCompleted)
	ap.CompletedAt = &now
	return nil
}
