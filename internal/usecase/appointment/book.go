package appointment

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/availability"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/observability/metrics"
)

const maxReasonLength = 500

// ======================================================
// INPUT
// ======================================================

type BookInput struct {
	ProviderID string
	PatientID  string
	Start      time.Time
	Reason     string
}

// ======================================================
// USE CASE
// ======================================================

type BookAppointment struct {
	deps Deps
}

func NewBookAppointment(deps Deps) *BookAppointment {
	return &BookAppointment{deps: deps}
}

// Execute regenerates the day's slots, checks that in.Start is still a
// bookable slot and reserves it. A lost race surfaces as slot_taken and is
// never retried here.
func (uc *BookAppointment) Execute(
	ctx context.Context,
	in BookInput,
) (*models.Appointment, error) {

	ap, err := uc.book(ctx, in)
	uc.deps.Metrics.ObserveBooking(outcomeFor(err))
	return ap, err
}

func (uc *BookAppointment) book(
	ctx context.Context,
	in BookInput,
) (*models.Appointment, error) {

	log := uc.deps.logger().With(
		zap.String("provider_id", in.ProviderID),
		zap.String("patient_id", in.PatientID),
		zap.Time("start", in.Start),
	)

	// --------------------------------------------------
	// Input
	// --------------------------------------------------

	if in.PatientID == "" {
		return nil, httperr.ErrValidation("patient_id is required")
	}
	if in.Start.IsZero() {
		return nil, httperr.ErrValidation("start is required")
	}

	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = domain.DefaultReason
	}
	if utf8.RuneCountInString(reason) > maxReasonLength {
		return nil, httperr.ErrValidation("reason is too long")
	}

	// --------------------------------------------------
	// Re-validate against a fresh slot list
	// --------------------------------------------------

	sched, err := uc.deps.loadSchedule(ctx, in.ProviderID)
	if err != nil {
		return nil, err
	}

	if !in.Start.After(uc.deps.now()) {
		return nil, httperr.ErrValidation("start must be in the future")
	}

	slots, err := sched.slots(ctx, uc.deps.Ledger, in.Start)
	if err != nil {
		log.Error("availability lookup failed", zap.Error(err))
		return nil, err
	}

	slot, ok := availability.Find(slots, in.Start)
	if !ok {
		return nil, httperr.ErrValidation("no slot starts at " + in.Start.In(sched.loc).Format(time.RFC3339))
	}
	if !slot.Bookable {
		log.Info("slot no longer bookable")
		return nil, slotTaken(in.Start, sched.loc)
	}

	// --------------------------------------------------
	// Reserve
	// --------------------------------------------------

	ap, err := uc.deps.Ledger.Reserve(ctx, domain.ReserveInput{
		ProviderID: in.ProviderID,
		PatientID:  in.PatientID,
		Start:      slot.Start,
		End:        slot.End,
		Reason:     reason,
	})
	if err != nil {
		if httperr.IsBusiness(err, httperr.CodeConflict) {
			log.Info("reservation lost to a concurrent booking")
			uc.deps.Audit.Dispatch(audit.Event{
				ProviderID: in.ProviderID,
				ActorID:    in.PatientID,
				Action:     audit.ActionConflict,
				Entity:     "appointment",
				Metadata: map[string]any{
					"start": slot.Start,
					"end":   slot.End,
				},
			})
			return nil, slotTaken(in.Start, sched.loc)
		}

		log.Error("reservation failed", zap.Error(err))
		return nil, err
	}

	uc.deps.touch(ctx, ap)
	uc.deps.dispatch(domain.Actor{ID: in.PatientID, Role: domain.RolePatient}, audit.ActionBooked, ap, map[string]any{
		"start":  ap.StartTime,
		"reason": ap.Reason,
	})

	log.Info("appointment booked", zap.String("appointment_id", ap.ID))
	return ap, nil
}

func slotTaken(start time.Time, loc *time.Location) error {
	return httperr.ErrBusinessf(httperr.CodeSlotTaken, "slot %s is no longer available", start.In(loc).Format(time.RFC3339))
}

func outcomeFor(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeBooked
	case httperr.IsBusiness(err, httperr.CodeSlotTaken):
		return metrics.OutcomeSlotTaken
	case httperr.IsStore(err):
		return metrics.OutcomeStoreError
	default:
		return metrics.OutcomeInvalid
	}
}
