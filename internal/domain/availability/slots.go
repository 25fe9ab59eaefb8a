package availability

import (
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type Slot struct {
	ProviderID string    `json:"provider_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Bookable   bool      `json:"bookable"`
}

// Generate lays out the slots of date's calendar day (in date's location)
// and marks every slot overlapping an active appointment as not bookable.
// It has no side effects: identical inputs always yield an identical list.
func Generate(cfg Config, date time.Time, existing []models.Appointment) []Slot {
	slots := []Slot{}

	if cfg.SlotDuration <= 0 || cfg.WorkEnd <= cfg.WorkStart {
		return slots
	}

	dayStart := cfg.WorkStart.On(date)
	dayEnd := cfg.WorkEnd.On(date)
	step := cfg.Step()

	busy := activeFor(cfg.ProviderID, existing)

	for cur := dayStart; !cur.Add(cfg.SlotDuration).After(dayEnd); cur = cur.Add(step) {
		slotStart := cur
		slotEnd := cur.Add(cfg.SlotDuration)

		slots = append(slots, Slot{
			ProviderID: cfg.ProviderID,
			Start:      slotStart,
			End:        slotEnd,
			Bookable:   !overlapsAny(slotStart, slotEnd, busy),
		})
	}

	return slots
}

func activeFor(providerID string, aps []models.Appointment) []models.Appointment {
	out := make([]models.Appointment, 0, len(aps))
	for _, ap := range aps {
		if !appointment.Status(ap.Status).Active() {
			continue
		}
		if providerID != "" && ap.ProviderID != "" && ap.ProviderID != providerID {
			continue
		}
		out = append(out, ap)
	}
	return out
}

// half-open [start, end)
func overlapsAny(start, end time.Time, aps []models.Appointment) bool {
	for _, ap := range aps {
		if start.Before(ap.EndTime) && ap.StartTime.Before(end) {
			return true
		}
	}
	return false
}

// Find returns the slot starting exactly at start.
func Find(slots []Slot, start time.Time) (Slot, bool) {
	for _, s := range slots {
		if s.Start.Equal(start) {
			return s, true
		}
	}
	return Slot{}, false
}

// FirstBookable returns the earliest bookable slot starting at or after notBefore.
func FirstBookable(slots []Slot, notBefore time.Time) (Slot, bool) {
	for _, s := range slots {
		if s.Bookable && !s.Start.Before(notBefore) {
			return s, true
		}
	}
	return Slot{}, false
}
