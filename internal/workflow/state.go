// Package workflow drives the patient booking flow: provider, slot,
// confirmation, or the triage path that suggests a slot. Each step is its
// own state type, so impossible combinations cannot be represented.
package workflow

import (
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/availability"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/triage"
)

type State interface {
	Name() string
	Terminal() bool
	state()
}

type terminal struct{}

func (terminal) Terminal() bool { return true }

type open struct{}

func (open) Terminal() bool { return false }

// ======================================================
// MANUAL PATH
// ======================================================

type ChoosingProvider struct {
	open
	Providers []models.Provider
}

type ChoosingSlot struct {
	open
	Provider models.Provider
	Date     string
	Slots    []availability.Slot
}

type Confirming struct {
	open
	Provider models.Provider
	Date     string
	Slot     availability.Slot
	Reason   string
}

// ======================================================
// TRIAGE PATH
// ======================================================

// Triage holds the transient conversation. It is dropped as soon as the
// flow leaves the triage path.
type Triage struct {
	open
	Turns []string
	Last  *triage.Classification
}

type SlotSuggested struct {
	open
	Turns  []string
	Result triage.Result
}

// ======================================================
// TERMINAL
// ======================================================

type Booked struct {
	terminal
	Appointment models.Appointment
	BookedAt    time.Time
}

type Escalated struct {
	terminal
	Result triage.Result
}

type CancelledByUser struct {
	terminal
}

func (ChoosingProvider) Name() string { return "choosing_provider" }
func (ChoosingSlot) Name() string     { return "choosing_slot" }
func (Confirming) Name() string       { return "confirming" }
func (Triage) Name() string           { return "triage" }
func (SlotSuggested) Name() string    { return "slot_suggested" }
func (Booked) Name() string           { return "booked" }
func (Escalated) Name() string        { return "escalated" }
func (CancelledByUser) Name() string  { return "cancelled_by_user" }

func (ChoosingProvider) state() {}
func (ChoosingSlot) state()     {}
func (Confirming) state()       {}
func (Triage) state()           {}
func (SlotSuggested) state()    {}
func (Booked) state()           {}
func (Escalated) state()        {}
func (CancelledByUser) state()  {}
