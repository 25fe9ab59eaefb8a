package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/availability"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
	"github.com/BruksfildServices01/clinic-scheduler/internal/triage"
)

const maxReason = 500

var (
	ErrInvalidTransition = errors.New("workflow: not allowed in the current state")
	ErrSlotNotBookable   = errors.New("workflow: slot is not bookable")
	ErrFinished          = errors.New("workflow: already finished")
)

// Backend is what the workflow needs from the scheduling engine. The HTTP
// client implements it; tests use the engine in process.
type Backend interface {
	ListProviders(ctx context.Context, specialization string) ([]models.Provider, error)
	ListAvailability(ctx context.Context, providerID, date string) ([]availability.Slot, error)
	Book(ctx context.Context, providerID string, start time.Time, reason string) (*models.Appointment, error)
	Triage(ctx context.Context, text string, priorTurns []string) (triage.Result, error)
}

type Workflow struct {
	backend Backend
	state   State
	now     func() time.Time
}

func New(backend Backend) *Workflow {
	return &Workflow{
		backend: backend,
		state:   ChoosingProvider{},
		now:     time.Now,
	}
}

func (w *Workflow) State() State {
	return w.state
}

func (w *Workflow) invalid(action string) error {
	if w.state.Terminal() {
		return fmt.Errorf("%w (%s)", ErrFinished, w.state.Name())
	}
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, w.state.Name())
}

// ======================================================
// MANUAL PATH
// ======================================================

// LoadProviders fills the provider list of step one.
func (w *Workflow) LoadProviders(ctx context.Context, specialization string) error {
	if _, ok := w.state.(ChoosingProvider); !ok {
		return w.invalid("load providers")
	}

	providers, err := w.backend.ListProviders(ctx, specialization)
	if err != nil {
		return err
	}

	w.state = ChoosingProvider{Providers: providers}
	return nil
}

func (w *Workflow) SelectProvider(ctx context.Context, provider models.Provider, date string) error {
	if _, ok := w.state.(ChoosingProvider); !ok {
		return w.invalid("select provider")
	}
	return w.fetchSlots(ctx, provider, date)
}

// SelectDate refetches availability. A time picked for the previous date is
// never carried over.
func (w *Workflow) SelectDate(ctx context.Context, date string) error {
	s, ok := w.state.(ChoosingSlot)
	if !ok {
		return w.invalid("select date")
	}
	return w.fetchSlots(ctx, s.Provider, date)
}

func (w *Workflow) fetchSlots(ctx context.Context, provider models.Provider, date string) error {
	slots, err := w.backend.ListAvailability(ctx, provider.ID, date)
	if err != nil {
		return err
	}

	w.state = ChoosingSlot{Provider: provider, Date: date, Slots: slots}
	return nil
}

// SelectSlot checks bookability against the rendered list, without a
// round trip.
func (w *Workflow) SelectSlot(start time.Time) error {
	s, ok := w.state.(ChoosingSlot)
	if !ok {
		return w.invalid("select slot")
	}

	slot, found := availability.Find(s.Slots, start)
	if !found || !slot.Bookable {
		return ErrSlotNotBookable
	}

	w.state = Confirming{Provider: s.Provider, Date: s.Date, Slot: slot}
	return nil
}

func (w *Workflow) SetReason(reason string) error {
	c, ok := w.state.(Confirming)
	if !ok {
		return w.invalid("set reason")
	}

	c.Reason = reason
	w.state = c
	return nil
}

// Back moves one step towards the start. Leaving Confirming clears the slot
// and reason and refetches the slot list.
func (w *Workflow) Back(ctx context.Context) error {
	switch s := w.state.(type) {
	case Confirming:
		return w.fetchSlots(ctx, s.Provider, s.Date)
	case ChoosingSlot, Triage, SlotSuggested:
		w.state = ChoosingProvider{}
		return nil
	}
	return w.invalid("back")
}

// Submit is the only way to reach a reservation. When the slot is taken or
// no longer offered (the provider changed the grid meanwhile) the flow
// returns to slot selection with a fresh list and the error is returned.
func (w *Workflow) Submit(ctx context.Context) error {
	c, ok := w.state.(Confirming)
	if !ok {
		return w.invalid("submit")
	}

	ap, err := w.backend.Book(ctx, c.Provider.ID, c.Slot.Start, strings.TrimSpace(c.Reason))
	if err != nil {
		w.afterRejectedBook(ctx, c, err)
		return err
	}

	w.state = Booked{Appointment: *ap, BookedAt: w.now()}
	return nil
}

// afterRejectedBook leaves Confirming when the chosen slot is gone from a
// fresh list. Other validation errors keep the patient in Confirming.
func (w *Workflow) afterRejectedBook(ctx context.Context, c Confirming, err error) {
	taken := httperr.IsBusiness(err, httperr.CodeSlotTaken)
	if !taken && !httperr.IsBusiness(err, httperr.CodeValidation) {
		return
	}

	slots, ferr := w.backend.ListAvailability(ctx, c.Provider.ID, c.Date)
	if ferr != nil {
		if taken {
			w.state = ChoosingSlot{Provider: c.Provider, Date: c.Date}
		}
		return
	}

	if slot, found := availability.Find(slots, c.Slot.Start); taken || !found || !slot.Bookable {
		w.state = ChoosingSlot{Provider: c.Provider, Date: c.Date, Slots: slots}
	}
}

// Abort ends the flow from provider or slot selection.
func (w *Workflow) Abort() error {
	switch w.state.(type) {
	case ChoosingProvider, ChoosingSlot:
		w.state = CancelledByUser{}
		return nil
	}
	return w.invalid("abort")
}

// ======================================================
// TRIAGE PATH
// ======================================================

func (w *Workflow) StartTriage() error {
	if _, ok := w.state.(ChoosingProvider); !ok {
		return w.invalid("start triage")
	}

	w.state = Triage{}
	return nil
}

// Describe sends one free-text turn. Urgent classifications end the flow
// in Escalated; otherwise a suggestion moves it to SlotSuggested.
func (w *Workflow) Describe(ctx context.Context, text string) error {
	var turns []string
	switch s := w.state.(type) {
	case Triage:
		turns = s.Turns
	case SlotSuggested:
		turns = s.Turns
	default:
		return w.invalid("describe")
	}

	res, err := w.backend.Triage(ctx, text, turns)
	if err != nil {
		return err
	}

	all := append(append([]string{}, turns...), text)

	switch {
	case res.Escalated || res.Urgency == triage.UrgencyUrgent:
		res.Escalated = true
		w.state = Escalated{Result: res}
	case res.Suggestion != nil:
		w.state = SlotSuggested{Turns: all, Result: res}
	default:
		c := res.Classification
		w.state = Triage{Turns: all, Last: &c}
	}
	return nil
}

// Accept takes the suggested slot into confirmation, with the latest turn
// as the visit reason. Booking still re-validates the slot.
func (w *Workflow) Accept() error {
	s, ok := w.state.(SlotSuggested)
	if !ok {
		return w.invalid("accept")
	}

	sug := s.Result.Suggestion

	reason := ""
	if len(s.Turns) > 0 {
		reason = truncate(s.Turns[len(s.Turns)-1], maxReason)
	}

	w.state = Confirming{
		Provider: sug.Provider,
		Date:     timezone.FormatDate(sug.Slot.Start),
		Slot:     sug.Slot,
		Reason:   reason,
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n])
}
