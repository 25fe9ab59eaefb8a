// Package memory holds in-process implementations of the scheduling stores,
// used for STORE_BACKEND=memory and in tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type slotKey struct {
	providerID string
	start      int64
}

func keyOf(ap *models.Appointment) slotKey {
	return slotKey{providerID: ap.ProviderID, start: ap.StartTime.UnixNano()}
}

// providerBook holds one provider's appointments.
type providerBook struct {
	mu           sync.RWMutex
	appointments map[string]*models.Appointment
}

// Ledger keeps appointments per provider. A slot is claimed with an atomic
// LoadOrStore on its (provider, start) key, so reservations for different
// slots never wait on each other and same-slot attempts have one winner.
type Ledger struct {
	claims sync.Map // slotKey -> appointment id
	books  sync.Map // provider id -> *providerBook
	owner  sync.Map // appointment id -> provider id
}

func NewLedger() *Ledger {
	return &Ledger{}
}

func (l *Ledger) book(providerID string) *providerBook {
	b, _ := l.books.LoadOrStore(providerID, &providerBook{
		appointments: make(map[string]*models.Appointment),
	})
	return b.(*providerBook)
}

func (l *Ledger) Reserve(
	ctx context.Context,
	in domain.ReserveInput,
) (*models.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !in.End.After(in.Start) {
		return nil, httperr.ErrValidation("end must be after start")
	}

	now := time.Now()
	ap := &models.Appointment{
		ID:         uuid.NewString(),
		ProviderID: in.ProviderID,
		PatientID:  in.PatientID,
		StartTime:  in.Start,
		EndTime:    in.End,
		Status:     string(domain.InitialStatus()),
		Reason:     in.Reason,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, taken := l.claims.LoadOrStore(keyOf(ap), ap.ID); taken {
		return nil, httperr.ErrBusinessf(httperr.CodeConflict, "slot %s already reserved", in.Start.Format(time.RFC3339))
	}

	b := l.book(in.ProviderID)
	b.mu.Lock()
	b.appointments[ap.ID] = ap
	b.mu.Unlock()
	l.owner.Store(ap.ID, in.ProviderID)

	out := *ap
	return &out, nil
}

// mutate applies fn to the stored appointment under its provider's lock.
func (l *Ledger) mutate(
	ctx context.Context,
	appointmentID string,
	fn func(ap *models.Appointment) (bool, error),
) (*models.Appointment, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	providerID, ok := l.owner.Load(appointmentID)
	if !ok {
		return nil, false, httperr.ErrNotFound("appointment")
	}

	b := l.book(providerID.(string))
	b.mu.Lock()
	defer b.mu.Unlock()

	stored, ok := b.appointments[appointmentID]
	if !ok {
		return nil, false, httperr.ErrNotFound("appointment")
	}

	working := *stored
	changed, err := fn(&working)
	if err != nil {
		return nil, false, err
	}
	if changed {
		working.UpdatedAt = time.Now()
		if !domain.Status(working.Status).Active() {
			l.claims.CompareAndDelete(keyOf(&working), working.ID)
		}
		*stored = working
	}

	out := working
	return &out, changed, nil
}

func (l *Ledger) Cancel(
	ctx context.Context,
	appointmentID string,
	now time.Time,
) (*models.Appointment, bool, error) {
	return l.mutate(ctx, appointmentID, func(ap *models.Appointment) (bool, error) {
		return domain.Cancel(ap, now)
	})
}

func (l *Ledger) Confirm(
	ctx context.Context,
	appointmentID string,
	now time.Time,
) (*models.Appointment, bool, error) {
	return l.mutate(ctx, appointmentID, func(ap *models.Appointment) (bool, error) {
		return domain.Confirm(ap, now)
	})
}

func (l *Ledger) Complete(
	ctx context.Context,
	appointmentID string,
	now time.Time,
) (*models.Appointment, error) {
	ap, _, err := l.mutate(ctx, appointmentID, func(ap *models.Appointment) (bool, error) {
		return true, domain.Complete(ap, now)
	})
	return ap, err
}

func (l *Ledger) GetAppointment(
	ctx context.Context,
	appointmentID string,
) (*models.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	providerID, ok := l.owner.Load(appointmentID)
	if !ok {
		return nil, httperr.ErrNotFound("appointment")
	}

	b := l.book(providerID.(string))
	b.mu.RLock()
	defer b.mu.RUnlock()

	stored, ok := b.appointments[appointmentID]
	if !ok {
		return nil, httperr.ErrNotFound("appointment")
	}

	out := *stored
	return &out, nil
}

func (l *Ledger) ListAppointmentsForPeriod(
	ctx context.Context,
	providerID string,
	start time.Time,
	end time.Time,
	includeCancelled bool,
) ([]models.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v, ok := l.books.Load(providerID)
	if !ok {
		return []models.Appointment{}, nil
	}
	b := v.(*providerBook)

	b.mu.RLock()
	out := make([]models.Appointment, 0, len(b.appointments))
	for _, ap := range b.appointments {
		if ap.StartTime.Before(start) || !ap.StartTime.Before(end) {
			continue
		}
		if !includeCancelled && !domain.Status(ap.Status).Active() {
			continue
		}
		out = append(out, *ap)
	}
	b.mu.RUnlock()

	sortByStart(out)
	return out, nil
}

func (l *Ledger) ListAppointmentsForPatient(
	ctx context.Context,
	patientID string,
) ([]models.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := []models.Appointment{}
	l.books.Range(func(_, v any) bool {
		b := v.(*providerBook)
		b.mu.RLock()
		for _, ap := range b.appointments {
			if ap.PatientID == patientID {
				out = append(out, *ap)
			}
		}
		b.mu.RUnlock()
		return true
	})

	sortByStart(out)
	return out, nil
}

func sortByStart(aps []models.Appointment) {
	sort.Slice(aps, func(i, j int) bool {
		if aps[i].StartTime.Equal(aps[j].StartTime) {
			return aps[i].CreatedAt.Before(aps[j].CreatedAt)
		}
		return aps[i].StartTime.Before(aps[j].StartTime)
	})
}

// Compile-time check
var _ domain.Ledger = (*Ledger)(nil)
