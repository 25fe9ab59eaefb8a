package appointment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	"github.com/BruksfildServices01/clinic-scheduler/internal/changes"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/memory"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/observability/metrics"
)

// Monday 2030-03-04, 08:00 UTC.
var now = time.Date(2030, 3, 4, 8, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return time.Date(2030, 3, 4, hour, minute, 0, 0, time.UTC)
}

var (
	patient  = domain.Actor{ID: "pat-1", Role: domain.RolePatient}
	provider = domain.Actor{ID: "prov-1", Role: domain.RoleProvider}
)

type recordingSink struct {
	mu     sync.Mutex
	events []audit.Event
}

func (s *recordingSink) Handle(_ context.Context, ev audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSink) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.Action)
	}
	return out
}

type fixture struct {
	svc        *Service
	deps       Deps
	ledger     *memory.Ledger
	configs    *memory.ConfigStore
	sink       *recordingSink
	dispatcher *audit.Dispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		ledger:  memory.NewLedger(),
		configs: memory.NewConfigStore(),
		sink:    &recordingSink{},
	}
	f.dispatcher = audit.NewDispatcher(nil, f.sink)
	t.Cleanup(f.dispatcher.Close)

	providers := memory.NewProviderDirectory()
	ctx := context.Background()
	require.NoError(t, providers.SaveProvider(ctx, &models.Provider{ID: "prov-1", Name: "Dr. Ahn", Specialization: "General", Timezone: "UTC"}))
	require.NoError(t, providers.SaveProvider(ctx, &models.Provider{ID: "prov-2", Name: "Dr. Silva", Specialization: "Orthodontics", Timezone: "UTC"}))

	f.deps = Deps{
		Ledger:    f.ledger,
		Configs:   f.configs,
		Providers: providers,
		Changes:   changes.NewNotifier(changes.NewMemoryCursorStore(), nil),
		Audit:     f.dispatcher,
		Metrics:   metrics.NewSchedulingMetrics(prometheus.NewRegistry()),
		Clock:     func() time.Time { return now },
	}
	f.svc = NewService(f.deps)

	f.setConfig(t, "prov-1", 30, 0, "continuous")
	return f
}

func (f *fixture) setConfig(t *testing.T, providerID string, slot, buffer int, mode string) {
	t.Helper()
	_, err := f.svc.UpdateConfig.Execute(context.Background(), domain.SystemActor(), ConfigInput{
		ProviderID:     providerID,
		WorkStart:      "09:00",
		WorkEnd:        "17:00",
		SlotDuration:   slot,
		BufferDuration: buffer,
		Mode:           mode,
	})
	require.NoError(t, err)
}

func (f *fixture) book(start time.Time, patientID string) (*models.Appointment, error) {
	return f.svc.Book.Execute(context.Background(), BookInput{
		ProviderID: "prov-1",
		PatientID:  patientID,
		Start:      start,
	})
}

// ======================================================
// BOOK
// ======================================================

func TestBookReservesSlotAndSignalsChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	before, err := f.svc.ChangesSince.Execute(ctx, "prov-1", "2030-03-04", 0)
	require.NoError(t, err)

	slots, err := f.svc.ListAvailability.Execute(ctx, "prov-1", "2030-03-04")
	require.NoError(t, err)
	require.Len(t, slots, 16)
	assert.True(t, slots[2].Bookable)

	ap, err := f.book(at(10, 0), "pat-1")
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusScheduled), ap.Status)
	assert.Equal(t, domain.DefaultReason, ap.Reason)
	assert.True(t, ap.EndTime.Equal(at(10, 30)))

	slots, err = f.svc.ListAvailability.Execute(ctx, "prov-1", "2030-03-04")
	require.NoError(t, err)
	assert.False(t, slots[2].Bookable)

	after, err := f.svc.ChangesSince.Execute(ctx, "prov-1", "2030-03-04", before.Cursor)
	require.NoError(t, err)
	assert.True(t, after.Changed)

	f.dispatcher.Close()
	assert.Contains(t, f.sink.actions(), audit.ActionBooked)
}

// flakyCursors fails the first BumpDay call.
type flakyCursors struct {
	changes.CursorStore
	mu     sync.Mutex
	failed bool
}

func (f *flakyCursors) BumpDay(ctx context.Context, providerID, date string) error {
	f.mu.Lock()
	first := !f.failed
	f.failed = true
	f.mu.Unlock()
	if first {
		return errors.New("redis: i/o timeout")
	}
	return f.CursorStore.BumpDay(ctx, providerID, date)
}

func TestBookSignalsChangeDespiteTransientCursorError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	deps := f.deps
	deps.Changes = changes.NewNotifier(&flakyCursors{CursorStore: changes.NewMemoryCursorStore()}, nil)
	svc := NewService(deps)

	before, err := svc.ChangesSince.Execute(ctx, "prov-1", "2030-03-04", 0)
	require.NoError(t, err)

	_, err = svc.Book.Execute(ctx, BookInput{ProviderID: "prov-1", PatientID: "pat-1", Start: at(10, 0)})
	require.NoError(t, err)

	slots, err := svc.ListAvailability.Execute(ctx, "prov-1", "2030-03-04")
	require.NoError(t, err)
	assert.False(t, slots[2].Bookable)

	after, err := svc.ChangesSince.Execute(ctx, "prov-1", "2030-03-04", before.Cursor)
	require.NoError(t, err)
	assert.True(t, after.Changed)
	assert.Greater(t, after.Cursor, before.Cursor)
}

func TestBookSameSlotConcurrently(t *testing.T) {
	f := newFixture(t)

	const n = 20
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		booked int
		taken  int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.book(at(11, 0), "pat-x")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				booked++
			case httperr.IsBusiness(err, httperr.CodeSlotTaken):
				taken++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, booked)
	assert.Equal(t, n-1, taken)

	aps, err := f.ledger.ListAppointmentsForPeriod(context.Background(), "prov-1", at(0, 0), at(23, 59), false)
	require.NoError(t, err)
	assert.Len(t, aps, 1)
}

func TestBookStaleSlotIsSlotTaken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	slots, err := f.svc.ListAvailability.Execute(ctx, "prov-1", "2030-03-04")
	require.NoError(t, err)
	require.True(t, slots[0].Bookable)

	_, err = f.book(slots[0].Start, "competitor")
	require.NoError(t, err)

	ap, err := f.book(slots[0].Start, "pat-1")
	assert.Nil(t, ap)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeSlotTaken))
}

func TestBookRejectsInvalidRequests(t *testing.T) {
	f := newFixture(t)

	_, err := f.book(at(9, 10), "pat-1")
	assert.True(t, httperr.IsBusiness(err, httperr.CodeValidation), "off-grid start")

	_, err = f.book(now.Add(-time.Hour), "pat-1")
	assert.True(t, httperr.IsBusiness(err, httperr.CodeValidation), "past start")

	_, err = f.book(at(9, 0), "")
	assert.True(t, httperr.IsBusiness(err, httperr.CodeValidation), "missing patient")

	_, err = f.svc.Book.Execute(context.Background(), BookInput{ProviderID: "nobody", PatientID: "pat-1", Start: at(9, 0)})
	assert.True(t, httperr.IsBusiness(err, httperr.CodeNotFound))
}

type stubLedger struct {
	domain.Ledger
	reserveErr error
}

func (s stubLedger) Reserve(context.Context, domain.ReserveInput) (*models.Appointment, error) {
	return nil, s.reserveErr
}

func TestBookMapsLedgerErrors(t *testing.T) {
	f := newFixture(t)

	deps := f.deps
	deps.Ledger = stubLedger{Ledger: f.ledger, reserveErr: httperr.ErrBusinessf(httperr.CodeConflict, "lost")}
	_, err := NewBookAppointment(deps).Execute(context.Background(), BookInput{ProviderID: "prov-1", PatientID: "pat-1", Start: at(9, 0)})
	assert.True(t, httperr.IsBusiness(err, httperr.CodeSlotTaken))

	deps.Ledger = stubLedger{Ledger: f.ledger, reserveErr: httperr.Store("reserve", errors.New("db down"))}
	_, err = NewBookAppointment(deps).Execute(context.Background(), BookInput{ProviderID: "prov-1", PatientID: "pat-1", Start: at(9, 0)})
	assert.True(t, httperr.IsStore(err))
	assert.False(t, httperr.IsBusiness(err, httperr.CodeSlotTaken))
}

// ======================================================
// CONFIG
// ======================================================

func TestConfigChangeKeepsBookedTimes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ap, err := f.book(at(9, 30), "pat-1")
	require.NoError(t, err)

	f.setConfig(t, "prov-1", 45, 0, "continuous")

	got, err := f.svc.Get.Execute(ctx, patient, ap.ID)
	require.NoError(t, err)
	assert.True(t, got.StartTime.Equal(at(9, 30)))
	assert.True(t, got.EndTime.Equal(at(10, 0)))

	slots, err := f.svc.ListAvailability.Execute(ctx, "prov-1", "2030-03-04")
	require.NoError(t, err)
	assert.True(t, slots[1].Start.Equal(at(9, 45)))
	// 09:00-09:45 and 09:45-10:30 both overlap the kept booking
	assert.False(t, slots[0].Bookable)
	assert.False(t, slots[1].Bookable)
	assert.True(t, slots[2].Bookable)

	// the old grid position is gone
	_, err = f.book(at(10, 0), "pat-2")
	assert.True(t, httperr.IsBusiness(err, httperr.CodeValidation))
}

func TestUpdateConfigValidatesBeforeSaving(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.UpdateConfig.Execute(ctx, provider, ConfigInput{
		ProviderID: "prov-1", WorkStart: "17:00", WorkEnd: "09:00", SlotDuration: 30,
	})
	assert.True(t, httperr.IsBusiness(err, httperr.CodeValidation))

	_, err = f.svc.UpdateConfig.Execute(ctx, provider, ConfigInput{
		ProviderID: "prov-1", WorkStart: "09:00", WorkEnd: "17:00", SlotDuration: 0,
	})
	assert.True(t, httperr.IsBusiness(err, httperr.CodeValidation))

	cfg, err := f.svc.GetConfig.Execute(ctx, "prov-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), cfg.Version)

	updated, err := f.svc.UpdateConfig.Execute(ctx, provider, ConfigInput{
		ProviderID: "prov-1", WorkStart: "08:00", WorkEnd: "12:00", SlotDuration: 20, BufferDuration: 10, Mode: "continuous",
	})
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), updated.BufferDuration)
	assert.Equal(t, int64(2), updated.Version)

	_, err = f.svc.UpdateConfig.Execute(ctx, domain.Actor{ID: "prov-2", Role: domain.RoleProvider}, ConfigInput{
		ProviderID: "prov-1", WorkStart: "09:00", WorkEnd: "17:00", SlotDuration: 30,
	})
	assert.True(t, httperr.IsBusiness(err, httperr.CodeForbidden))
}

func TestConfigUpdateSignalsChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	before, err := f.svc.ChangesSince.Execute(ctx, "prov-1", "2030-03-09", 0)
	require.NoError(t, err)

	f.setConfig(t, "prov-1", 20, 5, "interleaved")

	after, err := f.svc.ChangesSince.Execute(ctx, "prov-1", "2030-03-09", before.Cursor)
	require.NoError(t, err)
	assert.True(t, after.Changed)
}

func TestMissingConfigFallsBackToDefaults(t *testing.T) {
	f := newFixture(t)

	cfg, err := f.svc.GetConfig.Execute(context.Background(), "prov-2")
	require.NoError(t, err)
	assert.Equal(t, int64(0), cfg.Version)
	assert.Equal(t, 30*time.Minute, cfg.SlotDuration)
	assert.Equal(t, 5*time.Minute, cfg.BufferDuration)

	slots, err := f.svc.ListAvailability.Execute(context.Background(), "prov-2", "2030-03-04")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(slots), 2)
	assert.Equal(t, 35*time.Minute, slots[1].Start.Sub(slots[0].Start))
}

// ======================================================
// LIFECYCLE
// ======================================================

func TestCancelIsIdempotentAndScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ap, err := f.book(at(13, 0), "pat-1")
	require.NoError(t, err)

	_, err = f.svc.Cancel.Execute(ctx, domain.Actor{ID: "pat-2", Role: domain.RolePatient}, ap.ID)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeForbidden))

	first, err := f.svc.Cancel.Execute(ctx, patient, ap.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCancelled), first.Status)

	second, err := f.svc.Cancel.Execute(ctx, patient, ap.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCancelled), second.Status)

	// slot is free again
	_, err = f.book(at(13, 0), "pat-2")
	require.NoError(t, err)

	_, err = f.svc.Cancel.Execute(ctx, patient, "unknown")
	assert.True(t, httperr.IsBusiness(err, httperr.CodeNotFound))
}

func TestConfirmAndComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ap, err := f.book(at(9, 0), "pat-1")
	require.NoError(t, err)

	_, err = f.svc.Complete.Execute(ctx, provider, ap.ID)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeInvalidTransition), "complete before confirm")

	_, err = f.svc.Confirm.Execute(ctx, patient, ap.ID)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeForbidden))

	confirmed, err := f.svc.Confirm.Execute(ctx, provider, ap.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusConfirmed), confirmed.Status)

	// clock still at 08:00, before the 09:00 start
	_, err = f.svc.Complete.Execute(ctx, provider, ap.ID)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeInvalidTransition), "complete before start")

	later := f.deps
	later.Clock = func() time.Time { return at(9, 5) }
	done, err := NewCompleteAppointment(later).Execute(ctx, provider, ap.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCompleted), done.Status)
}

// ======================================================
// LISTINGS
// ======================================================

func TestCalendarAndPatientListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.book(at(9, 0), "pat-1")
	require.NoError(t, err)
	_, err = f.book(at(10, 0), "pat-2")
	require.NoError(t, err)
	_, err = f.svc.Cancel.Execute(ctx, patient, a.ID)
	require.NoError(t, err)

	day, err := f.svc.ListByDate.Execute(ctx, provider, "prov-1", "2030-03-04", false)
	require.NoError(t, err)
	assert.Len(t, day, 1)

	all, err := f.svc.ListByDate.Execute(ctx, provider, "prov-1", "2030-03-04", true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	month, err := f.svc.ListByMonth.Execute(ctx, provider, "prov-1", 2030, 3)
	require.NoError(t, err)
	assert.Len(t, month, 1)

	_, err = f.svc.ListByDate.Execute(ctx, patient, "prov-1", "2030-03-04", false)
	assert.True(t, httperr.IsBusiness(err, httperr.CodeForbidden))

	mine, err := f.svc.ListForPatient.Execute(ctx, patient, "pat-1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, a.ID, mine[0].ID)

	_, err = f.svc.ListForPatient.Execute(ctx, patient, "pat-2")
	assert.True(t, httperr.IsBusiness(err, httperr.CodeForbidden))
}

// ======================================================
// SUGGESTIONS
// ======================================================

func TestSuggestSlotPrefersSpecialization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.svc.SuggestSlot.Execute(ctx, "orthodontics", 7)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "prov-2", s.Provider.ID)
	assert.True(t, s.Slot.Start.Equal(at(9, 0)))

	// no match falls back to every provider
	_, err = f.book(at(9, 0), "pat-1")
	require.NoError(t, err)
	s, err = f.svc.SuggestSlot.Execute(ctx, "dermatology", 7)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "prov-2", s.Provider.ID)
	assert.True(t, s.Slot.Start.Equal(at(9, 0)))
}

func TestSuggestSlotRollsToNextDay(t *testing.T) {
	f := newFixture(t)

	late := f.deps
	late.Clock = func() time.Time { return at(16, 45) }

	s, err := NewSuggestSlot(late).Execute(context.Background(), "general", 3)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "prov-1", s.Provider.ID)
	assert.True(t, s.Slot.Start.Equal(at(9, 0).AddDate(0, 0, 1)))
}
