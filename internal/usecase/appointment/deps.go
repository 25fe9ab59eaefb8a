package appointment

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	"github.com/BruksfildServices01/clinic-scheduler/internal/changes"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/availability"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/logger"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/observability/metrics"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

// Deps is shared by every scheduling use case. Changes, Audit and Metrics
// may be nil.
type Deps struct {
	Ledger    domain.Ledger
	Configs   domain.ConfigStore
	Providers domain.ProviderDirectory

	Changes *changes.Notifier
	Audit   *audit.Dispatcher
	Metrics *metrics.SchedulingMetrics
	Log     *zap.Logger

	Clock func() time.Time
}

func (d Deps) now() time.Time {
	if d.Clock != nil {
		return d.Clock()
	}
	return time.Now()
}

func (d Deps) logger() *zap.Logger {
	return logger.OrNop(d.Log)
}

// ======================================================
// SCHEDULE
// ======================================================

type schedule struct {
	provider *models.Provider
	loc      *time.Location
	cfg      availability.Config
}

// loadSchedule reads the provider and its current config. A provider that
// never saved a config gets the default working window.
func (d Deps) loadSchedule(ctx context.Context, providerID string) (*schedule, error) {
	p, err := d.Providers.GetProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}

	var cfg availability.Config

	row, err := d.Configs.GetConfig(ctx, providerID)
	switch {
	case err == nil:
		cfg, err = availability.FromModel(row)
		if err != nil {
			return nil, err
		}
	case httperr.IsBusiness(err, httperr.CodeNotFound):
		cfg = availability.DefaultConfig(providerID)
	default:
		return nil, err
	}

	return &schedule{
		provider: p,
		loc:      timezone.Location(p.Timezone),
		cfg:      cfg,
	}, nil
}

// slots generates the slot list for day's calendar date in the provider's zone.
func (s *schedule) slots(
	ctx context.Context,
	ledger domain.Ledger,
	day time.Time,
) ([]availability.Slot, error) {

	dayStart, dayEnd := timezone.DayBounds(day.In(s.loc))

	aps, err := ledger.ListAppointmentsForPeriod(ctx, s.provider.ID, dayStart, dayEnd, false)
	if err != nil {
		return nil, err
	}

	return availability.Generate(s.cfg, dayStart, aps), nil
}

func (d Deps) locationFor(ctx context.Context, providerID string) *time.Location {
	p, err := d.Providers.GetProvider(ctx, providerID)
	if err != nil {
		return timezone.Location("")
	}
	return timezone.Location(p.Timezone)
}

// touch advances the sync cursor for the appointment's provider and day.
func (d Deps) touch(ctx context.Context, ap *models.Appointment) {
	if d.Changes == nil {
		return
	}
	loc := d.locationFor(ctx, ap.ProviderID)
	d.Changes.Touch(ctx, ap.ProviderID, ap.StartTime.In(loc))
}

func (d Deps) dispatch(actor domain.Actor, action string, ap *models.Appointment, meta any) {
	d.Audit.Dispatch(audit.Event{
		ProviderID:  ap.ProviderID,
		ActorID:     actor.ID,
		Action:      action,
		Entity:      "appointment",
		EntityID:    ap.ID,
		Metadata:    meta,
		Appointment: ap,
	})
}
