package appointment

import (
	"context"
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/availability"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
)

// ======================================================
// GET
// ======================================================

type GetAvailabilityConfig struct {
	deps Deps
}

func NewGetAvailabilityConfig(deps Deps) *GetAvailabilityConfig {
	return &GetAvailabilityConfig{deps: deps}
}

// Execute returns the stored config, or the defaults with version 0 when the
// provider never saved one.
func (uc *GetAvailabilityConfig) Execute(
	ctx context.Context,
	providerID string,
) (availability.Config, error) {

	sched, err := uc.deps.loadSchedule(ctx, providerID)
	if err != nil {
		return availability.Config{}, err
	}
	return sched.cfg, nil
}

// ======================================================
// PUT
// ======================================================

type ConfigInput struct {
	ProviderID     string
	WorkStart      string
	WorkEnd        string
	SlotDuration   int
	BufferDuration int
	Mode           string
}

type UpdateAvailabilityConfig struct {
	deps Deps
}

func NewUpdateAvailabilityConfig(deps Deps) *UpdateAvailabilityConfig {
	return &UpdateAvailabilityConfig{deps: deps}
}

// Execute validates before touching the store. Existing appointments keep
// their times; only later slot generation sees the new config.
func (uc *UpdateAvailabilityConfig) Execute(
	ctx context.Context,
	actor domain.Actor,
	in ConfigInput,
) (availability.Config, error) {

	if !actor.ActsFor(in.ProviderID) {
		return availability.Config{}, domain.ErrForbidden("change this provider's availability")
	}

	cfg, err := parseConfigInput(in)
	if err != nil {
		return availability.Config{}, err
	}

	if _, err := uc.deps.Providers.GetProvider(ctx, in.ProviderID); err != nil {
		return availability.Config{}, err
	}

	row := cfg.ToModel()
	if err := uc.deps.Configs.SaveConfig(ctx, row); err != nil {
		return availability.Config{}, err
	}
	cfg.Version = row.Version

	if uc.deps.Changes != nil {
		uc.deps.Changes.TouchConfig(ctx, in.ProviderID)
	}

	uc.deps.Audit.Dispatch(audit.Event{
		ProviderID: in.ProviderID,
		ActorID:    actor.ID,
		Action:     audit.ActionConfigUpdated,
		Entity:     "availability_config",
		EntityID:   in.ProviderID,
		Metadata:   row,
	})

	return cfg, nil
}

func parseConfigInput(in ConfigInput) (availability.Config, error) {
	start, err := availability.ParseTimeOfDay(in.WorkStart)
	if err != nil {
		return availability.Config{}, err
	}
	end, err := availability.ParseTimeOfDay(in.WorkEnd)
	if err != nil {
		return availability.Config{}, err
	}
	if in.BufferDuration < 0 {
		return availability.Config{}, httperr.ErrValidation("buffer_duration must not be negative")
	}

	cfg := availability.Config{
		ProviderID:     in.ProviderID,
		WorkStart:      start,
		WorkEnd:        end,
		SlotDuration:   time.Duration(in.SlotDuration) * time.Minute,
		BufferDuration: time.Duration(in.BufferDuration) * time.Minute,
		Mode:           availability.Mode(in.Mode),
	}.Normalize()

	if err := cfg.Validate(); err != nil {
		return availability.Config{}, err
	}
	return cfg, nil
}
