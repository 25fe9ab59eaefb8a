package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type ConfigGormRepository struct {
	db *gorm.DB
}

func NewConfigGormRepository(db *gorm.DB) *ConfigGormRepository {
	return &ConfigGormRepository{db: db}
}

func (r *ConfigGormRepository) GetConfig(
	ctx context.Context,
	providerID string,
) (*models.AvailabilityConfig, error) {

	var cfg models.AvailabilityConfig
	if err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.ErrNotFound("availability config")
		}
		return nil, httperr.Store("get config", err)
	}

	return &cfg, nil
}

// SaveConfig upserts in one statement; the version is bumped by the
// database and read back through RETURNING.
func (r *ConfigGormRepository) SaveConfig(
	ctx context.Context,
	cfg *models.AvailabilityConfig,
) error {

	now := time.Now()
	cfg.Version = 1
	cfg.UpdatedAt = now

	err := r.db.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns: []clause.Column{{Name: "provider_id"}},
				DoUpdates: clause.Assignments(map[string]any{
					"work_start":          cfg.WorkStart,
					"work_end":            cfg.WorkEnd,
					"slot_duration_min":   cfg.SlotDurationMin,
					"buffer_duration_min": cfg.BufferDurationMin,
					"mode":                cfg.Mode,
					"version":             gorm.Expr("availability_configs.version + 1"),
					"updated_at":          now,
				}),
			},
			clause.Returning{},
		).
		Create(cfg).Error

	return httperr.Store("save config", err)
}

var _ domain.ConfigStore = (*ConfigGormRepository)(nil)
