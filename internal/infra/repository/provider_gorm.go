package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type ProviderGormRepository struct {
	db *gorm.DB
}

func NewProviderGormRepository(db *gorm.DB) *ProviderGormRepository {
	return &ProviderGormRepository{db: db}
}

func (r *ProviderGormRepository) GetProvider(
	ctx context.Context,
	providerID string,
) (*models.Provider, error) {

	var p models.Provider
	if err := r.db.WithContext(ctx).
		Where("id = ?", providerID).
		First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.ErrNotFound("provider")
		}
		return nil, httperr.Store("get provider", err)
	}

	return &p, nil
}

func (r *ProviderGormRepository) ListProviders(
	ctx context.Context,
	specialization string,
) ([]models.Provider, error) {

	q := r.db.WithContext(ctx).Model(&models.Provider{})
	if specialization != "" {
		q = q.Where("LOWER(specialization) = LOWER(?)", specialization)
	}

	providers := []models.Provider{}
	if err := q.
		Order("name ASC, id ASC").
		Find(&providers).Error; err != nil {
		return nil, httperr.Store("list providers", err)
	}

	return providers, nil
}

func (r *ProviderGormRepository) SaveProvider(
	ctx context.Context,
	p *models.Provider,
) error {

	if p.ID == "" {
		return httperr.ErrValidation("provider id is required")
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "specialization", "timezone", "updated_at"}),
		}).
		Create(p).Error

	return httperr.Store("save provider", err)
}

var _ domain.ProviderDirectory = (*ProviderGormRepository)(nil)
