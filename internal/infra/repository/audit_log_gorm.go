package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type AuditLogGormRepository struct {
	db *gorm.DB
}

func NewAuditLogGormRepository(db *gorm.DB) *AuditLogGormRepository {
	return &AuditLogGormRepository{db: db}
}

func (r *AuditLogGormRepository) CreateAuditLog(
	ctx context.Context,
	row *models.AuditLog,
) error {
	return httperr.Store("create audit log", r.db.WithContext(ctx).Create(row).Error)
}

func (r *AuditLogGormRepository) ListAuditLogs(
	ctx context.Context,
	f audit.Filter,
) ([]models.AuditLog, int64, error) {

	f.Normalize()

	// --------------------------------------------------
	// Base query, always scoped to the provider
	// --------------------------------------------------

	q := r.db.WithContext(ctx).
		Model(&models.AuditLog{}).
		Where("provider_id = ?", f.ProviderID)

	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.Entity != "" {
		q = q.Where("entity = ?", f.Entity)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, httperr.Store("count audit logs", err)
	}

	logs := []models.AuditLog{}
	if err := q.
		Order("created_at DESC").
		Limit(f.Limit).
		Offset(f.Offset()).
		Find(&logs).Error; err != nil {
		return nil, 0, httperr.Store("list audit logs", err)
	}

	return logs, total, nil
}

var _ audit.Store = (*AuditLogGormRepository)(nil)
