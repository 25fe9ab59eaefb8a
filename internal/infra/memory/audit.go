package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type AuditLogStore struct {
	mu     sync.RWMutex
	nextID uint
	rows   []models.AuditLog
}

func NewAuditLogStore() *AuditLogStore {
	return &AuditLogStore{}
}

func (s *AuditLogStore) CreateAuditLog(_ context.Context, row *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	row.ID = s.nextID
	s.rows = append(s.rows, *row)
	return nil
}

func (s *AuditLogStore) ListAuditLogs(_ context.Context, f audit.Filter) ([]models.AuditLog, int64, error) {
	f.Normalize()

	s.mu.RLock()
	matched := []models.AuditLog{}
	for _, row := range s.rows {
		if row.ProviderID != f.ProviderID {
			continue
		}
		if f.Action != "" && row.Action != f.Action {
			continue
		}
		if f.Entity != "" && row.Entity != f.Entity {
			continue
		}
		if f.From != nil && row.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && !row.CreatedAt.Before(*f.To) {
			continue
		}
		matched = append(matched, row)
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	from := f.Offset()
	if from >= len(matched) {
		return []models.AuditLog{}, total, nil
	}
	to := from + f.Limit
	if to > len(matched) {
		to = len(matched)
	}

	return matched[from:to], total, nil
}

var _ audit.Store = (*AuditLogStore)(nil)
