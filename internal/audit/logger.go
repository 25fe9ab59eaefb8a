package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type Filter struct {
	ProviderID string
	Action     string
	Entity     string
	From       *time.Time
	To         *time.Time
	Page       int
	Limit      int
}

// Normalize clamps paging to page >= 1 and 1..200 rows, default 50.
func (f *Filter) Normalize() {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
}

func (f Filter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type Store interface {
	CreateAuditLog(ctx context.Context, row *models.AuditLog) error
	ListAuditLogs(ctx context.Context, f Filter) ([]models.AuditLog, int64, error)
}

// Logger is the sink that persists events as audit_logs rows.
type Logger struct {
	store Store
}

func New(store Store) *Logger {
	return &Logger{store: store}
}

func (l *Logger) Handle(ctx context.Context, ev Event) error {
	var metaJSON string
	if ev.Metadata != nil {
		if b, err := json.Marshal(ev.Metadata); err == nil {
			metaJSON = string(b)
		}
	}

	row := models.AuditLog{
		ProviderID: ev.ProviderID,
		ActorID:    ev.ActorID,
		Action:     ev.Action,
		Entity:     ev.Entity,
		EntityID:   ev.EntityID,
		Metadata:   metaJSON,
		CreatedAt:  ev.At,
	}

	return l.store.CreateAuditLog(ctx, &row)
}
