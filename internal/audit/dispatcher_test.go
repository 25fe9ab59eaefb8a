package audit

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (s *recordingSink) Handle(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return s.err
}

type fakeStore struct {
	rows []models.AuditLog
}

func (s *fakeStore) CreateAuditLog(_ context.Context, row *models.AuditLog) error {
	s.rows = append(s.rows, *row)
	return nil
}

func (s *fakeStore) ListAuditLogs(context.Context, Filter) ([]models.AuditLog, int64, error) {
	return s.rows, int64(len(s.rows)), nil
}

func TestDispatcherFansOutAndDrainsOnClose(t *testing.T) {
	failing := &recordingSink{err: errors.New("sink down")}
	ok := &recordingSink{}

	d := NewDispatcher(nil, failing, ok)
	d.Dispatch(Event{Action: ActionBooked, EntityID: "ap-1"})
	d.Dispatch(Event{Action: ActionCancelled, EntityID: "ap-1"})
	d.Close()

	// a failing sink does not stop the others
	require.Len(t, ok.events, 2)
	assert.Equal(t, ActionBooked, ok.events[0].Action)
	assert.False(t, ok.events[0].At.IsZero())
	assert.Len(t, failing.events, 2)

	// dispatch after close is ignored, close is repeatable
	d.Dispatch(Event{Action: ActionBooked})
	d.Close()
	assert.Len(t, ok.events, 2)
}

func TestLoggerPersistsMetadataAsJSON(t *testing.T) {
	store := &fakeStore{}
	l := New(store)

	require.NoError(t, l.Handle(context.Background(), Event{
		ProviderID: "prov-1",
		ActorID:    "pat-1",
		Action:     ActionBooked,
		Entity:     "appointment",
		EntityID:   "ap-1",
		Metadata:   map[string]any{"reason": "General Checkup"},
	}))

	require.Len(t, store.rows, 1)
	assert.Equal(t, `{"reason":"General Checkup"}`, store.rows[0].Metadata)
	assert.Equal(t, "ap-1", store.rows[0].EntityID)
}

func TestFilterNormalize(t *testing.T) {
	f := Filter{Page: -1, Limit: 500}
	f.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 50, f.Limit)
	assert.Equal(t, 0, f.Offset())

	f = Filter{Page: 3, Limit: 20}
	f.Normalize()
	assert.Equal(t, 40, f.Offset())
}
