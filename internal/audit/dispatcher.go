package audit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/clinic-scheduler/internal/logger"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

const (
	ActionBooked        = "appointment_booked"
	ActionConflict      = "appointment_conflict"
	ActionCancelled     = "appointment_cancelled"
	ActionConfirmed     = "appointment_confirmed"
	ActionCompleted     = "appointment_completed"
	ActionConfigUpdated = "availability_config_updated"
	ActionEscalated     = "triage_escalated"
)

type Event struct {
	ProviderID string
	ActorID    string
	Action     string
	Entity     string
	EntityID   string
	Metadata   any
	At         time.Time

	// Appointment is set for appointment actions; sinks that need the
	// full record read it from here.
	Appointment *models.Appointment
}

type Sink interface {
	Handle(ctx context.Context, ev Event) error
}

// Dispatcher hands events to its sinks on a single worker so request paths
// never wait on audit writes or notification delivery.
type Dispatcher struct {
	sinks []Sink
	queue chan Event
	log   *zap.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewDispatcher(log *zap.Logger, sinks ...Sink) *Dispatcher {
	d := &Dispatcher{
		sinks: sinks,
		queue: make(chan Event, 100),
		log:   logger.OrNop(log),
		done:  make(chan struct{}),
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer close(d.done)

	for ev := range d.queue {
		for _, s := range d.sinks {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := s.Handle(ctx, ev); err != nil {
				d.log.Error("audit sink failed",
					zap.String("action", ev.Action),
					zap.String("entity_id", ev.EntityID),
					zap.Error(err),
				)
			}
			cancel()
		}
	}
}

func (d *Dispatcher) Dispatch(ev Event) {
	if d == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return
	}

	select {
	case d.queue <- ev:
	default:
		// queue full: drop, never fail the request
		d.log.Warn("audit queue full, dropping event", zap.String("action", ev.Action))
	}
}

// Close stops accepting events and waits for queued ones to drain.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	<-d.done
}
