// Package notify emits the "new booking" event. Delivery to providers
// (alerts, badges) belongs to whoever subscribes to the channel.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	"github.com/BruksfildServices01/clinic-scheduler/internal/logger"
)

const TypeNewBooking = "appointment.booked"

type BookingEvent struct {
	Type          string    `json:"type"`
	AppointmentID string    `json:"appointment_id"`
	ProviderID    string    `json:"provider_id"`
	PatientID     string    `json:"patient_id"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Reason        string    `json:"reason"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// bookingFrom returns the event for a successful reservation, or false for
// any other audit action.
func bookingFrom(ev audit.Event) (BookingEvent, bool) {
	if ev.Action != audit.ActionBooked || ev.Appointment == nil {
		return BookingEvent{}, false
	}
	ap := ev.Appointment
	return BookingEvent{
		Type:          TypeNewBooking,
		AppointmentID: ap.ID,
		ProviderID:    ap.ProviderID,
		PatientID:     ap.PatientID,
		Start:         ap.StartTime,
		End:           ap.EndTime,
		Reason:        ap.Reason,
		OccurredAt:    ev.At,
	}, true
}

// RedisPublisher publishes booking events on a pub/sub channel.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewRedisPublisher(rdb *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel}
}

func (p *RedisPublisher) Handle(ctx context.Context, ev audit.Event) error {
	booking, ok := bookingFrom(ev)
	if !ok {
		return nil
	}

	payload, err := json.Marshal(booking)
	if err != nil {
		return err
	}

	return p.rdb.Publish(ctx, p.channel, payload).Err()
}

// LogPublisher writes booking events to the log; used when redis is off.
type LogPublisher struct {
	log *zap.Logger
}

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	return &LogPublisher{log: logger.OrNop(log)}
}

func (p *LogPublisher) Handle(_ context.Context, ev audit.Event) error {
	booking, ok := bookingFrom(ev)
	if !ok {
		return nil
	}

	p.log.Info("new booking",
		zap.String("appointment_id", booking.AppointmentID),
		zap.String("provider_id", booking.ProviderID),
		zap.Time("start", booking.Start),
	)
	return nil
}

var (
	_ audit.Sink = (*RedisPublisher)(nil)
	_ audit.Sink = (*LogPublisher)(nil)
)
