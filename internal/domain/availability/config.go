// Package availability turns a provider's working hours into bookable slots.
package availability

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type Mode string

const (
	// ModeContinuous packs slots back to back; the buffer is always zero.
	ModeContinuous Mode = "continuous"
	// ModeInterleaved inserts BufferDuration after every slot.
	ModeInterleaved Mode = "interleaved"
)

func (m Mode) Valid() bool {
	return m == ModeContinuous || m == ModeInterleaved
}

// TimeOfDay is a wall-clock time expressed in minutes after midnight.
type TimeOfDay int

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(mm) != 2 {
		return 0, httperr.ErrValidation(fmt.Sprintf("invalid time of day %q, expected HH:MM", s))
	}
	h, err1 := strconv.Atoi(hh)
	m, err2 := strconv.Atoi(mm)
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, httperr.ErrValidation(fmt.Sprintf("invalid time of day %q, expected HH:MM", s))
	}
	return NewTimeOfDay(h, m), nil
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	v, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// On anchors t to the calendar day of date, in date's location.
func (t TimeOfDay) On(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location())
}

type Config struct {
	ProviderID     string
	WorkStart      TimeOfDay
	WorkEnd        TimeOfDay
	SlotDuration   time.Duration
	BufferDuration time.Duration
	Mode           Mode
	Version        int64
}

// DefaultConfig mirrors the settings screen defaults.
func DefaultConfig(providerID string) Config {
	return Config{
		ProviderID:     providerID,
		WorkStart:      NewTimeOfDay(9, 0),
		WorkEnd:        NewTimeOfDay(17, 0),
		SlotDuration:   30 * time.Minute,
		BufferDuration: 5 * time.Minute,
		Mode:           ModeInterleaved,
	}
}

// Normalize forces the buffer to zero in continuous mode.
func (c Config) Normalize() Config {
	if c.Mode == "" {
		c.Mode = ModeContinuous
	}
	if c.Mode == ModeContinuous {
		c.BufferDuration = 0
	}
	return c
}

func (c Config) Validate() error {
	if c.ProviderID == "" {
		return httperr.ErrValidation("provider_id is required")
	}
	if !c.Mode.Valid() {
		return httperr.ErrValidation(fmt.Sprintf("mode must be %q or %q", ModeContinuous, ModeInterleaved))
	}
	if c.WorkEnd <= c.WorkStart {
		return httperr.ErrValidation("work_end must be after work_start")
	}
	if c.SlotDuration <= 0 {
		return httperr.ErrValidation("slot_duration must be positive")
	}
	if c.SlotDuration%time.Minute != 0 || c.BufferDuration%time.Minute != 0 {
		return httperr.ErrValidation("durations must be whole minutes")
	}
	if c.BufferDuration < 0 {
		return httperr.ErrValidation("buffer_duration must not be negative")
	}
	if c.Mode == ModeContinuous && c.BufferDuration != 0 {
		return httperr.ErrValidation("continuous mode does not allow a buffer")
	}
	return nil
}

// Step is the distance between consecutive slot starts.
func (c Config) Step() time.Duration {
	if c.Mode == ModeContinuous || c.BufferDuration < 0 {
		return c.SlotDuration
	}
	return c.SlotDuration + c.BufferDuration
}

func FromModel(row *models.AvailabilityConfig) (Config, error) {
	start, err := ParseTimeOfDay(row.WorkStart)
	if err != nil {
		return Config{}, err
	}
	end, err := ParseTimeOfDay(row.WorkEnd)
	if err != nil {
		return Config{}, err
	}

	return Config{
		ProviderID:     row.ProviderID,
		WorkStart:      start,
		WorkEnd:        end,
		SlotDuration:   time.Duration(row.SlotDurationMin) * time.Minute,
		BufferDuration: time.Duration(row.BufferDurationMin) * time.Minute,
		Mode:           Mode(row.Mode),
		Version:        row.Version,
	}.Normalize(), nil
}

func (c Config) ToModel() *models.AvailabilityConfig {
	return &models.AvailabilityConfig{
		ProviderID:        c.ProviderID,
		WorkStart:         c.WorkStart.String(),
		WorkEnd:           c.WorkEnd.String(),
		SlotDurationMin:   int(c.SlotDuration / time.Minute),
		BufferDurationMin: int(c.BufferDuration / time.Minute),
		Mode:              string(c.Mode),
		Version:           c.Version,
	}
}
