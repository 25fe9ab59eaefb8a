package timezone

import (
	"sync/atomic"
	"time"
)

const (
	DefaultTimezone = "UTC"
	DateLayout      = "2006-01-02"
)

var fallback atomic.Value

// SetDefault changes the zone used when a provider has none or an invalid one.
func SetDefault(tz string) {
	if IsValid(tz) {
		fallback.Store(tz)
	}
}

func defaultZone() string {
	if v, ok := fallback.Load().(string); ok {
		return v
	}
	return DefaultTimezone
}

func IsValid(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

func Location(tz string) *time.Location {
	if IsValid(tz) {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}

	loc, err := time.LoadLocation(defaultZone())
	if err != nil {
		return time.UTC
	}
	return loc
}

func NowIn(tz string) time.Time {
	return time.Now().In(Location(tz))
}

// ParseDate parses YYYY-MM-DD as midnight in the given zone.
func ParseDate(dateStr, tz string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, dateStr, Location(tz))
}

// DayBounds returns [midnight, next midnight) of t's calendar day in t's location.
func DayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
