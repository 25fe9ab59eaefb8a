package timezone

import (
	"testing"
	"time"
)

func TestLocationFallsBackToDefault(t *testing.T) {
	if got := Location("Not/AZone").String(); got != DefaultTimezone {
		t.Fatalf("expected %s, got %s", DefaultTimezone, got)
	}
	if got := Location("America/Sao_Paulo").String(); got != "America/Sao_Paulo" {
		t.Fatalf("expected America/Sao_Paulo, got %s", got)
	}
}

func TestParseDateAndBounds(t *testing.T) {
	d, err := ParseDate("2026-10-20", "Europe/Berlin")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	start, end := DayBounds(d.Add(15 * time.Hour))
	if !start.Equal(d) {
		t.Fatalf("start mismatch: %s vs %s", start, d)
	}
	if FormatDate(end) != "2026-10-21" {
		t.Fatalf("unexpected end %s", end)
	}
	if _, err := ParseDate("20/10/2026", "UTC"); err == nil {
		t.Fatalf("expected parse error")
	}
}
