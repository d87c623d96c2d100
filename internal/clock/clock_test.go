package clock

import (
	"testing"
	"time"
)

func TestKeys(t *testing.T) {
	ts := time.Date(2026, 3, 7, 23, 59, 0, 0, time.UTC)
	if got := DayKey(ts); got != "2026-03-07" {
		t.Errorf("DayKey = %q, want %q", got, "2026-03-07")
	}
	if got := PeriodKey(ts); got != "2026-03" {
		t.Errorf("PeriodKey = %q, want %q", got, "2026-03")
	}
}

func TestPreviousPeriod(t *testing.T) {
	tests := []struct {
		in   time.Time
		want string
	}{
		{time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), "2026-02"},
		{time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "2025-12"},
	}
	for _, tt := range tests {
		if got := PreviousPeriod(tt.in); got != tt.want {
			t.Errorf("PreviousPeriod(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDaysBetweenAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	a := time.Date(2026, 3, 7, 12, 0, 0, 0, loc)
	b := time.Date(2026, 3, 9, 0, 30, 0, 0, loc)
	if got := DaysBetween(a, b); got != 2 {
		t.Errorf("DaysBetween = %d, want 2", got)
	}
	if got := DaysBetween(b, a); got != -2 {
		t.Errorf("DaysBetween reversed = %d, want -2", got)
	}
}

func TestParseDay(t *testing.T) {
	got, err := ParseDay("2026-02-28", time.UTC)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !got.Equal(time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ParseDay = %v", got)
	}
	if _, err := ParseDay("28/02/2026", time.UTC); err == nil {
		t.Error("expected error for malformed day")
	}
}
