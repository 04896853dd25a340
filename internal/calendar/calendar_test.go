package calendar

import (
	"testing"
	"time"
)

func TestDayOfUsesLocation(t *testing.T) {
	la, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	// 2024-06-01 05:00 UTC is still May 31 in Los Angeles.
	instant := time.Date(2024, 6, 1, 5, 0, 0, 0, time.UTC)

	if got, want := DayOf(instant, time.UTC), FromDate(2024, time.June, 1); got != want {
		t.Errorf("DayOf(UTC) = %d, want %d", got, want)
	}
	if got, want := DayOf(instant, la), FromDate(2024, time.May, 31); got != want {
		t.Errorf("DayOf(LA) = %d, want %d", got, want)
	}
	if got := LocalHour(instant, la); got != 22 {
		t.Errorf("LocalHour(LA) = %d, want 22", got)
	}
}

func TestDayRoundTrip(t *testing.T) {
	tests := []string{"1970-01-01", "2000-02-29", "2024-12-31", "2031-03-09"}

	for _, iso := range tests {
		t.Run(iso, func(t *testing.T) {
			d, err := ParseISO(iso)
			if err != nil {
				t.Fatalf("ParseISO(%q): %v", iso, err)
			}
			if d.ISO() != iso {
				t.Errorf("round trip = %q, want %q", d.ISO(), iso)
			}
			if DayOf(d.Start(time.UTC), time.UTC) != d {
				t.Errorf("Start(%q) does not map back to the same day", iso)
			}
		})
	}
}

func TestHourOfIsContiguousAcrossMidnight(t *testing.T) {
	before := time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)
	after := before.Add(time.Hour)

	if HourOf(after, time.UTC)-HourOf(before, time.UTC) != 1 {
		t.Errorf("hour numbers are not contiguous across midnight: %d -> %d",
			HourOf(before, time.UTC), HourOf(after, time.UTC))
	}
	if FromDate(1970, time.January, 2) != 1 {
		t.Errorf("FromDate(1970-01-02) = %d, want 1", FromDate(1970, time.January, 2))
	}
}
