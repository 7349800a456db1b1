package overtime_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/warp/overtime-engine/overtime"
)

// =============================================================================
// DURATION TESTS
// =============================================================================

func hours(minutes int64) decimal.Decimal {
	return decimal.NewFromInt(minutes).Div(decimal.NewFromInt(60))
}

func TestComputeDuration_SameDay(t *testing.T) {
	cases := []struct {
		start, end string
		wantMin    int64
	}{
		{"16:40", "19:00", 140},
		{"07:30", "16:40", 550},
		{"04:30", "06:50", 140},
		{"00:00", "23:59", 1439},
	}
	for _, tc := range cases {
		got, err := overtime.ComputeDuration(tc.start, tc.end)
		if err != nil {
			t.Fatalf("ComputeDuration(%s, %s) failed: %v", tc.start, tc.end, err)
		}
		if want := hours(tc.wantMin); !got.Equal(want) {
			t.Errorf("ComputeDuration(%s, %s) = %v, want %v", tc.start, tc.end, got, want)
		}
	}
}

func TestComputeDuration_OvernightWrap(t *testing.T) {
	// end < start means the shift crosses midnight:
	// duration = (1440 - start_min + end_min) / 60
	cases := []struct {
		start, end string
		wantMin    int64
	}{
		{"19:30", "04:30", 1440 - 19*60 - 30 + 4*60 + 30}, // 540 min = 9h
		{"19:30", "06:50", 1440 - 19*60 - 30 + 6*60 + 50},
		{"23:00", "01:00", 120},
		{"23:59", "00:00", 1},
	}
	for _, tc := range cases {
		got, err := overtime.ComputeDuration(tc.start, tc.end)
		if err != nil {
			t.Fatalf("ComputeDuration(%s, %s) failed: %v", tc.start, tc.end, err)
		}
		if want := hours(tc.wantMin); !got.Equal(want) {
			t.Errorf("ComputeDuration(%s, %s) = %v, want %v", tc.start, tc.end, got, want)
		}
	}
}

func TestComputeDuration_NineHourOffdayShift(t *testing.T) {
	got, err := overtime.ComputeDuration("19:30", "04:30")
	if err != nil {
		t.Fatalf("ComputeDuration failed: %v", err)
	}
	if want := decimal.NewFromInt(9); !got.Equal(want) {
		t.Errorf("shift2_offday duration = %v, want 9", got)
	}
}

func TestComputeDuration_EqualTimesIsZero(t *testing.T) {
	got, err := overtime.ComputeDuration("08:00", "08:00")
	if err != nil {
		t.Fatalf("ComputeDuration failed: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("equal start/end should yield 0, got %v", got)
	}
}

func TestComputeDuration_Malformed(t *testing.T) {
	cases := []struct {
		start, end string
	}{
		{"25:00", "08:00"},
		{"08:00", "08:60"},
		{"8am", "10:00"},
		{"", "10:00"},
		{"10:00", "10"},
	}
	for _, tc := range cases {
		_, err := overtime.ComputeDuration(tc.start, tc.end)
		if err == nil {
			t.Errorf("ComputeDuration(%q, %q) should fail", tc.start, tc.end)
			continue
		}
		if !errors.Is(err, overtime.ErrValidation) {
			t.Errorf("ComputeDuration(%q, %q) error should wrap ErrValidation, got %v", tc.start, tc.end, err)
		}
		var vErr *overtime.ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("ComputeDuration(%q, %q) should return a ValidationError with the field at fault", tc.start, tc.end)
		}
	}
}

func TestParseClock_RoundTrip(t *testing.T) {
	for _, s := range []string{"00:00", "07:30", "19:30", "23:59"} {
		min, err := overtime.ParseClock(s)
		if err != nil {
			t.Fatalf("ParseClock(%q) failed: %v", s, err)
		}
		if got := overtime.FormatClock(min); got != s {
			t.Errorf("FormatClock(ParseClock(%q)) = %q", s, got)
		}
	}
}
