package overtime

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CLOCK TIME - HH:MM wall-clock strings, no timezone, no date
// =============================================================================

const minutesPerDay = 24 * 60

var sixty = decimal.NewFromInt(60)

// ParseClock converts an "HH:MM" string to minutes since midnight.
func ParseClock(s string) (int, error) {
	h, m, ok := splitClock(s)
	if !ok {
		return 0, fmt.Errorf("malformed time %q, want HH:MM", s)
	}
	return h*60 + m, nil
}

func splitClock(s string) (hour, min int, ok bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}

// FormatClock converts minutes since midnight back to "HH:MM",
// wrapping past midnight.
func FormatClock(minutes int) string {
	minutes %= minutesPerDay
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// =============================================================================
// DURATION - Overnight-aware elapsed hours
// =============================================================================

// ComputeDuration returns the elapsed hours between two wall-clock
// times. When end is before start the shift crosses midnight and a full
// day is added before subtracting. start == end yields exactly zero;
// callers must reject that as a degenerate submission.
func ComputeDuration(start, end string) (decimal.Decimal, error) {
	s, err := ParseClock(start)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "start_time", Message: err.Error()}
	}
	e, err := ParseClock(end)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "end_time", Message: err.Error()}
	}
	if e < s {
		e += minutesPerDay
	}
	return decimal.NewFromInt(int64(e - s)).Div(sixty), nil
}
