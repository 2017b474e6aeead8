package history

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Range names a chart lookback window.
type Range string

const (
	RangeDay   Range = "1d"
	RangeWeek  Range = "1w"
	RangeMonth Range = "1m"
)

// ParseRange maps user input to a Range, case-insensitively.
func ParseRange(s string) (Range, error) {
	switch Range(strings.ToLower(strings.TrimSpace(s))) {
	case RangeDay:
		return RangeDay, nil
	case RangeWeek:
		return RangeWeek, nil
	case RangeMonth:
		return RangeMonth, nil
	default:
		return "", errors.Errorf("unknown chart range %q, want 1d, 1w or 1m", s)
	}
}

// Start returns the beginning of the window ending at now. The month
// range follows the calendar rather than a fixed number of hours.
func (r Range) Start(now time.Time) time.Time {
	switch r {
	case RangeDay:
		return now.Add(-24 * time.Hour)
	case RangeWeek:
		return now.AddDate(0, 0, -7)
	case RangeMonth:
		return now.AddDate(0, -1, 0)
	default:
		return now.Add(-24 * time.Hour)
	}
}
