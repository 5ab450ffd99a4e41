package types

import (
	"fmt"
	"time"

	ierr "github.com/clubroll/clubroll/internal/errors"
)

// MonthKey identifies a calendar month, e.g. 2026-04. Pause windows are
// persisted one row per covered month and keyed by MonthKey.
type MonthKey struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// MonthKeyFor returns the MonthKey of the month containing t.
func MonthKeyFor(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// ParseMonthKey parses a key in YYYY-MM form.
func ParseMonthKey(s string) (MonthKey, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return MonthKey{}, ierr.WithError(err).
			WithHintf("invalid month key %q, expected YYYY-MM", s).
			Mark(ierr.ErrValidation)
	}
	return MonthKeyFor(t), nil
}

func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

// Next returns the following calendar month.
func (k MonthKey) Next() MonthKey {
	return MonthKeyFor(k.Start().AddDate(0, 1, 0))
}

// Prev returns the preceding calendar month.
func (k MonthKey) Prev() MonthKey {
	return MonthKeyFor(k.Start().AddDate(0, -1, 0))
}

// Start returns midnight UTC on the first day of the month.
func (k MonthKey) Start() time.Time {
	return time.Date(k.Year, k.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns midnight UTC on the last day of the month.
func (k MonthKey) End() time.Time {
	return k.Start().AddDate(0, 1, -1)
}

// Days returns the number of calendar days in the month.
func (k MonthKey) Days() int {
	return k.End().Day()
}

// Before reports whether k is strictly earlier than other.
func (k MonthKey) Before(other MonthKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Month < other.Month
}

// After reports whether k is strictly later than other.
func (k MonthKey) After(other MonthKey) bool {
	return other.Before(k)
}

func (k MonthKey) Equal(other MonthKey) bool {
	return k.Year == other.Year && k.Month == other.Month
}

// IsZero reports whether k is the zero value.
func (k MonthKey) IsZero() bool {
	return k.Year == 0 && k.Month == 0
}

// MonthKeysInRange returns every month overlapped by the inclusive date
// range [start, end], in order.
func MonthKeysInRange(start, end time.Time) []MonthKey {
	var keys []MonthKey
	for k := MonthKeyFor(start); !k.After(MonthKeyFor(end)); k = k.Next() {
		keys = append(keys, k)
	}
	return keys
}
