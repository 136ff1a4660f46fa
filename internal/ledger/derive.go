package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RecomputeOrderTotal returns Σ(price × count) over the given lines. Every
// mutation of an item order stores exactly this value.
func RecomputeOrderTotal(lines []*OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Total())
	}

	return total
}

// Day truncates t to midnight in t's own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return Day(a.In(loc)).Equal(Day(b.In(loc)))
}

// ParseLineDate accepts a calendar date (YYYY-MM-DD) or a full RFC 3339
// timestamp. Bare dates are placed at midnight in loc.
func ParseLineDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)

	if t, err := time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		return t, nil
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}

	if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, loc); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("invalid date format %q, use YYYY-MM-DD", s)
}

// FormatAmount renders a money amount with two decimals.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
