package record

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/pda/internal/domain"
)

// Date is a calendar date without time or zone. The zero value means unset.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// PlaceholderYear marks legacy records whose year was never known.
const PlaceholderYear = 1600

// ReplacementYear is what the fix sweep writes over PlaceholderYear.
const ReplacementYear = 1900

// NewDate builds a Date.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d == Date{}
}

// SameDay reports whether d and o share month and day, ignoring year.
func (d Date) SameDay(o Date) bool {
	return !d.IsZero() && d.Month == o.Month && d.Day == o.Day
}

// String formats the date as YYYY-MM-DD, or "" when unset.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// dateLayouts lists accepted input formats; MM/DD/YY is legacy form input.
var dateLayouts = []string{"2006-01-02", "01/02/06", "1/2/06", "01/02/2006", "1/2/2006"}

// ParseDate parses YYYY-MM-DD or a legacy MM/DD/YY date. Empty input is the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("failed to parse date %q, want YYYY-MM-DD: %w", s, domain.ErrInvalidInput)
}
