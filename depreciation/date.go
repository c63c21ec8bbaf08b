package depreciation

import (
	"time"
)

// =============================================================================
// DATE - Day-granularity calendar date (all depreciation math is in days)
// =============================================================================

type Date struct {
	Time time.Time
}

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time.Time to its calendar day in UTC.
func DateOf(t time.Time) Date {
	return NewDate(t.UTC().Year(), t.UTC().Month(), t.UTC().Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.normalize().Before(other.normalize()) }
func (d Date) Equal(other Date) bool         { return d.normalize().Equal(other.normalize()) }
func (d Date) After(other Date) bool         { return d.normalize().After(other.normalize()) }
func (d Date) BeforeOrEqual(other Date) bool { return d.Before(other) || d.Equal(other) }
func (d Date) AfterOrEqual(other Date) bool  { return d.After(other) || d.Equal(other) }

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Properties
func (d Date) Year() int         { return d.Time.Year() }
func (d Date) Month() time.Month { return d.Time.Month() }
func (d Date) Day() int          { return d.Time.Day() }
func (d Date) IsZero() bool      { return d.Time.IsZero() }

// SameYearMonth reports whether two dates fall in the same calendar month.
func (d Date) SameYearMonth(other Date) bool {
	return d.Year() == other.Year() && d.Month() == other.Month()
}

func (d Date) String() string {
	return d.Time.Format("2006-01-02")
}

// =============================================================================
// MONTH ARITHMETIC - Anchored, day-clamped
// =============================================================================

// DaysInMonth returns the number of days in the given calendar month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonthsClamped advances d by n months, targeting anchorDay as the
// day-of-month and clamping to the last valid day when the target month
// is shorter. The anchor day is carried independently of d's own day so
// clamping never accumulates: an anchor of 31 lands on Feb 28 but still
// targets the 31st in March.
func AddMonthsClamped(d Date, anchorDay, n int) Date {
	// Normalize to the first of the month before adding so time.AddDate's
	// overflow behavior (Jan 31 + 1 month = Mar 3) never kicks in.
	first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)

	day := anchorDay
	if last := DaysInMonth(first.Year(), first.Month()); day > last {
		day = last
	}
	return NewDate(first.Year(), first.Month(), day)
}

// MonthsBetween returns the number of whole calendar months from 'from'
// to 'to'. A month counts as elapsed once the anchored (day-clamped)
// month-mark has been reached: from Jan 31, Feb 28 completes the first
// month even though 28 < 31.
func MonthsBetween(from, to Date) int {
	if to.Before(from) {
		return 0
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	// Partial month: the clamped month-mark in to's month not yet reached.
	mark := from.Day()
	if last := DaysInMonth(to.Year(), to.Month()); mark > last {
		mark = last
	}
	if to.Day() < mark {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
