package utils

import (
	"strings"
	"time"
	_ "time/tzdata"
)

const dateLayout = "2006-01-02"

// NicaraguaTimezone is the business calendar of the application.
const NicaraguaTimezone = "America/Managua"

// LoadLocation returns the named location, falling back to a fixed UTC-6 zone
// (Nicaragua does not observe daylight saving) when tz data is unavailable.
func LoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("CST", -6*60*60)
	}
	return loc
}

// DateOnly strips the clock from t, keeping t's own calendar day, as UTC midnight.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// LocalDate returns the calendar day of instant t in loc, as UTC midnight.
func LocalDate(t time.Time, loc *time.Location) time.Time {
	return DateOnly(t.In(loc))
}

// DaysBetween returns the number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(DateOnly(b).Sub(DateOnly(a)).Hours() / 24)
}

// DayBounds returns the UTC instants delimiting the local calendar day of t in loc.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start.UTC(), start.AddDate(0, 0, 1).Add(-time.Nanosecond).UTC()
}

// ParseDate parses a YYYY-MM-DD string as a calendar date. Longer ISO
// timestamps are accepted and keep only their date part.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	return time.Parse(dateLayout, s)
}
