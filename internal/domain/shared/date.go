package shared

import "time"

// DateLayout is the wire and storage layout for calendar dates
const DateLayout = "2006-01-02"

// TruncateToDate drops the clock part of t, keeping its calendar day in UTC
func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar day
func Today() time.Time {
	return TruncateToDate(time.Now())
}

// ParseDate parses a YYYY-MM-DD calendar date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, WrapDomainError("INVALID_DATE", "Date must use the YYYY-MM-DD format", err)
	}
	return t, nil
}
