package detect

import (
	"time"
)

// Period is one calendar month, the time grain of every observation.
// Internally a period is always the first day of its month.
type Period struct {
	Year  int
	Month time.Month
}

// NewPeriod builds a Period from numeric year and month.
func NewPeriod(year, month int) Period {
	return Period{Year: year, Month: time.Month(month)}
}

// Valid reports whether the period denotes a real calendar month.
func (p Period) Valid() bool {
	return p.Year > 0 && p.Month >= time.January && p.Month <= time.December
}

// Before orders periods chronologically.
func (p Period) Before(q Period) bool {
	if p.Year != q.Year {
		return p.Year < q.Year
	}
	return p.Month < q.Month
}

// FirstDay returns the period as a first-of-month timestamp (UTC).
func (p Period) FirstDay() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// String renders the canonical column label, e.g. "2025-03".
func (p Period) String() string {
	return p.FirstDay().Format("2006-01")
}

// periodLayouts are the accepted header spellings for a calendar period.
// Zero-padded layouts come first; Go's lenient numeric parsing makes the
// unpadded variants accept both forms.
var periodLayouts = []string{
	"2006-01",
	"2006-1",
	"2006/01",
	"2006/1",
	"01/2006",
	"1/2006",
	"2006-01-02",
	"02/01/2006",
	"Jan 2006",
	"January 2006",
	"2006-Jan",
	"Jan-06",
}

// ParsePeriod parses a column header or cell into a Period. Day-level inputs
// are truncated to their month. Returns false for anything that is not a
// calendar period (including bare sequence numbers like "1" or "2").
func ParsePeriod(s string) (Period, bool) {
	for _, layout := range periodLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Period{Year: t.Year(), Month: t.Month()}, true
		}
	}
	return Period{}, false
}
