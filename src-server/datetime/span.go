// Package datetime finds dates and clock times inside a line of text.
//
// The package is the date/time extraction capability consumed by the
// resolver: given a fragment and a reference date it returns candidate spans
// whose certainty flags tell which fields were written in the text and which
// were filled in from the reference.
package datetime

import "time"

// Which fields of an instant were read from the text.
type Certainty struct {
	Year   bool
	Month  bool
	Day    bool
	Hour   bool
	Minute bool
}

type Point struct {
	Time  time.Time
	Known Certainty
}

// CandidateSpan is one dated mention found in a text fragment. End is set
// only when the text contained a range.
type CandidateSpan struct {
	Index int
	Text  string
	Start Point
	End   *Point
}

type Extractor interface {
	// Extract returns zero or more spans found in text. Fields missing from
	// the text are taken from ref.
	Extract(text string, ref time.Time) []CandidateSpan
}

// ExtractorFunc adapts a plain function to the Extractor interface.
type ExtractorFunc func(text string, ref time.Time) []CandidateSpan

func (f ExtractorFunc) Extract(text string, ref time.Time) []CandidateSpan {
	return f(text, ref)
}

// ValidDate reports whether year/month/day names a real calendar day.
func ValidDate(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return int(t.Month()) == month && t.Day() == day
}
