package datetime

import (
	"log/slog"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules"
)

// Matches further apart than this many bytes are not merged into one span.
const clusterDistance = 48

// WhenExtractor finds syllabus style dates ("Sep 19", "10/02") and clock
// times ("11:59pm", "1:30-3:00 pm") with the olebedev/when parser. Slash
// dates are read month first.
type WhenExtractor struct {
	options *rules.Options
}

func NewWhenExtractor() *WhenExtractor {
	return &WhenExtractor{
		options: &rules.Options{
			Distance: clusterDistance,
		},
	}
}

// Extract returns at most one span: the first cluster of adjacent date and
// time mentions in text.
func (e *WhenExtractor) Extract(text string, ref time.Time) []CandidateSpan {
	// rules close over the accumulator, so a parser is built per call
	acc := new(accumulator)
	parser := when.New(e.options)
	parser.Add(newRules(acc)...)

	result, err := parser.Parse(text, ref)
	switch {
	case err != nil:
		slog.Debug("can't parse date", "text", text, "error", err)
		return nil
	case result == nil:
		return nil
	}

	span, ok := acc.span(result.Time, ref)
	if !ok {
		return nil
	}
	span.Index = result.Index
	span.Text = result.Text
	return []CandidateSpan{span}
}

// span turns what the rules read into a CandidateSpan. Fields the text did
// not mention are taken from merged, the time the when parser produced.
func (acc *accumulator) span(merged, ref time.Time) (CandidateSpan, bool) {
	var known Certainty
	year, month, day := merged.Year(), int(merged.Month()), merged.Day()
	hour, minute := merged.Hour(), merged.Minute()
	if acc.year != nil {
		year, known.Year = *acc.year, true
	}
	if acc.month != nil && acc.day != nil {
		month, day = *acc.month, *acc.day
		known.Month, known.Day = true, true
	}
	if acc.hour != nil {
		hour, known.Hour = *acc.hour, true
	}
	if acc.minute != nil {
		minute = *acc.minute
		known.Minute = acc.minuteKnown
	}
	if !ValidDate(year, month, day) {
		return CandidateSpan{}, false
	}

	loc := ref.Location()
	span := CandidateSpan{
		Start: Point{
			Time:  time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc),
			Known: known,
		},
	}
	if acc.ranged {
		end := time.Date(year, time.Month(month), day, acc.endHour, acc.endMinute, 0, 0, loc)
		if end.Before(span.Start.Time) {
			end = end.AddDate(0, 0, 1)
		}
		endKnown := known
		endKnown.Hour, endKnown.Minute = true, true
		span.End = &Point{Time: end, Known: endKnown}
	}
	return span, true
}
