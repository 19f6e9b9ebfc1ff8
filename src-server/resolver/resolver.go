// Package resolver turns syllabus text into calendar events.
//
// Every line goes through the same steps: the lexical filter, date/time
// extraction, year and certainty checks, then the end-time policy that
// separates deadlines, timed events and all-day events. A line that cannot
// be resolved is dropped without a diagnostic; Resolve never fails.
package resolver

import (
	"fmt"
	"log/slog"
	"time"

	"syllabical/src-server/datetime"
	"syllabical/src-server/linescan"
)

const (
	DefaultDurationMinutes = 60
	DefaultDeadlineTime    = "23:59"
	FallbackTitle          = "Course Event"
)

type Options struct {
	// Year used whenever a line does not spell one out.
	FallbackYear int
	// Length of timed, non-deadline events without an explicit end.
	DefaultDurationMinutes int
	// "HH:MM" appended to deadlines that carry no time. Empty disables it.
	DefaultTime string
	// Location of the naive local instants produced. Defaults to time.Local.
	Location *time.Location
}

// Stats counts what happened to a batch of lines.
type Stats struct {
	Lines    int
	Filtered int
	Resolved int
	Events   int
}

type Resolver struct {
	extractor datetime.Extractor
	opts      Options
}

func New(extractor datetime.Extractor, opts Options) *Resolver {
	if opts.DefaultDurationMinutes <= 0 {
		opts.DefaultDurationMinutes = DefaultDurationMinutes
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.DefaultTime != "" {
		if _, err := time.Parse("15:04", opts.DefaultTime); err != nil {
			slog.Warn("ignoring invalid default deadline time", "default_time", opts.DefaultTime, "error", err)
			opts.DefaultTime = ""
		}
	}
	return &Resolver{extractor: extractor, opts: opts}
}

func (r *Resolver) Options() Options {
	return r.opts
}

// Resolve runs the whole pipeline over text and returns the deduplicated
// events in input order. It never returns nil.
func (r *Resolver) Resolve(text string) []ResolvedEvent {
	events, _ := r.ResolveWithStats(text)
	return events
}

func (r *Resolver) ResolveWithStats(text string) (events []ResolvedEvent, stats Stats) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("resolver fault, returning no events", "panic", rec)
			events = []ResolvedEvent{}
		}
	}()

	lines := linescan.Lines(text)
	stats.Lines = len(lines)
	resolved := make([]ResolvedEvent, 0, len(lines))
	for _, line := range lines {
		if !linescan.IsEventLine(line) {
			continue
		}
		stats.Filtered++
		event, ok := r.safeResolveLine(line)
		if !ok {
			continue
		}
		resolved = append(resolved, event)
	}
	stats.Resolved = len(resolved)
	events = Dedupe(resolved)
	stats.Events = len(events)
	return events, stats
}

func (r *Resolver) safeResolveLine(line string) (event ResolvedEvent, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Warn("skipping line after fault", "line", line, "panic", fmt.Sprint(rec))
			event, ok = ResolvedEvent{}, false
		}
	}()
	return r.ResolveLine(line)
}

func (r *Resolver) reference() time.Time {
	return time.Date(r.opts.FallbackYear, time.January, 1, 0, 0, 0, 0, r.opts.Location)
}

func (r *Resolver) extract(text string) (datetime.CandidateSpan, bool) {
	spans := r.extractor.Extract(text, r.reference())
	if len(spans) == 0 {
		return datetime.CandidateSpan{}, false
	}
	return spans[0], true
}

// ResolveLine resolves a single, already filtered line.
func (r *Resolver) ResolveLine(line string) (ResolvedEvent, bool) {
	isDeadline := linescan.IsDeadline(line)
	hasTimeToken := linescan.HasTimeToken(line)

	span, found := r.extract(line)

	// "HW1 due 10/2" means 23:59 on 10/2 rather than an all-day deadline
	if isDeadline && !hasTimeToken && r.opts.DefaultTime != "" {
		switch {
		case !found:
			if retried, ok := r.extract(line + " " + r.opts.DefaultTime); ok {
				span, found = retried, true
			}
		case !(span.Start.Known.Hour || span.Start.Known.Minute):
			span.Start = r.atDefaultTime(span.Start)
		}
	}
	if !found {
		slog.Debug("no date in line", "line", line)
		return ResolvedEvent{}, false
	}
	if !span.Start.Known.Month || !span.Start.Known.Day {
		slog.Debug("month or day not certain", "line", line)
		return ResolvedEvent{}, false
	}

	start := span.Start.Time
	if !span.Start.Known.Year {
		var ok bool
		if start, ok = withYear(start, r.opts.FallbackYear); !ok {
			return ResolvedEvent{}, false
		}
	}

	var end *time.Time
	if span.End != nil {
		e := span.End.Time
		ok := true
		if !span.End.Known.Year {
			// shift by the start's correction so a range past midnight on
			// Dec 31 still ends in the next year
			e, ok = withYear(e, e.Year()+start.Year()-span.Start.Time.Year())
		}
		if ok && !e.Before(start) {
			end = &e
		}
	}

	hasTime := span.Start.Known.Hour || span.Start.Known.Minute || end != nil || hasTimeToken

	event := ResolvedEvent{
		Start:      start,
		SourceLine: line,
	}
	switch {
	case end != nil:
		event.End = end
	case hasTime && isDeadline:
	case hasTime:
		e := start.Add(time.Duration(r.opts.DefaultDurationMinutes) * time.Minute)
		event.End = &e
	default:
		event.AllDay = true
	}

	event.Title = linescan.ExtractTitle(line)
	if event.Title == "" {
		event.Title = FallbackTitle
	}
	return event, true
}

// atDefaultTime sets the configured deadline time on a point that has a
// date but no time of day.
func (r *Resolver) atDefaultTime(p datetime.Point) datetime.Point {
	clock, err := time.Parse("15:04", r.opts.DefaultTime)
	if err != nil {
		return p
	}
	y, m, d := p.Time.Date()
	p.Time = time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, p.Time.Location())
	p.Known.Hour, p.Known.Minute = true, true
	return p
}

// withYear moves t to year, reporting false when the day does not exist
// there (Feb 29).
func withYear(t time.Time, year int) (time.Time, bool) {
	out := time.Date(year, t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	return out, out.Month() == t.Month() && out.Day() == t.Day()
}
