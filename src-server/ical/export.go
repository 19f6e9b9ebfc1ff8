// Package ical writes resolved syllabus events as an iCalendar (RFC 5545)
// file using arran4/golang-ical.
//
// Timed events are written as floating local date-times, all-day events as
// VALUE=DATE with an exclusive end on the following day.
//
// The export never reads the clock or a random source on its own: the
// timestamp and the UID generator come in through ExportOptions, so the same
// input always serializes the same way.
package ical

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"syllabical/src-server/resolver"
)

const (
	DefaultName   = "Syllabus"
	DefaultProdID = "-//syllabical//Syllabus Export//EN"

	uidDomain          = "syllabical"
	floatingLayout     = "20060102T150405"
	defaultTimedLength = 60 * time.Minute
)

type ExportOptions struct {
	// Display name written as X-WR-CALNAME. Defaults to DefaultName.
	Name string
	// DTSTAMP and CREATED of every event. Required.
	Now time.Time
	// Generates the local part of each UID. Defaults to uuid.NewString.
	NewUID func() string
	ProdID string
	// Skip writing the source line as DESCRIPTION.
	OmitSource bool
}

// Export serializes events into a single VCALENDAR.
func Export(events []resolver.ResolvedEvent, opts ExportOptions) (string, error) {
	if opts.Now.IsZero() {
		return "", fmt.Errorf("ical.Export: %w", NewCustomError("now not set", nil))
	}
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	if opts.ProdID == "" {
		opts.ProdID = DefaultProdID
	}
	if opts.NewUID == nil {
		opts.NewUID = uuid.NewString
	}

	cal := ics.NewCalendar()
	cal.SetProductId(opts.ProdID)
	cal.SetMethod(ics.MethodPublish)
	cal.SetXWRCalName(textValue(opts.Name))

	for i, event := range events {
		if err := validate(i, event); err != nil {
			return "", fmt.Errorf("ical.Export: %w", err)
		}
		vevent := cal.AddEvent(fmt.Sprintf("%s@%s", opts.NewUID(), uidDomain))
		vevent.SetDtStampTime(opts.Now)
		vevent.SetCreatedTime(opts.Now)
		vevent.SetProperty(ics.ComponentPropertySummary, textValue(event.Title))
		if !opts.OmitSource && event.SourceLine != "" {
			vevent.SetProperty(ics.ComponentPropertyDescription, textValue(event.SourceLine))
		}

		if event.AllDay {
			vevent.SetAllDayStartAt(event.Start)
			vevent.SetAllDayEndAt(allDayEnd(event))
			continue
		}
		end := event.Start.Add(defaultTimedLength)
		if event.End != nil {
			end = *event.End
		}
		vevent.SetProperty(ics.ComponentPropertyDtStart, event.Start.Format(floatingLayout))
		vevent.SetProperty(ics.ComponentPropertyDtEnd, end.Format(floatingLayout))
	}

	return cal.Serialize(ics.WithNewLineWindows), nil
}

func validate(index int, event resolver.ResolvedEvent) error {
	args := map[string]any{"index": index, "title": event.Title}
	switch {
	case event.Title == "":
		return NewCustomError(ErrTitleNotSet, args)
	case event.Start.IsZero():
		return NewCustomError(ErrStartNotSet, args)
	case !event.AllDay && event.End != nil && event.End.Before(event.Start):
		args["start"] = event.Start.Format(resolver.CanonicalLayout)
		args["end"] = event.End.Format(resolver.CanonicalLayout)
		return NewCustomError(ErrEndBeforeStart, args)
	}
	return nil
}

// allDayEnd is the exclusive DTEND: the day after the later of end and start.
func allDayEnd(event resolver.ResolvedEvent) time.Time {
	last := event.Start
	if event.End != nil && event.End.After(last) {
		last = *event.End
	}
	y, m, d := last.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, last.Location())
}
