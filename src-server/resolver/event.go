package resolver

import (
	"encoding/json"
	"fmt"
	"time"
)

// CanonicalLayout is the naive local ISO-8601 form used on the wire and as
// the dedup key.
const CanonicalLayout = "2006-01-02T15:04:05"

var acceptedLayouts = []string{
	CanonicalLayout,
	"2006-01-02T15:04",
	time.RFC3339,
	"2006-01-02",
}

// ResolvedEvent is one calendar entry inferred from a syllabus line.
type ResolvedEvent struct {
	Title string
	Start time.Time
	// nil for deadlines and all-day events
	End        *time.Time
	AllDay     bool
	SourceLine string
}

type wireEvent struct {
	Title      string  `json:"title"`
	Start      string  `json:"start"`
	End        *string `json:"end,omitempty"`
	AllDay     bool    `json:"allDay"`
	SourceLine string  `json:"sourceLine"`
}

func (e ResolvedEvent) MarshalJSON() ([]byte, error) {
	w := wireEvent{
		Title:      e.Title,
		Start:      e.Start.Format(CanonicalLayout),
		AllDay:     e.AllDay,
		SourceLine: e.SourceLine,
	}
	if e.End != nil {
		end := e.End.Format(CanonicalLayout)
		w.End = &end
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts the canonical layout as well as RFC 3339 so edited
// events can be posted back for export. Naive values are read as local time.
func (e *ResolvedEvent) UnmarshalJSON(data []byte) error {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	start, err := ParseInstant(w.Start, time.Local)
	if err != nil {
		return fmt.Errorf("(*ResolvedEvent).UnmarshalJSON: start: %w", err)
	}
	*e = ResolvedEvent{
		Title:      w.Title,
		Start:      start,
		AllDay:     w.AllDay,
		SourceLine: w.SourceLine,
	}
	if w.End != nil && *w.End != "" {
		end, err := ParseInstant(*w.End, time.Local)
		if err != nil {
			return fmt.Errorf("(*ResolvedEvent).UnmarshalJSON: end: %w", err)
		}
		e.End = &end
	}
	return nil
}

// ParseInstant reads a timestamp in any of the accepted layouts.
func ParseInstant(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range acceptedLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func (e ResolvedEvent) dedupKey() string {
	return e.Title + "\x00" + e.Start.Format(CanonicalLayout)
}

// Dedupe keeps the first event for every (title, start) pair, in order.
func Dedupe(events []ResolvedEvent) []ResolvedEvent {
	seen := make(map[string]struct{}, len(events))
	out := make([]ResolvedEvent, 0, len(events))
	for _, event := range events {
		key := event.dedupKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, event)
	}
	return out
}
