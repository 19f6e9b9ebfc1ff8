package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"syllabical/src-server/resolver"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID         string `bun:"id,pk,notnull"`       // required
	CalendarID string `bun:"calendar_id,notnull"` // required
	Position   int    `bun:"position,notnull"`    // required
	Title      string `bun:"title,notnull"`       // required
	StartDate  string `bun:"start_date,notnull"`  // required, naive local
	EndDate    string `bun:"end_date,nullzero"`   // naive local
	AllDay     bool   `bun:"all_day,notnull"`
	SourceLine string `bun:"source_line,notnull"`

	Calendar *Calendar `bun:"rel:belongs-to,join:calendar_id=id"`
}

// NewEvent stores a resolved event at position within calendarID. Times are
// kept as naive local strings, the same form used on the wire.
func NewEvent(calendarID string, position int, e resolver.ResolvedEvent) *Event {
	event := &Event{
		ID:         uuid.NewString(),
		CalendarID: calendarID,
		Position:   position,
		Title:      e.Title,
		StartDate:  e.Start.Format(resolver.CanonicalLayout),
		AllDay:     e.AllDay,
		SourceLine: e.SourceLine,
	}
	if e.End != nil {
		event.EndDate = e.End.Format(resolver.CanonicalLayout)
	}
	return event
}

func (e *Event) Resolved(loc *time.Location) (resolver.ResolvedEvent, error) {
	start, err := resolver.ParseInstant(e.StartDate, loc)
	if err != nil {
		return resolver.ResolvedEvent{}, fmt.Errorf("(*Event).Resolved: %s: %w", e.ID, err)
	}
	event := resolver.ResolvedEvent{
		Title:      e.Title,
		Start:      start,
		AllDay:     e.AllDay,
		SourceLine: e.SourceLine,
	}
	if e.EndDate != "" {
		end, err := resolver.ParseInstant(e.EndDate, loc)
		if err != nil {
			return resolver.ResolvedEvent{}, fmt.Errorf("(*Event).Resolved: %s: %w", e.ID, err)
		}
		event.End = &end
	}
	return event, nil
}
