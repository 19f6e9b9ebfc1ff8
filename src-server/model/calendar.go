package model

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/uptrace/bun"

	"syllabical/src-server/resolver"
)

var ErrCalendarNotFound = errors.New("calendar not found")

// Calendar is a saved batch of resolved events, shared by its short id.
type Calendar struct {
	bun.BaseModel `bun:"table:calendars"`

	ID        string `bun:"id,pk,notnull"`      // required
	Name      string `bun:"name,notnull"`       // required
	CreatedAt int64  `bun:"created_at,notnull"` // required

	Events []*Event `bun:"rel:has-many,join:id=calendar_id"`
}

func (c *Calendar) Upsert(ctx context.Context, db bun.IDB) error {
	switch {
	case c.ID == "":
		return fmt.Errorf("calendar id is empty")
	case c.Name == "":
		return fmt.Errorf("calendar name is empty")
	case c.CreatedAt == 0:
		return fmt.Errorf("calendar created_at is empty")
	}

	_, err := db.
		NewInsert().
		Model(c).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Exec(ctx)

	return err
}

// SaveCalendar stores name and events under a fresh short id.
func SaveCalendar(
	ctx context.Context,
	db bun.IDB,
	name string,
	events []resolver.ResolvedEvent,
	now time.Time,
) (*Calendar, error) {
	calendar := &Calendar{
		ID:        shortuuid.New(),
		Name:      name,
		CreatedAt: now.Unix(),
		Events:    make([]*Event, 0, len(events)),
	}
	for i, e := range events {
		calendar.Events = append(calendar.Events, NewEvent(calendar.ID, i, e))
	}

	if err := db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := calendar.Upsert(ctx, tx); err != nil {
			return err
		}
		if len(calendar.Events) == 0 {
			return nil
		}
		if _, err := tx.NewInsert().
			Model(&calendar.Events).
			Exec(ctx); err != nil {
			return err
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("SaveCalendar: %w", err)
	}
	return calendar, nil
}

// GetCalendar loads a calendar with its events in their original order.
func GetCalendar(ctx context.Context, db bun.IDB, id string) (*Calendar, error) {
	calendar := new(Calendar)
	if err := db.NewSelect().
		Model(calendar).
		Where("id = ?", id).
		Relation("Events", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("position ASC")
		}).
		Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetCalendar: %w", ErrCalendarNotFound)
		}
		return nil, fmt.Errorf("GetCalendar: %w", err)
	}
	return calendar, nil
}

// DeleteCalendar removes a calendar and its events.
func DeleteCalendar(ctx context.Context, db bun.IDB, id string) error {
	deleted, err := deleteCalendars(ctx, db, []string{id})
	if err != nil {
		return fmt.Errorf("DeleteCalendar: %w", err)
	}
	if deleted == 0 {
		return fmt.Errorf("DeleteCalendar: %w", ErrCalendarNotFound)
	}
	return nil
}

// DeleteExpiredCalendars removes every calendar created before the cutoff
// and returns how many were removed.
func DeleteExpiredCalendars(ctx context.Context, db bun.IDB, before time.Time) (int, error) {
	ids := make([]string, 0)
	if err := db.NewSelect().
		Model((*Calendar)(nil)).
		Column("id").
		Where("created_at < ?", before.Unix()).
		Scan(ctx, &ids); err != nil {
		return 0, fmt.Errorf("DeleteExpiredCalendars: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	deleted, err := deleteCalendars(ctx, db, ids)
	if err != nil {
		return 0, fmt.Errorf("DeleteExpiredCalendars: %w", err)
	}
	return deleted, nil
}

func deleteCalendars(ctx context.Context, db bun.IDB, ids []string) (int, error) {
	var deleted int64
	if err := db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*Event)(nil)).
			Where("calendar_id IN (?)", bun.In(ids)).
			Exec(ctx); err != nil {
			return fmt.Errorf("can't delete events: %w", err)
		}
		res, err := tx.NewDelete().
			Model((*Calendar)(nil)).
			Where("id IN (?)", bun.In(ids)).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("can't delete calendars: %w", err)
		}
		deleted, err = res.RowsAffected()
		return err
	}); err != nil {
		return 0, err
	}
	return int(deleted), nil
}

// ResolvedEvents converts the stored rows back, reading naive timestamps in
// loc.
func (c *Calendar) ResolvedEvents(loc *time.Location) ([]resolver.ResolvedEvent, error) {
	events := make([]resolver.ResolvedEvent, 0, len(c.Events))
	for _, e := range c.Events {
		event, err := e.Resolved(loc)
		if err != nil {
			return nil, fmt.Errorf("(*Calendar).ResolvedEvents: %w", err)
		}
		events = append(events, event)
	}
	return events, nil
}
