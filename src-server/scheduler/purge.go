package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"syllabical/src-server/model"
	"syllabical/src-server/utils"
)

// PurgeExpired deletes saved calendars older than the configured retention.
func PurgeExpired(ctx context.Context, as *utils.AppState) (int, error) {
	cutoff := as.Now().Add(-as.Config.GetCalendarRetention())
	var deleted int
	if err := utils.Measure(as.MetricChans.DatabaseWrite, func() error {
		var err error
		deleted, err = model.DeleteExpiredCalendars(ctx, as.BunDB, cutoff)
		return err
	}); err != nil {
		return 0, fmt.Errorf("PurgeExpired: %w", err)
	}
	if deleted > 0 {
		slog.Info("purged expired calendars", "count", deleted, "cutoff", cutoff)
	}
	return deleted, nil
}

// Start runs PurgeExpired on the configured schedule until ctx is done.
func Start(ctx context.Context, as *utils.AppState) error {
	c := cron.New(cron.WithLocation(as.Config.GetLocation()))
	if _, err := c.AddFunc(as.Config.GetPurgeSchedule(), func() {
		if _, err := PurgeExpired(ctx, as); err != nil {
			slog.Error("can't purge expired calendars", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("scheduler.Start: %w", err)
	}

	c.Start()
	slog.Debug("scheduler started", "schedule", as.Config.GetPurgeSchedule())
	<-ctx.Done()

	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		slog.Warn("scheduler: timed out waiting for running jobs")
	}
	return nil
}
