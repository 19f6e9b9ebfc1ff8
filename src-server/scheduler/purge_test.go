package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"syllabical/src-server/model"
	"syllabical/src-server/resolver"
	"syllabical/src-server/utils"
)

func newTestAppState(t *testing.T, values map[string]string) *utils.AppState {
	t.Helper()
	values["DATABASE_PATH"] = ":memory:"
	config, err := utils.NewConfig(func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	})
	require.NoError(t, err)
	as, err := utils.NewAppState(context.Background(), config)
	require.NoError(t, err)
	t.Cleanup(as.Close)
	return as
}

func TestPurgeExpired(t *testing.T) {
	ctx := context.Background()
	as := newTestAppState(t, map[string]string{"CALENDAR_RETENTION": "24h"})
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	as.Now = func() time.Time { return now }

	events := []resolver.ResolvedEvent{{
		Title: "Quiz 1", Start: time.Date(2025, 9, 19, 15, 0, 0, 0, time.UTC), SourceLine: "Sep 19 Quiz 1",
	}}
	old, err := model.SaveCalendar(ctx, as.BunDB, "old", events, now.Add(-25*time.Hour))
	require.NoError(t, err)
	fresh, err := model.SaveCalendar(ctx, as.BunDB, "fresh", events, now.Add(-time.Hour))
	require.NoError(t, err)

	deleted, err := PurgeExpired(ctx, as)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, err = model.GetCalendar(ctx, as.BunDB, old.ID)
	assert.True(t, errors.Is(err, model.ErrCalendarNotFound))
	_, err = model.GetCalendar(ctx, as.BunDB, fresh.ID)
	assert.NoError(t, err)

	select {
	case <-as.MetricChans.DatabaseWrite:
	default:
		t.Error("no write latency sent")
	}
}

func TestStart_StopsWithContext(t *testing.T) {
	as := newTestAppState(t, map[string]string{"PURGE_SCHEDULE": "@every 1h"})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Start(ctx, as) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestStart_RunsJob(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	as := newTestAppState(t, map[string]string{
		"PURGE_SCHEDULE":     "@every 1s",
		"CALENDAR_RETENTION": "1h",
	})
	_, err := model.SaveCalendar(ctx, as.BunDB, "old", nil, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	go Start(ctx, as)

	require.Eventually(t, func() bool {
		count, err := as.BunDB.NewSelect().Model((*model.Calendar)(nil)).Count(ctx)
		return err == nil && count == 0
	}, 5*time.Second, 50*time.Millisecond)
}
