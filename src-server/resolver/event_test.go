package resolver

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvedEvent_MarshalJSON(t *testing.T) {
	end := time.Date(2025, 9, 19, 16, 0, 0, 0, time.UTC)
	timed := ResolvedEvent{
		Title:      "Quiz 1",
		Start:      time.Date(2025, 9, 19, 15, 0, 0, 0, time.UTC),
		End:        &end,
		SourceLine: "Sep 19 3–4pm — Quiz 1",
	}
	data, err := json.Marshal(timed)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"title": "Quiz 1",
		"start": "2025-09-19T15:00:00",
		"end": "2025-09-19T16:00:00",
		"allDay": false,
		"sourceLine": "Sep 19 3–4pm — Quiz 1"
	}`, string(data))

	allDay := ResolvedEvent{
		Title:      "Final exam",
		Start:      time.Date(2025, 11, 26, 0, 0, 0, 0, time.UTC),
		AllDay:     true,
		SourceLine: "Nov 26 Final exam",
	}
	data, err = json.Marshal(allDay)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"end"`)
	assert.Contains(t, string(data), `"allDay":true`)
}

func TestResolvedEvent_UnmarshalJSON(t *testing.T) {
	var event ResolvedEvent
	err := json.Unmarshal([]byte(`{
		"title": "Midterm",
		"start": "2025-10-06T13:30:00",
		"end": "2025-10-06T15:00",
		"allDay": false,
		"sourceLine": "Mon Oct 6 1:30-3:00 pm Midterm"
	}`), &event)
	require.NoError(t, err)
	assert.Equal(t, "Midterm", event.Title)
	assert.Equal(t, "2025-10-06T13:30:00", event.Start.Format(CanonicalLayout))
	require.NotNil(t, event.End)
	assert.Equal(t, "2025-10-06T15:00:00", event.End.Format(CanonicalLayout))

	var empty ResolvedEvent
	require.NoError(t, json.Unmarshal([]byte(`{"title":"x","start":"2025-10-06","end":""}`), &empty))
	assert.Nil(t, empty.End)

	var bad ResolvedEvent
	assert.Error(t, json.Unmarshal([]byte(`{"title":"x","start":"next tuesday"}`), &bad))
}

func TestParseInstant(t *testing.T) {
	loc := time.FixedZone("course", 2*60*60)
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-09-19T15:00:00", time.Date(2025, 9, 19, 15, 0, 0, 0, loc)},
		{"2025-09-19T15:00", time.Date(2025, 9, 19, 15, 0, 0, 0, loc)},
		{"2025-09-19", time.Date(2025, 9, 19, 0, 0, 0, 0, loc)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseInstant(tt.in, loc)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got))
		})
	}

	got, err := ParseInstant("2025-09-19T15:00:00Z", loc)
	require.NoError(t, err)
	assert.True(t, time.Date(2025, 9, 19, 15, 0, 0, 0, time.UTC).Equal(got))

	_, err = ParseInstant("19/09/2025", loc)
	assert.Error(t, err)
}

func TestDedupe(t *testing.T) {
	start := time.Date(2025, 9, 19, 15, 0, 0, 0, time.UTC)
	events := []ResolvedEvent{
		{Title: "Quiz 1", Start: start, SourceLine: "first"},
		{Title: "Quiz 1", Start: start.Add(time.Hour), SourceLine: "other time"},
		{Title: "Quiz 1", Start: start, SourceLine: "second"},
		{Title: "Quiz 2", Start: start, SourceLine: "other title"},
	}
	out := Dedupe(events)
	require.Len(t, out, 3)
	assert.Equal(t, "first", out[0].SourceLine)
	assert.Equal(t, "other time", out[1].SourceLine)
	assert.Equal(t, "other title", out[2].SourceLine)

	assert.NotNil(t, Dedupe(nil))
	assert.Empty(t, Dedupe(nil))
}
