package datetime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reference() time.Time {
	return time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
}

func date(y int, m time.Month, d, h, mi int) time.Time {
	return time.Date(y, m, d, h, mi, 0, 0, time.UTC)
}

func extractOne(t *testing.T, text string) CandidateSpan {
	t.Helper()
	spans := NewWhenExtractor().Extract(text, reference())
	require.Len(t, spans, 1, "text: %q", text)
	return spans[0]
}

func TestWhenExtractor_Dates(t *testing.T) {
	tests := []struct {
		text  string
		want  time.Time
		known Certainty
	}{
		{"Sep 19 Quiz 1", date(2025, 9, 19, 0, 0), Certainty{Month: true, Day: true}},
		{"September 19th reading", date(2025, 9, 19, 0, 0), Certainty{Month: true, Day: true}},
		{"Oct. 6, 2026 Midterm", date(2026, 10, 6, 0, 0), Certainty{Year: true, Month: true, Day: true}},
		{"HW2 due 10/9", date(2025, 10, 9, 0, 0), Certainty{Month: true, Day: true}},
		{"10/02/2024 essay", date(2024, 10, 2, 0, 0), Certainty{Year: true, Month: true, Day: true}},
		{"10/2/26 essay", date(2026, 10, 2, 0, 0), Certainty{Year: true, Month: true, Day: true}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			span := extractOne(t, tt.text)
			assert.Equal(t, tt.want, span.Start.Time)
			assert.Equal(t, tt.known, span.Start.Known)
			assert.Nil(t, span.End)
		})
	}
}

func TestWhenExtractor_Times(t *testing.T) {
	tests := []struct {
		text  string
		want  time.Time
		known Certainty
	}{
		{"10/02 11:59pm HW 1 due", date(2025, 10, 2, 23, 59), Certainty{Month: true, Day: true, Hour: true, Minute: true}},
		{"Oct 3 3pm lecture", date(2025, 10, 3, 15, 0), Certainty{Month: true, Day: true, Hour: true}},
		{"Oct 3 12am lab", date(2025, 10, 3, 0, 0), Certainty{Month: true, Day: true, Hour: true}},
		{"Oct 3 12pm lab", date(2025, 10, 3, 12, 0), Certainty{Month: true, Day: true, Hour: true}},
		{"HW2 due 10/9 23:59", date(2025, 10, 9, 23, 59), Certainty{Month: true, Day: true, Hour: true, Minute: true}},
		{"Nov 4 9:15 a.m. lab", date(2025, 11, 4, 9, 15), Certainty{Month: true, Day: true, Hour: true, Minute: true}},
		{"Quiz 3 Oct 6 at noon", date(2025, 10, 6, 12, 0), Certainty{Month: true, Day: true, Hour: true}},
		{"Oct 6 Midnight release", date(2025, 10, 6, 0, 0), Certainty{Month: true, Day: true, Hour: true}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			span := extractOne(t, tt.text)
			assert.Equal(t, tt.want, span.Start.Time)
			assert.Equal(t, tt.known, span.Start.Known)
			assert.Nil(t, span.End)
		})
	}
}

func TestWhenExtractor_Ranges(t *testing.T) {
	tests := []struct {
		text       string
		start, end time.Time
	}{
		{"Sep 19 3–4pm — Quiz 1", date(2025, 9, 19, 15, 0), date(2025, 9, 19, 16, 0)},
		{"Mon Oct 6 1:30-3:00 pm Midterm", date(2025, 10, 6, 13, 30), date(2025, 10, 6, 15, 0)},
		{"Oct 7 11-1pm workshop", date(2025, 10, 7, 11, 0), date(2025, 10, 7, 13, 0)},
		{"Oct 7 11am-1 workshop", date(2025, 10, 7, 11, 0), date(2025, 10, 7, 13, 0)},
		{"Oct 8 10 to 11am review", date(2025, 10, 8, 10, 0), date(2025, 10, 8, 11, 0)},
		{"Oct 9 14:00-15:30 lab", date(2025, 10, 9, 14, 0), date(2025, 10, 9, 15, 30)},
		{"Oct 9 11pm-1am social", date(2025, 10, 9, 23, 0), date(2025, 10, 10, 1, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			span := extractOne(t, tt.text)
			assert.Equal(t, tt.start, span.Start.Time)
			require.NotNil(t, span.End)
			assert.Equal(t, tt.end, span.End.Time)
			assert.True(t, span.End.Known.Hour)
			assert.False(t, span.End.Known.Year)
		})
	}
}

func TestWhenExtractor_Rejects(t *testing.T) {
	tests := []string{
		"random sentence with no date",
		"pages 10-12",
		"2/30 impossible day",
		"13/02 not a month",
		"",
	}
	for _, text := range tests {
		t.Run(text, func(t *testing.T) {
			assert.Empty(t, NewWhenExtractor().Extract(text, reference()))
		})
	}
}

func TestWhenExtractor_TimeWithoutDate(t *testing.T) {
	span := extractOne(t, "Quiz at 3pm")
	assert.False(t, span.Start.Known.Month)
	assert.False(t, span.Start.Known.Day)
	assert.True(t, span.Start.Known.Hour)
	assert.Equal(t, date(2025, 1, 1, 15, 0), span.Start.Time)
}

func TestWhenExtractor_KeepsReferenceLocation(t *testing.T) {
	loc := time.FixedZone("course", -5*60*60)
	ref := time.Date(2025, time.January, 1, 0, 0, 0, 0, loc)
	spans := NewWhenExtractor().Extract("Sep 19 3pm", ref)
	require.Len(t, spans, 1)
	assert.Equal(t, time.Date(2025, 9, 19, 15, 0, 0, 0, loc), spans[0].Start.Time)
}

func TestValidDate(t *testing.T) {
	assert.True(t, ValidDate(2024, 2, 29))
	assert.False(t, ValidDate(2025, 2, 29))
	assert.False(t, ValidDate(2025, 4, 31))
	assert.False(t, ValidDate(2025, 0, 1))
	assert.True(t, ValidDate(2025, 12, 31))
}
