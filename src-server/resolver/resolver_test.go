package resolver

import (
	"strings"
	"testing"
	"time"

	"syllabical/src-server/datetime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver() *Resolver {
	return New(datetime.NewWhenExtractor(), Options{
		FallbackYear: 2025,
		DefaultTime:  DefaultDeadlineTime,
		Location:     time.UTC,
	})
}

func at(y int, m time.Month, d, h, mi int) time.Time {
	return time.Date(y, m, d, h, mi, 0, 0, time.UTC)
}

func TestResolve_Examples(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		title  string
		start  time.Time
		end    *time.Time
		allDay bool
	}{
		{
			name:  "range with dash title",
			line:  "Sep 19 3–4pm — Quiz 1",
			title: "Quiz 1",
			start: at(2025, 9, 19, 15, 0),
			end:   ptr(at(2025, 9, 19, 16, 0)),
		},
		{
			name:  "deadline with explicit time",
			line:  "10/02 11:59pm HW 1 due",
			title: "HW 1 due",
			start: at(2025, 10, 2, 23, 59),
		},
		{
			name:  "weekday month day and range",
			line:  "Mon Oct 6 1:30-3:00 pm Midterm",
			title: "Midterm",
			start: at(2025, 10, 6, 13, 30),
			end:   ptr(at(2025, 10, 6, 15, 0)),
		},
		{
			name:  "deadline rescued with default time",
			line:  "HW2 due 10/9",
			title: "HW2 due 10/9",
			start: at(2025, 10, 9, 23, 59),
		},
		{
			name:  "timed event gets default duration",
			line:  "Oct 14 2pm Guest lecture",
			title: "Guest lecture",
			start: at(2025, 10, 14, 14, 0),
			end:   ptr(at(2025, 10, 14, 15, 0)),
		},
		{
			name:   "date only is all day",
			line:   "Nov 26 Final exam",
			title:  "Final exam",
			start:  at(2025, 11, 26, 0, 0),
			allDay: true,
		},
		{
			name:  "explicit year is kept",
			line:  "Jan 12, 2026 Project 3 kickoff 10am",
			title: "Project 3 kickoff 10am",
			start: at(2026, 1, 12, 10, 0),
			end:   ptr(at(2026, 1, 12, 11, 0)),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := newTestResolver().Resolve(tt.line)
			require.Len(t, events, 1)
			event := events[0]
			assert.Equal(t, tt.title, event.Title)
			assert.Equal(t, tt.start, event.Start)
			assert.Equal(t, tt.allDay, event.AllDay)
			assert.Equal(t, tt.line, event.SourceLine)
			if tt.end == nil {
				assert.Nil(t, event.End)
			} else {
				require.NotNil(t, event.End)
				assert.Equal(t, *tt.end, *event.End)
			}
		})
	}
}

func ptr(t time.Time) *time.Time {
	return &t
}

func TestResolve_FilteredOut(t *testing.T) {
	assert.Empty(t, newTestResolver().Resolve("random sentence with no date"))
	assert.Empty(t, newTestResolver().Resolve(""))
	assert.NotNil(t, newTestResolver().Resolve(""))
}

func TestResolve_DropsUncertainDates(t *testing.T) {
	// passes the filter on "quiz" but has no month or day
	assert.Empty(t, newTestResolver().Resolve("Quiz every Friday at 3pm"))
	// passes the filter on "exam" and has no date at all
	assert.Empty(t, newTestResolver().Resolve("Exam policy: bring a pencil"))
}

func TestResolve_DeadlineRescueDisabled(t *testing.T) {
	r := New(datetime.NewWhenExtractor(), Options{FallbackYear: 2025, Location: time.UTC})
	events := r.Resolve("HW2 due 10/9")
	require.Len(t, events, 1)
	assert.True(t, events[0].AllDay)
	assert.Nil(t, events[0].End)
	assert.Equal(t, at(2025, 10, 9, 0, 0), events[0].Start)
}

func TestResolve_DeadlineWithTimeHasNoEnd(t *testing.T) {
	lines := []string{
		"Oct 3 5pm Proposal deadline",
		"Essay due 11/14 9:00am",
		"Dec 1 12pm lab report due",
	}
	for _, line := range lines {
		t.Run(line, func(t *testing.T) {
			events := newTestResolver().Resolve(line)
			require.Len(t, events, 1)
			assert.Nil(t, events[0].End)
			assert.False(t, events[0].AllDay)
		})
	}
}

func TestResolve_DeadlineRescueOnLongLine(t *testing.T) {
	line := "Assignment 1 due 10/9: write a five page essay on the causes of the revolution"
	events := newTestResolver().Resolve(line)
	require.Len(t, events, 1)
	assert.False(t, events[0].AllDay)
	assert.Nil(t, events[0].End)
	assert.Equal(t, at(2025, 10, 9, 23, 59), events[0].Start)
}

func TestResolve_RangePastNewYear(t *testing.T) {
	events := newTestResolver().Resolve("Dec 31 11pm-1am New year review session")
	require.Len(t, events, 1)
	assert.Equal(t, at(2025, 12, 31, 23, 0), events[0].Start)
	require.NotNil(t, events[0].End)
	assert.Equal(t, at(2026, 1, 1, 1, 0), *events[0].End)
}

func TestResolve_RangeEndFollowsStartYear(t *testing.T) {
	extractor := datetime.ExtractorFunc(func(text string, ref time.Time) []datetime.CandidateSpan {
		return []datetime.CandidateSpan{{
			Start: datetime.Point{
				Time:  at(1999, 12, 31, 23, 0),
				Known: datetime.Certainty{Month: true, Day: true, Hour: true},
			},
			End: &datetime.Point{
				Time:  at(2000, 1, 1, 1, 0),
				Known: datetime.Certainty{Month: true, Day: true, Hour: true},
			},
		}}
	})
	events := New(extractor, Options{FallbackYear: 2025, Location: time.UTC}).Resolve("Dec 31 11pm-1am party")
	require.Len(t, events, 1)
	assert.Equal(t, at(2025, 12, 31, 23, 0), events[0].Start)
	require.NotNil(t, events[0].End)
	assert.Equal(t, at(2026, 1, 1, 1, 0), *events[0].End)
}

func TestResolve_NamedTimes(t *testing.T) {
	events := newTestResolver().Resolve("Quiz 3 Oct 6 at noon\nOct 7 midnight project 2 due")
	require.Len(t, events, 2)
	assert.Equal(t, at(2025, 10, 6, 12, 0), events[0].Start)
	assert.False(t, events[0].AllDay)
	require.NotNil(t, events[0].End)
	assert.Equal(t, at(2025, 10, 7, 0, 0), events[1].Start)
	assert.Nil(t, events[1].End)
}

func TestResolve_CustomDuration(t *testing.T) {
	r := New(datetime.NewWhenExtractor(), Options{
		FallbackYear:           2025,
		DefaultDurationMinutes: 90,
		Location:               time.UTC,
	})
	events := r.Resolve("Oct 14 2pm Guest lecture\nOct 21 9:30am Lab 4")
	require.Len(t, events, 2)
	for _, event := range events {
		require.NotNil(t, event.End)
		assert.Equal(t, 90*time.Minute, event.End.Sub(event.Start))
	}
}

func TestResolve_Dedupe(t *testing.T) {
	text := strings.Join([]string{
		"Sep 19 3pm — Quiz 1",
		"Reminder: 9/19 3pm — Quiz 1",
		"Sep 19 3pm — Quiz 2",
	}, "\n")
	events := newTestResolver().Resolve(text)
	require.Len(t, events, 2)
	assert.Equal(t, "Sep 19 3pm — Quiz 1", events[0].SourceLine)
	assert.Equal(t, "Quiz 2", events[1].Title)
}

func TestResolve_Idempotent(t *testing.T) {
	text := "Sep 19 3–4pm — Quiz 1\n10/02 11:59pm HW 1 due\nNov 26 Final exam\nHW2 due 10/9"
	r := newTestResolver()
	assert.Equal(t, r.Resolve(text), r.Resolve(text))
}

func TestResolve_PreservesOrder(t *testing.T) {
	text := "Nov 26 Final exam\nSep 19 3–4pm — Quiz 1\nrandom prose line\n10/02 11:59pm HW 1 due"
	events, stats := newTestResolver().ResolveWithStats(text)
	require.Len(t, events, 3)
	assert.Equal(t, "Final exam", events[0].Title)
	assert.Equal(t, "Quiz 1", events[1].Title)
	assert.Equal(t, "HW 1 due", events[2].Title)
	assert.Equal(t, Stats{Lines: 4, Filtered: 3, Resolved: 3, Events: 3}, stats)
}

func TestResolve_InvalidRangeEndIsDropped(t *testing.T) {
	extractor := datetime.ExtractorFunc(func(text string, ref time.Time) []datetime.CandidateSpan {
		return []datetime.CandidateSpan{{
			Start: datetime.Point{
				Time:  at(2025, 9, 19, 15, 0),
				Known: datetime.Certainty{Month: true, Day: true, Hour: true},
			},
			End: &datetime.Point{
				Time:  at(2024, 2, 29, 16, 0),
				Known: datetime.Certainty{Month: true, Day: true, Hour: true},
			},
		}}
	})
	r := New(extractor, Options{FallbackYear: 2025, Location: time.UTC})
	events := r.Resolve("Sep 19 3pm Quiz 1")
	require.Len(t, events, 1)
	// range gone, so the default duration applies
	require.NotNil(t, events[0].End)
	assert.Equal(t, at(2025, 9, 19, 16, 0), *events[0].End)
}

func TestResolve_InferredYearIsReplaced(t *testing.T) {
	extractor := datetime.ExtractorFunc(func(text string, ref time.Time) []datetime.CandidateSpan {
		return []datetime.CandidateSpan{{
			Start: datetime.Point{
				Time:  at(1999, 9, 19, 0, 0),
				Known: datetime.Certainty{Month: true, Day: true},
			},
		}}
	})
	events := New(extractor, Options{FallbackYear: 2025, Location: time.UTC}).Resolve("Sep 19 Quiz 1")
	require.Len(t, events, 1)
	assert.Equal(t, 2025, events[0].Start.Year())
}

func TestResolve_TimeTokenAloneMakesEventTimed(t *testing.T) {
	extractor := datetime.ExtractorFunc(func(text string, ref time.Time) []datetime.CandidateSpan {
		return []datetime.CandidateSpan{{
			Start: datetime.Point{
				Time:  at(2025, 9, 19, 0, 0),
				Known: datetime.Certainty{Month: true, Day: true},
			},
		}}
	})
	events := New(extractor, Options{FallbackYear: 2025, Location: time.UTC}).Resolve("Sep 19 Quiz 1 at 3pm")
	require.Len(t, events, 1)
	assert.False(t, events[0].AllDay)
	require.NotNil(t, events[0].End)
	assert.Equal(t, time.Hour, events[0].End.Sub(events[0].Start))
}

func TestResolve_LineFaultIsSkipped(t *testing.T) {
	extractor := datetime.ExtractorFunc(func(text string, ref time.Time) []datetime.CandidateSpan {
		if strings.Contains(text, "boom") {
			panic("extractor failure")
		}
		return datetime.NewWhenExtractor().Extract(text, ref)
	})
	r := New(extractor, Options{FallbackYear: 2025, Location: time.UTC})
	events := r.Resolve("Sep 19 boom quiz\nSep 20 Quiz 2")
	require.Len(t, events, 1)
	assert.Equal(t, "Quiz 2", events[0].Title)
}

func TestResolve_InvalidDefaultTimeDisablesRescue(t *testing.T) {
	r := New(datetime.NewWhenExtractor(), Options{FallbackYear: 2025, DefaultTime: "late", Location: time.UTC})
	assert.Equal(t, "", r.Options().DefaultTime)
	events := r.Resolve("HW2 due 10/9")
	require.Len(t, events, 1)
	assert.True(t, events[0].AllDay)
}

func TestResolve_Invariants(t *testing.T) {
	text := strings.Join([]string{
		"Week 1 overview",
		"Sep 5 — Syllabus quiz",
		"9/12 10am-11:15am Lab 1",
		"Sep 19 3–4pm — Quiz 1",
		"10/02 11:59pm HW 1 due",
		"HW2 due 10/9",
		"Mon Oct 6 1:30-3:00 pm Midterm",
		"Oct 20 Reading: chapter 7",
		"Dec 10 Final project presentation 2pm",
		"Office hours by appointment",
	}, "\n")
	events := newTestResolver().Resolve(text)
	require.NotEmpty(t, events)
	for _, event := range events {
		assert.NotEmpty(t, event.Title, event.SourceLine)
		assert.NotZero(t, event.Start.Month(), event.SourceLine)
		assert.NotZero(t, event.Start.Day(), event.SourceLine)
		if event.AllDay {
			assert.Nil(t, event.End, event.SourceLine)
		}
		if event.End != nil {
			assert.False(t, event.End.Before(event.Start), event.SourceLine)
		}
	}
}
