package linescan

import (
	"regexp"
	"strings"
)

var (
	spacedDashRe = regexp.MustCompile(`\s+[-–—]\s+`)

	// all leading patterns are anchored so a colon inside the title
	// ("Lab 2: 10:00 review") is never split on
	leadingWeekdayRe   = regexp.MustCompile(`(?i)^(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday|mon|tues?|wed|thu(?:rs?)?|fri|sat|sun)\b\.?,?\s*`)
	leadingMonthDayRe  = regexp.MustCompile(`(?i)^` + monthNames + `\.?\s+\d{1,2}(?:st|nd|rd|th)?\b(?:,?\s*\d{4}\b)?,?\s*`)
	leadingSlashDateRe = regexp.MustCompile(`^\d{1,2}/\d{1,2}(?:/\d{2,4})?\b,?\s*`)
	leadingTimeRangeRe = regexp.MustCompile(`(?i)^\d{1,2}(?::\d{2})?\s*(?:am|pm)?\s*[-–]\s*\d{1,2}(?::\d{2})?\s*(?:am|pm)?\b\s*`)
	leadingTimeRe      = regexp.MustCompile(`(?i)^\d{1,2}(?::\d{2})?\s*(?:am|pm)\b\s*`)

	leadingStrippers = []*regexp.Regexp{
		leadingWeekdayRe,
		leadingMonthDayRe,
		leadingSlashDateRe,
		leadingTimeRangeRe,
		leadingTimeRe,
	}
)

// ExtractTitle derives an event title from a line. A spaced dash always
// wins: "Sep 19 3–4pm — Quiz 1" gives "Quiz 1", and "Essay - Part 2" gives
// "Part 2". Without a dash, date and time tokens are peeled off the start of
// the line. The result is never empty for a non-blank line.
func ExtractTitle(line string) string {
	line = strings.TrimSpace(line)

	if parts := spacedDashRe.Split(line, -1); len(parts) > 1 {
		if title := strings.TrimSpace(strings.Join(parts[1:], " - ")); title != "" {
			return title
		}
		return line
	}

	rest := line
	for _, re := range leadingStrippers {
		if loc := re.FindStringIndex(rest); loc != nil {
			rest = strings.TrimSpace(rest[loc[1]:])
		}
	}
	if rest == "" {
		return line
	}
	return rest
}
