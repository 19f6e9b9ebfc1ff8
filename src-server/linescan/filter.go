// Package linescan decides which lines of pasted syllabus text look like
// calendar events and pulls a human readable title out of them.
package linescan

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const monthNames = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

var (
	slashDateRe  = regexp.MustCompile(`\d{1,2}/\d{1,2}`)
	monthDayRe   = regexp.MustCompile(`(?i)\b` + monthNames + `\.?\s+\d{1,2}\b`)
	deadlineRe   = regexp.MustCompile(`(?i)\b(?:due|deadline)\b`)
	assessmentRe = regexp.MustCompile(`(?i)\b(?:exam|quiz|midterm|final)\b`)
	hintRe       = regexp.MustCompile(`(?i)\b(?:assignment|project|paper|hw|reading|presentation|lab|report)\b`)
	numberRe     = regexp.MustCompile(`\b\d+\b`)
	timeTokenRe  = regexp.MustCompile(`(?i)\b\d{1,2}:\d{2}\s*(?:am|pm)?\b|\b\d{1,2}\s*(?:am|pm)\b`)
)

// Lines splits raw input into trimmed, non-empty lines. The text is NFC
// normalized first so that pasted smart punctuation compares consistently.
func Lines(text string) []string {
	text = norm.NFC.String(text)
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// IsEventLine is a cheap lexical filter run before date extraction.
func IsEventLine(line string) bool {
	switch {
	case slashDateRe.MatchString(line):
		return true
	case monthDayRe.MatchString(line):
		return true
	case deadlineRe.MatchString(line):
		return true
	case assessmentRe.MatchString(line):
		return true
	}
	// hint words alone are too common in prose ("the final project"),
	// they only count together with a number
	return hintRe.MatchString(line) && numberRe.MatchString(line)
}

// IsDeadline reports whether the line describes a single due instant.
func IsDeadline(line string) bool {
	return deadlineRe.MatchString(line)
}

// HasTimeToken reports whether the line carries an explicit clock time,
// either "H:MM" with an optional meridiem or "H am|pm".
func HasTimeToken(line string) bool {
	return timeTokenRe.MatchString(line)
}
