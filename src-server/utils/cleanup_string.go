package utils

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CalendarName tidies a user supplied calendar name: collapses whitespace,
// title cases it and removes a trailing period. Falls back to fallback when
// nothing is left.
func CalendarName(s, fallback string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return fallback
	}
	return cases.Title(language.English, cases.NoLower).String(s)
}

var unsafeFilenameRe = regexp.MustCompile(`[^a-z0-9]+`)

// CalendarFileName gives a download name like "cs-101-fall.ics".
func CalendarFileName(name string) string {
	filename := strings.Trim(unsafeFilenameRe.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if filename == "" {
		filename = "syllabus"
	}
	return filename + ".ics"
}
