package ical

import "strings"

var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// textValue prepares a TEXT property value. golang-ical escapes backslash,
// comma, semicolon and "\n" on serialization but leaves a bare CR in place,
// which would split the content line.
func textValue(s string) string {
	return lineBreaks.Replace(s)
}
