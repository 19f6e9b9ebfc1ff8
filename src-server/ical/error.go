package ical

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// CustomError carries the failing event's details alongside the message.
type CustomError struct {
	msg  string
	args map[string]any
}

func NewCustomError(msg string, args map[string]any) *CustomError {
	if args == nil {
		args = make(map[string]any)
	}
	return &CustomError{
		msg:  msg,
		args: args,
	}
}

func (e CustomError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.msg)
	if len(e.args) == 0 {
		return sb.String()
	}
	sb.WriteString(" |")
	for _, key := range slices.Sorted(maps.Keys(e.args)) {
		sb.WriteString(fmt.Sprintf(" %s: %v", key, e.args[key]))
	}
	return sb.String()
}

// Arg returns one of the attached details.
func (e CustomError) Arg(key string) (any, bool) {
	v, ok := e.args[key]
	return v, ok
}

var (
	ErrTitleNotSet    = "title not set"
	ErrStartNotSet    = "start not set"
	ErrEndBeforeStart = "end is before start"
)
