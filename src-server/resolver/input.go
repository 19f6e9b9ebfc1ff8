package resolver

import (
	"bytes"
	"encoding/json"
	"math"
	"time"

	"syllabical/src-server/datetime"
)

// Input is the request shape accepted at the service boundary. Optional
// fields are pointers so "absent" and "empty" stay distinguishable: an
// absent DefaultTime means 23:59, an empty one turns the deadline time off.
type Input struct {
	Text                   string   `json:"text"`
	FallbackYear           *float64 `json:"fallbackYear,omitempty"`
	DefaultDurationMinutes *float64 `json:"defaultDurationMinutes,omitempty"`
	DefaultTime            *string  `json:"defaultTime,omitempty"`
}

// UnmarshalJSON never fails on a well-formed JSON value: fields of the wrong
// type are treated as absent, and a non-string text as empty, so a bad field
// yields no events instead of an error.
func (in *Input) UnmarshalJSON(data []byte) error {
	*in = Input{}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		if !json.Valid(data) {
			return err
		}
		return nil
	}

	var text string
	if json.Unmarshal(fields["text"], &text) == nil {
		in.Text = text
	}
	in.FallbackYear = number(fields["fallbackYear"])
	in.DefaultDurationMinutes = number(fields["defaultDurationMinutes"])

	raw := bytes.TrimSpace(fields["defaultTime"])
	var defaultTime string
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
	case json.Unmarshal(raw, &defaultTime) == nil:
		in.DefaultTime = &defaultTime
	case bytes.Equal(raw, []byte("false")) || bytes.Equal(raw, []byte("0")):
		// falsy turns the deadline time off like ""
		in.DefaultTime = &defaultTime
	}
	return nil
}

// number keeps raw only when it is a JSON number.
func number(raw json.RawMessage) *float64 {
	var f float64
	if len(raw) == 0 || json.Unmarshal(raw, &f) != nil || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	return &f
}

// Defaults fills the service-level defaults used when a request leaves a
// field out.
type Defaults struct {
	DurationMinutes int
	DeadlineTime    string
	Location        *time.Location
}

// Options derives resolver options from the input. now supplies the
// current year when no usable fallback year was sent.
func (in Input) Options(now time.Time, defaults Defaults) Options {
	opts := Options{
		FallbackYear:           now.Year(),
		DefaultDurationMinutes: defaults.DurationMinutes,
		DefaultTime:            defaults.DeadlineTime,
		Location:               defaults.Location,
	}
	if opts.DefaultDurationMinutes <= 0 {
		opts.DefaultDurationMinutes = DefaultDurationMinutes
	}
	if in.FallbackYear != nil && finite(*in.FallbackYear) {
		opts.FallbackYear = int(math.Trunc(*in.FallbackYear))
	}
	if in.DefaultDurationMinutes != nil && finite(*in.DefaultDurationMinutes) && *in.DefaultDurationMinutes > 0 {
		opts.DefaultDurationMinutes = int(math.Round(*in.DefaultDurationMinutes))
	}
	if in.DefaultTime != nil {
		opts.DefaultTime = *in.DefaultTime
	}
	return opts
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ResolveInput is the one-call entry point used by the HTTP, Discord and
// CLI surfaces.
func ResolveInput(extractor datetime.Extractor, in Input, now time.Time, defaults Defaults) ([]ResolvedEvent, Stats) {
	return New(extractor, in.Options(now, defaults)).ResolveWithStats(in.Text)
}
