package datetime

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when/rules"
)

var (
	monthDayRe = regexp.MustCompile(`(?i)\b(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?\s+(\d{1,2})(?:st|nd|rd|th)?\b(?:,?\s+(\d{4})\b)?`)
	slashDateRe = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{4}|\d{2}))?\b`)
	namedTimeRe = regexp.MustCompile(`(?i)\b(noon|midnight)\b`)
	clockRe     = regexp.MustCompile(`(?i)\b(\d{1,2})(?::([0-5]\d))?\s*(am\b|pm\b|a\.m\.|p\.m\.)?(?:\s*(?:-|–|\bto\b)\s*(\d{1,2})(?::([0-5]\d))?\s*(am\b|pm\b|a\.m\.|p\.m\.)?)?`)

	months = map[string]int{
		"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
		"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
	}
)

// accumulator records what the applied rules read from the text. The
// when parser only hands back a merged time, so certainty is tracked here.
type accumulator struct {
	year, month, day *int
	hour, minute     *int
	minuteKnown      bool

	ranged             bool
	endHour, endMinute int
}

// applier matches the type of rules.Match.Applier.
type applier = func(m *rules.Match, c *rules.Context, o *rules.Options, ref time.Time) (bool, error)

// finder is a rules.Rule that walks every regexp match until accept
// approves one, unlike rules.F which only looks at the first.
type finder struct {
	re     *regexp.Regexp
	accept func(captures []string) (applier, bool)
}

func (f *finder) Find(text string) *rules.Match {
	for _, loc := range f.re.FindAllStringSubmatchIndex(text, -1) {
		captures := make([]string, 0, len(loc)/2)
		for i := 2; i+1 < len(loc); i += 2 {
			if loc[i] < 0 {
				captures = append(captures, "")
				continue
			}
			captures = append(captures, text[loc[i]:loc[i+1]])
		}
		applier, ok := f.accept(captures)
		if !ok {
			continue
		}
		return &rules.Match{
			Left:     loc[0],
			Right:    loc[1],
			Text:     text[loc[0]:loc[1]],
			Captures: captures,
			Applier:  applier,
		}
	}
	return nil
}

func newRules(acc *accumulator) []rules.Rule {
	return []rules.Rule{
		&finder{re: monthDayRe, accept: acceptMonthDay(acc)},
		&finder{re: slashDateRe, accept: acceptSlashDate(acc)},
		&finder{re: clockRe, accept: acceptClock(acc)},
		&finder{re: namedTimeRe, accept: acceptNamedTime(acc)},
	}
}

func dateApplier(acc *accumulator, year *int, month, day int) applier {
	return func(m *rules.Match, c *rules.Context, o *rules.Options, ref time.Time) (bool, error) {
		mo, d := month, day
		c.Month, c.Day = &mo, &d
		acc.month, acc.day = &mo, &d
		if year != nil {
			y := *year
			c.Year = &y
			acc.year = &y
		}
		return true, nil
	}
}

// "Sep 19", "October 6th, 2025"
func acceptMonthDay(acc *accumulator) func([]string) (applier, bool) {
	return func(c []string) (applier, bool) {
		if len(c) < 3 {
			return nil, false
		}
		month := months[strings.ToLower(c[0])[:3]]
		day, err := strconv.Atoi(c[1])
		if err != nil || month == 0 || day < 1 || day > 31 {
			return nil, false
		}
		var year *int
		if c[2] != "" {
			y, err := strconv.Atoi(c[2])
			if err != nil {
				return nil, false
			}
			year = &y
		}
		return dateApplier(acc, year, month, day), true
	}
}

// month first: "10/02", "10/2/25", "10/02/2025"
func acceptSlashDate(acc *accumulator) func([]string) (applier, bool) {
	return func(c []string) (applier, bool) {
		if len(c) < 3 {
			return nil, false
		}
		month, err1 := strconv.Atoi(c[0])
		day, err2 := strconv.Atoi(c[1])
		if err1 != nil || err2 != nil || month < 1 || month > 12 || day < 1 || day > 31 {
			return nil, false
		}
		var year *int
		if c[2] != "" {
			y, err := strconv.Atoi(c[2])
			if err != nil {
				return nil, false
			}
			if len(c[2]) == 2 {
				y += 2000
			}
			year = &y
		}
		return dateApplier(acc, year, month, day), true
	}
}

type clock struct {
	hour, minute int
	hasMinute    bool
	meridiem     string
}

func parseClock(hour, minute, meridiem string) (clock, bool) {
	h, err := strconv.Atoi(hour)
	if err != nil {
		return clock{}, false
	}
	out := clock{hour: h, meridiem: normalizeMeridiem(meridiem)}
	if minute != "" {
		m, err := strconv.Atoi(minute)
		if err != nil || m > 59 {
			return clock{}, false
		}
		out.minute, out.hasMinute = m, true
	}
	switch {
	case out.meridiem != "" && (h < 1 || h > 12):
		return clock{}, false
	case h > 23:
		return clock{}, false
	}
	return out, true
}

func normalizeMeridiem(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), ".", "")
}

func (c clock) explicit() bool {
	return c.hasMinute || c.meridiem != ""
}

// in24 converts the clock using meridiem, or as a 24 hour clock when empty.
func (c clock) in24(meridiem string) int {
	switch meridiem {
	case "am":
		if c.hour == 12 {
			return 0
		}
	case "pm":
		if c.hour < 12 {
			return c.hour + 12
		}
	}
	return c.hour
}

func opposite(meridiem string) string {
	if meridiem == "pm" {
		return "am"
	}
	return "pm"
}

// resolveRange assigns a meridiem to the side that lacks one: "3–4pm" is
// 15:00-16:00, "11-1pm" is 11:00-13:00, "11am-1" is 11:00-13:00.
func resolveRange(start, end clock) (startHour, endHour int) {
	switch {
	case start.meridiem == "" && end.meridiem != "":
		endHour = end.in24(end.meridiem)
		startHour = start.in24(end.meridiem)
		if startHour*60+start.minute > endHour*60+end.minute {
			startHour = start.in24(opposite(end.meridiem))
		}
	case start.meridiem != "" && end.meridiem == "":
		startHour = start.in24(start.meridiem)
		endHour = end.in24(start.meridiem)
		if endHour*60+end.minute < startHour*60+start.minute {
			endHour = end.in24(opposite(start.meridiem))
		}
	default:
		startHour = start.in24(start.meridiem)
		endHour = end.in24(end.meridiem)
	}
	return startHour, endHour
}

// "11:59pm", "3pm", "14:00", "1:30-3:00 pm", "3–4pm", "10 to 11am"
func acceptClock(acc *accumulator) func([]string) (applier, bool) {
	return func(c []string) (applier, bool) {
		if len(c) < 6 {
			return nil, false
		}
		start, ok := parseClock(c[0], c[1], c[2])
		if !ok {
			return nil, false
		}

		if c[3] == "" {
			if !start.explicit() {
				return nil, false
			}
			hour, minute := start.in24(start.meridiem), start.minute
			return func(m *rules.Match, ctx *rules.Context, o *rules.Options, ref time.Time) (bool, error) {
				h, mi := hour, minute
				ctx.Hour, ctx.Minute = &h, &mi
				acc.hour, acc.minute = &h, &mi
				acc.minuteKnown = start.hasMinute
				return true, nil
			}, true
		}

		end, ok := parseClock(c[3], c[4], c[5])
		if !ok || !(start.explicit() || end.explicit()) {
			return nil, false
		}
		startHour, endHour := resolveRange(start, end)
		startMinute, endMinute := start.minute, end.minute
		return func(m *rules.Match, ctx *rules.Context, o *rules.Options, ref time.Time) (bool, error) {
			h, mi := startHour, startMinute
			ctx.Hour, ctx.Minute = &h, &mi
			acc.hour, acc.minute = &h, &mi
			acc.minuteKnown = start.hasMinute
			acc.ranged = true
			acc.endHour, acc.endMinute = endHour, endMinute
			return true, nil
		}, true
	}
}

// "noon" is 12:00, "midnight" is 00:00 of the same day.
func acceptNamedTime(acc *accumulator) func([]string) (applier, bool) {
	return func(c []string) (applier, bool) {
		if len(c) < 1 {
			return nil, false
		}
		hour := 0
		if strings.EqualFold(c[0], "noon") {
			hour = 12
		}
		return func(m *rules.Match, ctx *rules.Context, o *rules.Options, ref time.Time) (bool, error) {
			h, mi := hour, 0
			ctx.Hour, ctx.Minute = &h, &mi
			acc.hour, acc.minute = &h, &mi
			acc.minuteKnown = false
			return true, nil
		}, true
	}
}
