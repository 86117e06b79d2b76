package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "sept": time.September, "oct": time.October,
	"nov": time.November, "dec": time.December,
}

const monthName = `(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sept?(?:ember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

type datePattern struct {
	re    *regexp.Regexp
	build func(m []string) (time.Time, bool)
}

// datePatterns is the explicit battery used when generic parsing fails.
var datePatterns = []datePattern{
	// 15 March 2025, 15th Mar, 2025
	{regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?` + monthName + `\.?,?\s+(\d{4})\b`), func(m []string) (time.Time, bool) {
		return buildDate(m[3], monthIndex(m[2]), m[1])
	}},
	// March 15, 2025
	{regexp.MustCompile(`(?i)\b` + monthName + `\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`), func(m []string) (time.Time, bool) {
		return buildDate(m[3], monthIndex(m[1]), m[2])
	}},
	// 2025/03/15, 2025-03-15
	{regexp.MustCompile(`\b(\d{4})[/.-](\d{1,2})[/.-](\d{1,2})\b`), func(m []string) (time.Time, bool) {
		mo, _ := strconv.Atoi(m[2])
		return buildDate(m[1], time.Month(mo), m[3])
	}},
	// 15/03/2025, 15-03-2025, 15.03.2025
	{regexp.MustCompile(`\b(\d{1,2})[/.-](\d{1,2})[/.-](\d{4})\b`), func(m []string) (time.Time, bool) {
		mo, _ := strconv.Atoi(m[2])
		return buildDate(m[3], time.Month(mo), m[1])
	}},
	// 15/03/25
	{regexp.MustCompile(`\b(\d{1,2})[/.-](\d{1,2})[/.-](\d{2})\b`), func(m []string) (time.Time, bool) {
		mo, _ := strconv.Atoi(m[2])
		return buildDate("20"+m[3], time.Month(mo), m[1])
	}},
}

var deadlineLabelRe = regexp.MustCompile(`(?i)(?:application\s+deadline|deadline\s+for\s+(?:submission|applications?)|deadline|closing\s+date|apply\s+before|last\s+date(?:\s+of\s+application)?|closes\s+on)\s*(?:is|:|-|–|on)?\s*([^\n]{0,80})`)

// ParseDeadline looks for a deadline label in text and parses the date that
// follows it. Without a parsable date it returns now plus defaultDays.
func ParseDeadline(text string, now time.Time, defaultDays int) time.Time {
	for _, m := range deadlineLabelRe.FindAllStringSubmatch(text, -1) {
		if d, ok := ParseDate(m[1]); ok {
			return d
		}
	}
	return DefaultDeadline(now, defaultDays)
}

// DefaultDeadline is the date defaultDays after now, at midnight UTC.
func DefaultDeadline(now time.Time, defaultDays int) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, defaultDays)
}

// ParseDate tries generic parsing first, then the explicit date battery.
// Numeric dates are read day-first.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(strings.Trim(CleanText(s), ".,;"))
	if s == "" {
		return time.Time{}, false
	}
	if t, err := dateparse.ParseAny(s, dateparse.PreferMonthFirst(false)); err == nil && plausibleYear(t.Year()) {
		return truncateDay(t), true
	}
	for _, p := range datePatterns {
		m := p.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		if t, ok := p.build(m); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func monthIndex(name string) time.Month {
	name = strings.ToLower(name)
	if m, ok := months[name]; ok {
		return m
	}
	if len(name) >= 3 {
		return months[name[:3]]
	}
	return 0
}

func buildDate(year string, month time.Month, day string) (time.Time, bool) {
	y, err := strconv.Atoi(year)
	if err != nil || !plausibleYear(y) {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil || month < time.January || month > time.December || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(y, month, d, 0, 0, 0, 0, time.UTC)
	if t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}

func plausibleYear(y int) bool { return y >= 2000 && y <= 2100 }

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
