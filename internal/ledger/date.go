package ledger

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the day/month/year layout used for every outward-facing date
const DateLayout = "02/01/2006"

// fallbackLayouts are tried when a value is not day/month/year
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02-01-2006",
	"2-Jan-2006",
	"02-Jan-2006",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Mon Jan 2 2006",
}

// ParseDate parses s in UTC. See ParseDateIn.
func ParseDate(s string) (time.Time, bool) {
	return ParseDateIn(s, time.UTC)
}

// ParseDateIn parses a ledger date at midnight in loc. The primary form is
// day/month/year split on "/"; out-of-range parts roll over the way time.Date
// does. Two-digit years are read as 20yy. Other shapes go through
// fallbackLayouts. ok is false when nothing matches.
func ParseDateIn(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if parts := strings.Split(s, "/"); len(parts) == 3 {
		day, okDay := leadingInt(parts[0])
		month, okMonth := leadingInt(parts[1])
		year, okYear := leadingInt(parts[2])
		if okDay && okMonth && okYear {
			if year < 100 {
				year += 2000
			}
			return time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc), true
		}
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, loc), true
		}
	}
	return time.Time{}, false
}

// leadingInt reads the digits at the start of s, ignoring surrounding spaces
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// FormatDate renders t as DD/MM/YYYY
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysSince returns the whole days elapsed from then to now, rounded down
func DaysSince(then, now time.Time) int {
	return int(math.Floor(now.Sub(then).Hours() / 24))
}

// StartOfDay truncates t to midnight in its own location
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
