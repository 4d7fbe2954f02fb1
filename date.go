package propwire

import (
	"fmt"
	"strconv"
	"time"
)

// Dates travel as ISO-8601 UTC text with millisecond precision, the form
// the client-side Date constructor reads back exactly.
const isoLayout = "2006-01-02T15:04:05.000Z"

func formatISO(t time.Time) string {
	t = t.UTC()
	y := t.Year()
	if y >= 0 && y <= 9999 {
		return t.Format(isoLayout)
	}
	sign := byte('+')
	if y < 0 {
		sign = '-'
		y = -y
	}
	return fmt.Sprintf("%c%06d%s", sign, y, t.Format("-01-02T15:04:05.000Z"))
}

func parseISO(s string) (time.Time, error) {
	// expanded years: +YYYYYY-MM-DD... / -YYYYYY-MM-DD...
	if len(s) > 7 && (s[0] == '+' || s[0] == '-') {
		year, err := strconv.Atoi(s[1:7])
		if err != nil {
			return time.Time{}, err
		}
		if s[0] == '-' {
			year = -year
		}
		rest, err := time.Parse(time.RFC3339Nano, "2000"+s[7:])
		if err != nil {
			return time.Time{}, err
		}
		rest = rest.UTC()
		return time.Date(year, rest.Month(), rest.Day(), rest.Hour(), rest.Minute(),
			rest.Second(), rest.Nanosecond(), time.UTC), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		// date-only form
		d, derr := time.Parse(time.DateOnly, s)
		if derr != nil {
			return time.Time{}, err
		}
		t = d
	}
	return t.UTC(), nil
}
