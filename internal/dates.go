package internal

import (
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// FormatDate renders t as a calendar date in t's own location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// NormalizeDate converts whatever a backend hands back for a date column into YYYY-MM-DD.
// nil yields "".
func NormalizeDate(v any) (string, error) {
	switch d := v.(type) {
	case nil:
		return "", nil
	case time.Time:
		return FormatDate(d), nil
	case *time.Time:
		if d == nil {
			return "", nil
		}
		return FormatDate(*d), nil
	case []byte:
		return NormalizeDate(string(d))
	case string:
		s := strings.TrimSpace(d)
		if s == "" {
			return "", nil
		}
		if i := strings.IndexAny(s, "T "); i >= 0 {
			s = s[:i]
		}
		if len(s) > len(DateLayout) {
			s = s[:len(DateLayout)]
		}
		if _, err := time.Parse(DateLayout, s); err != nil {
			return "", Validationf("invalid date %q", d)
		}
		return s, nil
	default:
		return "", Validationf("unsupported date value of type %T", v)
	}
}

// DaysBetween counts whole calendar days from start to end. Both must be YYYY-MM-DD.
func DaysBetween(start, end string) (int, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return 0, Validationf("invalid date %q", start)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return 0, Validationf("invalid date %q", end)
	}
	return int(e.Sub(s).Hours() / 24), nil
}
