package service

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/yourname/aquaguide/internal"
)

// ParseDayNumber accepts a native integer or a numeral string and returns a positive day.
func ParseDayNumber(v any) (int, error) {
	var n int64
	switch d := v.(type) {
	case nil:
		return 0, internal.Validationf("day is required")
	case int:
		n = int64(d)
	case int32:
		n = int64(d)
	case int64:
		n = d
	case float64:
		if d != math.Trunc(d) || math.IsInf(d, 0) || d > math.MaxInt32 || d < math.MinInt32 {
			return 0, internal.Validationf("day must be a whole number, got %v", d)
		}
		n = int64(d)
	case json.Number:
		return ParseDayNumber(string(d))
	case string:
		s := strings.TrimSpace(d)
		if s == "" {
			return 0, internal.Validationf("day is required")
		}
		parsed, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return 0, internal.Validationf("day must be a number, got %q", d)
		}
		n = parsed
	default:
		return 0, internal.Validationf("day must be a number, got %T", v)
	}
	if n < 1 {
		return 0, internal.Validationf("day must be positive, got %d", n)
	}
	return int(n), nil
}
