package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yourname/aquaguide/internal"
)

func TestParseDayNumber(t *testing.T) {
	ok := map[any]int{
		1:                1,
		int64(15):        15,
		"7":              7,
		" 12 ":           12,
		float64(4):       4,
		json.Number("9"): 9,
	}
	for in, want := range ok {
		got, err := ParseDayNumber(in)
		assert.NoError(t, err, "%v", in)
		assert.Equal(t, want, got)
	}

	for _, in := range []any{nil, "", "abc", "1.5", 0, -1, 2.5, true, "99999999999"} {
		_, err := ParseDayNumber(in)
		assert.ErrorIs(t, err, internal.ErrValidation, "%v", in)
	}
}
