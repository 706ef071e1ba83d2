package util

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToInt64(t *testing.T) {
	cases := []struct {
		in   any
		want int64
		ok   bool
	}{
		{int64(300), 300, true},
		{300, 300, true},
		{int32(300), 300, true},
		{float64(300), 300, true},
		{json.Number("300"), 300, true},
		{300.5, 0, false},
		{json.Number("x"), 0, false},
		{"300", 0, false},
		{nil, 0, false},
	}
	for _, tc := range cases {
		got, ok := ToInt64(tc.in)
		assert.Equal(t, tc.ok, ok, "%v", tc.in)
		assert.Equal(t, tc.want, got, "%v", tc.in)
	}
}
