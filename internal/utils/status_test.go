package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStatus(t *testing.T) {
	cases := map[string]string{
		"approved":     "approved",
		"APPROVED":     "approved",
		"  Applied ":   "applied",
		"Not Needed":   "not_needed",
		"not-needed":   "not_needed",
		"in__progress": "in_progress",
		"":             "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeStatus(in), "input %q", in)
	}
}
