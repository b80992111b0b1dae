package utils

import (
	"strings"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

// NormalizeStatus folds a free-form status ("Not Needed", "APPROVED",
// "in-progress") into its snake_case key ("not_needed", "approved", "in_progress").
func NormalizeStatus(s string) string {
	s = folder.String(strings.TrimSpace(s))
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	}), "_")
}
