package compliance

import "time"

// Unseen returns the alerts whose id is not in seen, in scan order.
func Unseen(scanned []Alert, seen map[string]struct{}) []Alert {
	var out []Alert
	for _, a := range scanned {
		if _, ok := seen[a.ID]; !ok {
			out = append(out, a)
		}
	}
	return out
}

// dateLayouts are the accepted inputs of ParseDate.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// ParseDate reads an ISO-8601 timestamp or a bare date (midnight UTC). Empty or
// malformed input returns nil so the record is skipped by the rule that needs it.
func ParseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
