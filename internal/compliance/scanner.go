package compliance

import (
	"fmt"
	"math"
	"time"
)

const millisPerDay = 86_400_000

// Policy holds the scan windows, in days.
type Policy struct {
	StartWindowDays  float64
	ExpiryWindowDays float64
}

// DefaultPolicy alerts a week before start and two weeks before expiry.
var DefaultPolicy = Policy{StartWindowDays: 7, ExpiryWindowDays: 14}

// Scan applies DefaultPolicy.
func Scan(jobs []Job, records []Record, now time.Time) []Alert {
	return DefaultPolicy.Scan(jobs, records, now)
}

// Scan runs both rules against the same now and returns start alerts in job
// order followed by expiry alerts in record order.
//
// Start readiness: a job with a start date no more than StartWindowDays away and
// at least one blocking record gets one high alert. Jobs whose start is already
// past still match because there is no lower bound.
//
// Expiry warning: an approved record expiring within (0, ExpiryWindowDays] gets
// one medium alert. Records that are already expired are left to the start rule
// once their status changes.
func (p Policy) Scan(jobs []Job, records []Record, now time.Time) []Alert {
	var alerts []Alert
	for _, w := range JobWindows(jobs, records, now) {
		if w.DaysUntilStart > p.StartWindowDays || w.BlockingItemCount == 0 {
			continue
		}
		alerts = append(alerts, Alert{
			ID:        StartAlertID(w.JobID),
			Severity:  SeverityHigh,
			SubjectID: w.JobID,
			Message:   startMessage(w),
		})
	}

	for _, w := range RecordWindows(records, now) {
		if w.DaysUntilExpiry <= 0 || w.DaysUntilExpiry > p.ExpiryWindowDays {
			continue
		}
		alerts = append(alerts, Alert{
			ID:        ExpiryAlertID(w.RecordID),
			Severity:  SeverityMedium,
			SubjectID: w.RecordID,
			Message:   expiryMessage(w),
		})
	}
	return alerts
}

// JobWindows returns the start-readiness window of every job with a start date.
func JobWindows(jobs []Job, records []Record, now time.Time) []JobWindow {
	blocking := make(map[string]int)
	for _, r := range records {
		if r.Status.Blocking() {
			blocking[r.JobID]++
		}
	}

	var out []JobWindow
	for _, j := range jobs {
		if j.StartDate == nil {
			continue
		}
		out = append(out, JobWindow{
			JobID:             j.ID,
			DaysUntilStart:    daysBetween(now, *j.StartDate),
			BlockingItemCount: blocking[j.ID],
		})
	}
	return out
}

// RecordWindows returns the expiry window of every approved record with an
// expiry date.
func RecordWindows(records []Record, now time.Time) []RecordWindow {
	var out []RecordWindow
	for _, r := range records {
		if r.Status != StatusApproved || r.ExpiresAt == nil {
			continue
		}
		out = append(out, RecordWindow{
			RecordID:        r.ID,
			DaysUntilExpiry: daysBetween(now, *r.ExpiresAt),
		})
	}
	return out
}

func daysBetween(from, to time.Time) float64 {
	return float64(to.Sub(from).Milliseconds()) / millisPerDay
}

func startMessage(w JobWindow) string {
	items := plural(w.BlockingItemCount, "blocking item", "blocking items")
	days := math.Ceil(w.DaysUntilStart)
	if days < 0 {
		return fmt.Sprintf("%s outstanding; job started %s ago", items, plural(int(-days), "day", "days"))
	}
	return fmt.Sprintf("%s outstanding; job starts in %s", items, plural(int(days), "day", "days"))
}

func expiryMessage(w RecordWindow) string {
	return fmt.Sprintf("Approved permit expires in %s", plural(int(math.Ceil(w.DaysUntilExpiry)), "day", "days"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
