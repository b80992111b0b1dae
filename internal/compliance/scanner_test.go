package compliance_test

import (
	"testing"
	"time"

	"github.com/fieldline/ops-backend/internal/compliance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func inDays(d float64) *time.Time {
	t := now.Add(time.Duration(d * float64(24*time.Hour)))
	return &t
}

func TestScan_StartReadiness(t *testing.T) {
	jobs := []compliance.Job{{ID: "J1", StartDate: inDays(5)}}
	records := []compliance.Record{{ID: "P1", JobID: "J1", Status: compliance.StatusApplied}}

	alerts := compliance.Scan(jobs, records, now)

	require.Len(t, alerts, 1)
	assert.Equal(t, "start:J1", alerts[0].ID)
	assert.Equal(t, compliance.SeverityHigh, alerts[0].Severity)
	assert.Equal(t, "J1", alerts[0].SubjectID)
	assert.Contains(t, alerts[0].Message, "1 blocking item")
	assert.Contains(t, alerts[0].Message, "5 days")
}

func TestScan_IdempotentIdentity(t *testing.T) {
	jobs := []compliance.Job{{ID: "J1", StartDate: inDays(5)}}
	records := []compliance.Record{{ID: "P1", JobID: "J1", Status: compliance.StatusRequired}}

	first := compliance.Scan(jobs, records, now)
	second := compliance.Scan(jobs, records, now)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
}

func TestScan_StartWindowBoundaries(t *testing.T) {
	records := []compliance.Record{
		{ID: "P1", JobID: "edge", Status: compliance.StatusRejected},
		{ID: "P2", JobID: "late", Status: compliance.StatusRejected},
		{ID: "P3", JobID: "past", Status: compliance.StatusExpired},
	}
	jobs := []compliance.Job{
		{ID: "edge", StartDate: inDays(7)},
		{ID: "late", StartDate: inDays(7.5)},
		{ID: "past", StartDate: inDays(-30)},
		{ID: "undated"},
	}

	alerts := compliance.Scan(jobs, records, now)

	// No lower bound: jobs that already started still alert.
	assert.Equal(t, []string{"start:edge", "start:past"}, alertIDs(alerts))
	assert.Contains(t, alerts[1].Message, "started 30 days ago")
}

func TestScan_NoBlockersNoAlert(t *testing.T) {
	jobs := []compliance.Job{{ID: "J1", StartDate: inDays(2)}}
	records := []compliance.Record{
		{ID: "P1", JobID: "J1", Status: compliance.StatusApproved},
		{ID: "P2", JobID: "J1", Status: compliance.StatusNotNeeded},
		{ID: "P3", JobID: "J2", Status: compliance.StatusRequired},
	}

	assert.Empty(t, compliance.Scan(jobs, records, now))
}

func TestScan_ExpiryWarning(t *testing.T) {
	records := []compliance.Record{
		{ID: "soon", Status: compliance.StatusApproved, ExpiresAt: inDays(10)},
		{ID: "later", Status: compliance.StatusApproved, ExpiresAt: inDays(20)},
		{ID: "gone", Status: compliance.StatusApproved, ExpiresAt: inDays(-1)},
		{ID: "edge", Status: compliance.StatusApproved, ExpiresAt: inDays(14)},
		{ID: "now", Status: compliance.StatusApproved, ExpiresAt: inDays(0)},
		{ID: "applied", Status: compliance.StatusApplied, ExpiresAt: inDays(3)},
		{ID: "undated", Status: compliance.StatusApproved},
	}

	alerts := compliance.Scan(nil, records, now)

	assert.Equal(t, []string{"expiry:soon", "expiry:edge"}, alertIDs(alerts))
	for _, a := range alerts {
		assert.Equal(t, compliance.SeverityMedium, a.Severity)
	}
	assert.Equal(t, "soon", alerts[0].SubjectID)
	assert.Contains(t, alerts[0].Message, "10 days")
}

func TestScan_RulesRunIndependently(t *testing.T) {
	jobs := []compliance.Job{{ID: "J1", StartDate: inDays(3)}}
	records := []compliance.Record{
		{ID: "P1", JobID: "J1", Status: compliance.StatusRequired},
		{ID: "P2", JobID: "J1", Status: compliance.StatusApproved, ExpiresAt: inDays(4)},
	}

	alerts := compliance.Scan(jobs, records, now)

	assert.Equal(t, []string{"start:J1", "expiry:P2"}, alertIDs(alerts))
}

func TestPolicy_CustomWindows(t *testing.T) {
	p := compliance.Policy{StartWindowDays: 2, ExpiryWindowDays: 30}
	jobs := []compliance.Job{{ID: "J1", StartDate: inDays(5)}}
	records := []compliance.Record{
		{ID: "P1", JobID: "J1", Status: compliance.StatusRequired},
		{ID: "P2", Status: compliance.StatusApproved, ExpiresAt: inDays(20)},
	}

	assert.Equal(t, []string{"expiry:P2"}, alertIDs(p.Scan(jobs, records, now)))
}

func TestJobWindows(t *testing.T) {
	jobs := []compliance.Job{{ID: "J1", StartDate: inDays(1.5)}, {ID: "J2"}}
	records := []compliance.Record{
		{ID: "P1", JobID: "J1", Status: compliance.StatusRequired},
		{ID: "P2", JobID: "J1", Status: compliance.StatusApplied},
	}

	windows := compliance.JobWindows(jobs, records, now)

	require.Len(t, windows, 1)
	assert.InDelta(t, 1.5, windows[0].DaysUntilStart, 1e-9)
	assert.Equal(t, 2, windows[0].BlockingItemCount)
}

func TestUnseen(t *testing.T) {
	scanned := []compliance.Alert{{ID: "start:J1"}, {ID: "expiry:P1"}, {ID: "start:J2"}}
	seen := map[string]struct{}{"start:J1": {}}

	assert.Equal(t, []string{"expiry:P1", "start:J2"}, alertIDs(compliance.Unseen(scanned, seen)))
	assert.Empty(t, compliance.Unseen(scanned, map[string]struct{}{
		"start:J1": {}, "expiry:P1": {}, "start:J2": {},
	}))
}

func TestParseRecordStatus(t *testing.T) {
	assert.Equal(t, compliance.StatusApproved, compliance.ParseRecordStatus("Approved"))
	assert.Equal(t, compliance.StatusNotNeeded, compliance.ParseRecordStatus("not needed"))
	assert.True(t, compliance.ParseRecordStatus("REQUIRED").Blocking())
	assert.False(t, compliance.ParseRecordStatus("pending review").Blocking())
}

func TestParseDate(t *testing.T) {
	got := compliance.ParseDate("2026-10-20")
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC), *got)

	assert.NotNil(t, compliance.ParseDate("2026-10-20T08:30:00-05:00"))
	assert.Nil(t, compliance.ParseDate(""))
	assert.Nil(t, compliance.ParseDate("next tuesday"))
}

func TestSeverityValid(t *testing.T) {
	assert.True(t, compliance.SeverityLow.Valid())
	assert.False(t, compliance.Severity("critical").Valid())
}

func alertIDs(alerts []compliance.Alert) []string {
	out := make([]string, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.ID)
	}
	return out
}
