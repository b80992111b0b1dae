// Package compliance raises date-proximity risk alerts for jobs and the
// permit-like records attached to them.
//
// Alerts carry an id derived only from their subject, so scanning the same data
// twice yields the same ids. Scan keeps no state; diffing against alerts a user
// has already seen is the caller's job (see Unseen).
package compliance

import (
	"time"

	"github.com/fieldline/ops-backend/internal/utils"
)

// Severity is the closed set of alert levels.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Valid reports whether s is one of the declared levels.
func (s Severity) Valid() bool {
	switch s {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// RecordStatus is the lifecycle of a permit-like record.
type RecordStatus string

const (
	StatusRequired  RecordStatus = "required"
	StatusApplied   RecordStatus = "applied"
	StatusApproved  RecordStatus = "approved"
	StatusRejected  RecordStatus = "rejected"
	StatusExpired   RecordStatus = "expired"
	StatusNotNeeded RecordStatus = "not_needed"
)

// ParseRecordStatus folds free-form input onto a RecordStatus. Unknown values
// come back as-is and are neither blocking nor approved.
func ParseRecordStatus(s string) RecordStatus {
	return RecordStatus(utils.NormalizeStatus(s))
}

// Blocking reports whether a record in this state holds up a job start.
func (s RecordStatus) Blocking() bool {
	switch s {
	case StatusRequired, StatusApplied, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// Job is the part of a job the scanner reads.
type Job struct {
	ID        string
	Name      string
	StartDate *time.Time
}

// Record is a permit, inspection or other dated compliance item on a job.
type Record struct {
	ID        string
	JobID     string
	Name      string
	Status    RecordStatus
	ExpiresAt *time.Time
}

// Alert is one scan finding. ID is stable across scans for the same subject.
type Alert struct {
	ID        string   `json:"id"`
	Severity  Severity `json:"severity"`
	SubjectID string   `json:"subject_id"`
	Message   string   `json:"message"`
}

// JobWindow is the start-readiness window of a job at scan time.
type JobWindow struct {
	JobID             string
	DaysUntilStart    float64
	BlockingItemCount int
}

// RecordWindow is the expiry window of an approved record at scan time.
type RecordWindow struct {
	RecordID        string
	DaysUntilExpiry float64
}

// Alert id prefixes.
const (
	startPrefix  = "start:"
	expiryPrefix = "expiry:"
)

// StartAlertID is the alert id for a job's start-readiness finding.
func StartAlertID(jobID string) string { return startPrefix + jobID }

// ExpiryAlertID is the alert id for a record's expiry finding.
func ExpiryAlertID(recordID string) string { return expiryPrefix + recordID }
