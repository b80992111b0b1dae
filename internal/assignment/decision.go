// Package assignment turns location and schedule signals into a job assignment
// for a captured record (photo, note, quick action).
//
// Every resolver returns one of three decisions: Assigned, NeedsChoice or
// Unassigned. NeedsChoice is the only non-terminal state; it stays pending until
// a person picks a job through Commit or clears it through Dismiss.
package assignment

import (
	"errors"
	"slices"

	"github.com/fieldline/ops-backend/internal/geo"
)

// DefaultDisplayLimit caps how many candidates a pending choice presents.
const DefaultDisplayLimit = 3

var (
	ErrNotPending    = errors.New("decision is not awaiting a choice")
	ErrNotACandidate = errors.New("chosen job is not one of the offered options")
)

// Status is the persisted tag of a Decision.
type Status string

const (
	StatusAssigned    Status = "assigned"
	StatusNeedsChoice Status = "needs_choice"
	StatusUnassigned  Status = "unassigned"
)

// Provenance records which signal produced a decision.
type Provenance string

const (
	ProvenanceManual   Provenance = "manual"
	ProvenanceGPS      Provenance = "gps"
	ProvenanceSchedule Provenance = "schedule"
	// ProvenanceUnknown marks a decision made without any signal to search with.
	ProvenanceUnknown  Provenance = "unknown"
)

// Decision is a closed sum over Assigned, NeedsChoice and Unassigned.
// Callers switch on the concrete type.
type Decision interface {
	Status() Status
	Provenance() Provenance
	sealed()
}

// Assigned is a definite job.
type Assigned struct {
	EntityID string
	Source   Provenance
}

func (Assigned) Status() Status { return StatusAssigned }
func (a Assigned) Provenance() Provenance { return a.Source }
func (Assigned) sealed() {}

// NeedsChoice is an ambiguous signal awaiting a person.
//
// Candidates is the full spatial ranking, nearest first; it is empty for
// schedule-derived choices. Options lists every job id a person may pick.
// Limit only governs Display.
type NeedsChoice struct {
	Candidates []geo.CandidateMatch
	Options    []string
	Limit      int
	Source     Provenance
}

func (NeedsChoice) Status() Status { return StatusNeedsChoice }
func (n NeedsChoice) Provenance() Provenance { return n.Source }
func (NeedsChoice) sealed() {}

// Display returns the candidates to present, truncated to Limit.
func (n NeedsChoice) Display() []geo.CandidateMatch {
	limit := n.Limit
	if limit <= 0 {
		limit = DefaultDisplayLimit
	}
	if len(n.Candidates) <= limit {
		return n.Candidates
	}
	return n.Candidates[:limit]
}

// Unassigned means no job could be attached. Source tells "searched and found
// nothing" (gps) apart from "never searched" (unknown) and an explicit clear
// (manual).
type Unassigned struct {
	Source Provenance
}

func (Unassigned) Status() Status { return StatusUnassigned }
func (u Unassigned) Provenance() Provenance { return u.Source }
func (Unassigned) sealed() {}

// Commit closes a pending choice with the job a person picked. It does not
// persist anything; the caller stores the returned decision and drops the
// candidate list.
func Commit(d Decision, chosenID string) (Assigned, error) {
	pending, ok := d.(NeedsChoice)
	if !ok {
		return Assigned{}, ErrNotPending
	}
	if !slices.Contains(pending.Options, chosenID) {
		return Assigned{}, ErrNotACandidate
	}
	return Assigned{EntityID: chosenID, Source: ProvenanceManual}, nil
}

// Dismiss closes a pending choice with an explicit "none of these".
func Dismiss(d Decision) (Unassigned, error) {
	if _, ok := d.(NeedsChoice); !ok {
		return Unassigned{}, ErrNotPending
	}
	return Unassigned{Source: ProvenanceManual}, nil
}

func candidateIDs(cs []geo.CandidateMatch) []string {
	ids := make([]string, 0, len(cs))
	for _, c := range cs {
		ids = append(ids, c.EntityID)
	}
	return ids
}
