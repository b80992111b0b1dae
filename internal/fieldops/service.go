// Package fieldops serves the job-resolution and compliance-alert endpoints of
// the field operations backend. It owns persistence; the resolvers it calls
// (assignment, compliance) are pure and see only the datasets passed to them.
package fieldops

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/fieldline/ops-backend/internal/assignment"
	"github.com/fieldline/ops-backend/internal/compliance"
	"github.com/fieldline/ops-backend/internal/config"
	"github.com/fieldline/ops-backend/internal/geo"
	"github.com/fieldline/ops-backend/internal/location"
)

var ErrUnknownJob = errors.New("unknown job")

// Service wires the resolvers to a Store.
type Service struct {
	store  Store
	policy config.Policy
	tz     *time.Location
	now    func() time.Time
}

// NewService builds a service. A nil tz means UTC.
func NewService(store Store, policy config.Policy, tz *time.Location) *Service {
	if tz == nil {
		tz = time.UTC
	}
	return &Service{store: store, policy: policy, tz: tz, now: time.Now}
}

// CaptureInput is a photo as uploaded by the crew app. Point is nil when the
// device had no fix or location permission was denied.
type CaptureInput struct {
	URL          string
	CapturedBy   string
	CapturedAt   time.Time
	ManualJobID  string
	Point        *geo.Point
	LocationWait time.Duration
}

// CapturePhoto resolves the photo's job and stores it with the decision.
func (s *Service) CapturePhoto(ctx context.Context, in CaptureInput) (*Photo, error) {
	jobs, err := s.store.ListJobs(ctx)
	if err != nil {
		return nil, err
	}
	if in.ManualJobID != "" && !hasJob(jobs, in.ManualJobID) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, in.ManualJobID)
	}

	wait := in.LocationWait
	if wait <= 0 {
		wait = s.policy.LocationTimeout
	}
	fix := location.Acquire(ctx, location.Static(in.Point), wait)

	decision := s.policy.Assignment().Resolve(in.ManualJobID, fix, sites(jobs, s.policy.DefaultRadiusMeters))

	capturedAt := in.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = s.now()
	}
	p := &Photo{
		ID:         uuid.New(),
		URL:        in.URL,
		CapturedBy: in.CapturedBy,
		CapturedAt: capturedAt,
	}
	if pt, ok := fix.Get(); ok {
		p.Lat, p.Lng, p.AccuracyMeters = &pt.Lat, &pt.Lng, &pt.AccuracyMeters
	}
	applyDecision(p, decision)

	if err := s.store.CreatePhoto(ctx, p); err != nil {
		return nil, err
	}
	log.Printf("[fieldops] photo %s %s via %s", p.ID, p.AssignmentStatus, p.AssignmentSource)
	return p, nil
}

// ResolvePhoto closes a pending choice on a photo. An empty jobID clears it to
// an explicit unassigned.
func (s *Service) ResolvePhoto(ctx context.Context, photoID uuid.UUID, jobID string) (*Photo, error) {
	return s.store.UpdatePhoto(ctx, photoID, func(p *Photo) error {
		current := photoDecision(p)

		var next assignment.Decision
		var err error
		if jobID == "" {
			next, err = assignment.Dismiss(current)
		} else {
			next, err = assignment.Commit(current, jobID)
		}
		if err != nil {
			return err
		}
		applyDecision(p, next)
		return nil
	})
}

// TodayContext resolves the crew member's job from today's schedule.
func (s *Service) TodayContext(ctx context.Context, crewMemberID string) (assignment.ScheduleResult, error) {
	now := s.now().In(s.tz)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.tz)

	events, err := s.store.ListScheduleEvents(ctx, crewMemberID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return assignment.ScheduleResult{}, err
	}
	jobs, err := s.store.ListJobs(ctx)
	if err != nil {
		return assignment.ScheduleResult{}, err
	}

	slots := assignment.TodaySlots(calendarEvents(events), crewMemberID, now)
	return assignment.ResolveFromSchedule(crewMemberID, slots, entities(jobs)), nil
}

// Candidates ranks every job whose geofence contains p, without the display cap.
func (s *Service) Candidates(ctx context.Context, p geo.Point) ([]geo.CandidateMatch, error) {
	jobs, err := s.store.ListJobs(ctx)
	if err != nil {
		return nil, err
	}
	return geo.FindCandidates(p, sites(jobs, s.policy.DefaultRadiusMeters)), nil
}

// Scan computes the current alerts without persisting them.
func (s *Service) Scan(ctx context.Context) ([]compliance.Alert, error) {
	jobs, err := s.store.ListJobs(ctx)
	if err != nil {
		return nil, err
	}
	permits, err := s.store.ListPermits(ctx)
	if err != nil {
		return nil, err
	}
	return s.policy.Compliance().Scan(complianceJobs(jobs), complianceRecords(permits), s.now()), nil
}

// ScanAndRecord scans, persists the alerts and returns all of them plus the
// ones never stored before.
func (s *Service) ScanAndRecord(ctx context.Context) (all, fresh []compliance.Alert, err error) {
	all, err = s.Scan(ctx)
	if err != nil {
		return nil, nil, err
	}
	fresh, err = s.store.RecordAlerts(ctx, all, s.now())
	if err != nil {
		return nil, nil, err
	}
	log.Printf("[scan] %d alerts, %d new", len(all), len(fresh))
	return all, fresh, nil
}

func (s *Service) GetPhoto(ctx context.Context, id uuid.UUID) (*Photo, error) {
	return s.store.GetPhoto(ctx, id)
}

func (s *Service) ListAlerts(ctx context.Context, includeDismissed bool) ([]Alert, error) {
	return s.store.ListAlerts(ctx, includeDismissed)
}

func (s *Service) DismissAlert(ctx context.Context, id string) error {
	return s.store.DismissAlert(ctx, id)
}

func (s *Service) ListJobs(ctx context.Context) ([]Job, error) {
	return s.store.ListJobs(ctx)
}

func hasJob(jobs []Job, id string) bool {
	for _, j := range jobs {
		if j.ID.String() == id {
			return true
		}
	}
	return false
}
