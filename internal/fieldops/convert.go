package fieldops

import (
	"time"

	"github.com/fieldline/ops-backend/internal/assignment"
	"github.com/fieldline/ops-backend/internal/compliance"
	"github.com/fieldline/ops-backend/internal/geo"
)

// sites maps jobs onto geofenced sites. Jobs without both coordinates get no
// geofence and never match a point.
func sites(jobs []Job, fallbackRadius float64) []geo.Site {
	out := make([]geo.Site, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, geo.Site{
			ID:       j.ID.String(),
			Geofence: geo.NewGeofence(j.SiteLat, j.SiteLng, j.GeofenceRadiusMeters, fallbackRadius),
		})
	}
	return out
}

func entities(jobs []Job) []assignment.Entity {
	out := make([]assignment.Entity, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, assignment.Entity{ID: j.ID.String(), Name: j.Name, Status: j.Status})
	}
	return out
}

func complianceJobs(jobs []Job) []compliance.Job {
	out := make([]compliance.Job, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, compliance.Job{ID: j.ID.String(), Name: j.Name, StartDate: j.StartDate})
	}
	return out
}

func complianceRecords(permits []Permit) []compliance.Record {
	out := make([]compliance.Record, 0, len(permits))
	for _, p := range permits {
		out = append(out, compliance.Record{
			ID:        p.ID.String(),
			JobID:     p.JobID.String(),
			Name:      p.Name,
			Status:    compliance.ParseRecordStatus(p.Status),
			ExpiresAt: p.ExpiresAt,
		})
	}
	return out
}

func calendarEvents(events []ScheduleEvent) []assignment.CalendarEvent {
	out := make([]assignment.CalendarEvent, 0, len(events))
	for _, ev := range events {
		if ev.JobID == nil {
			continue
		}
		out = append(out, assignment.CalendarEvent{
			EntityID: ev.JobID.String(),
			OwnerID:  ev.CrewMemberID,
			Start:    ev.Start.Format(time.RFC3339),
			Type:     ev.Type,
		})
	}
	return out
}

// applyDecision writes d onto the photo's assignment columns.
func applyDecision(p *Photo, d assignment.Decision) {
	p.AssignmentStatus = string(d.Status())
	p.AssignmentSource = string(d.Provenance())
	p.JobID = nil
	p.CandidateJobIDs = nil
	p.CandidateDistances = nil
	p.CandidateRadii = nil
	p.OptionJobIDs = nil

	switch d := d.(type) {
	case assignment.Assigned:
		id := d.EntityID
		p.JobID = &id
	case assignment.NeedsChoice:
		for _, c := range d.Display() {
			p.CandidateJobIDs = append(p.CandidateJobIDs, c.EntityID)
			p.CandidateDistances = append(p.CandidateDistances, c.DistanceMeters)
			p.CandidateRadii = append(p.CandidateRadii, c.RadiusMeters)
		}
		p.OptionJobIDs = append(p.OptionJobIDs, d.Options...)
	case assignment.Unassigned:
	}
}

// photoDecision rebuilds the decision stored on a photo.
func photoDecision(p *Photo) assignment.Decision {
	source := assignment.Provenance(p.AssignmentSource)
	switch assignment.Status(p.AssignmentStatus) {
	case assignment.StatusAssigned:
		if p.JobID != nil {
			return assignment.Assigned{EntityID: *p.JobID, Source: source}
		}
	case assignment.StatusNeedsChoice:
		pending := assignment.NeedsChoice{
			Options: append([]string(nil), p.OptionJobIDs...),
			Limit:   len(p.CandidateJobIDs),
			Source:  source,
		}
		for i, id := range p.CandidateJobIDs {
			c := geo.CandidateMatch{EntityID: id}
			if i < len(p.CandidateDistances) {
				c.DistanceMeters = p.CandidateDistances[i]
			}
			if i < len(p.CandidateRadii) {
				c.RadiusMeters = p.CandidateRadii[i]
			}
			pending.Candidates = append(pending.Candidates, c)
		}
		return pending
	}
	return assignment.Unassigned{Source: source}
}
