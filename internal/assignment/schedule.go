package assignment

import (
	"time"

	"github.com/fieldline/ops-backend/internal/utils"
)

// DateKeyLayout is the calendar-day key used to restrict slots to "today".
const DateKeyLayout = "2006-01-02"

// EventTypeJob is the calendar event type that references a job.
const EventTypeJob = "job"

// terminalStatuses are job states excluded from the active universe.
var terminalStatuses = map[string]struct{}{
	"completed": {},
	"closed":    {},
	"cancelled": {},
	"canceled":  {},
	"archived":  {},
}

// Entity is a job as the schedule resolver sees it.
type Entity struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Status string `json:"status"`
}

// Active reports whether the job is not in a terminal state.
func (e Entity) Active() bool {
	_, done := terminalStatuses[utils.NormalizeStatus(e.Status)]
	return !done
}

// Slot is a job-type calendar event for one crew member on one day.
type Slot struct {
	EntityID string `json:"entity_id"`
	OwnerID  string `json:"owner_id"`
	DateKey  string `json:"date_key"`
}

// CalendarEvent is a raw event from the calendar store.
type CalendarEvent struct {
	EntityID string `json:"entity_id"`
	OwnerID  string `json:"owner_id"`
	Start    string `json:"start"`
	Type     string `json:"type"`
}

// TodaySlots keeps the job-type events owned by ownerID that start on now's
// calendar day in now's location. Events with an unparsable start are skipped.
func TodaySlots(events []CalendarEvent, ownerID string, now time.Time) []Slot {
	today := now.Format(DateKeyLayout)

	var slots []Slot
	for _, ev := range events {
		if ev.OwnerID != ownerID || utils.NormalizeStatus(ev.Type) != EventTypeJob || ev.EntityID == "" {
			continue
		}
		start, err := time.Parse(time.RFC3339, ev.Start)
		if err != nil {
			continue
		}
		key := start.In(now.Location()).Format(DateKeyLayout)
		if key != today {
			continue
		}
		slots = append(slots, Slot{EntityID: ev.EntityID, OwnerID: ev.OwnerID, DateKey: key})
	}
	return slots
}

// ScheduleResult is the decision plus the jobs a person should be prompted with.
// PromptPool is nil when the decision is Assigned.
type ScheduleResult struct {
	Decision   Decision
	PromptPool []Entity
}

// ResolveFromSchedule picks a job from a crew member's slots for today.
//
// One scheduled job is Assigned. Several are a NeedsChoice limited to those
// jobs. None falls back to a NeedsChoice over every active job in universe, so
// the crew member always has a list to pick from. This resolver never returns
// Unassigned.
//
// Slots owned by someone other than ownerID are ignored, and repeated slots for
// the same job count once.
func ResolveFromSchedule(ownerID string, today []Slot, universe []Entity) ScheduleResult {
	var scheduled []string
	seen := make(map[string]struct{})
	for _, s := range today {
		if s.OwnerID != ownerID {
			continue
		}
		if _, dup := seen[s.EntityID]; dup {
			continue
		}
		seen[s.EntityID] = struct{}{}
		scheduled = append(scheduled, s.EntityID)
	}

	switch len(scheduled) {
	case 1:
		return ScheduleResult{
			Decision: Assigned{EntityID: scheduled[0], Source: ProvenanceSchedule},
		}
	case 0:
		pool := make([]Entity, 0, len(universe))
		for _, e := range universe {
			if e.Active() {
				pool = append(pool, e)
			}
		}
		return pendingFromPool(pool)
	default:
		byID := make(map[string]Entity, len(universe))
		for _, e := range universe {
			byID[e.ID] = e
		}
		pool := make([]Entity, 0, len(scheduled))
		for _, id := range scheduled {
			e, ok := byID[id]
			if !ok {
				e = Entity{ID: id}
			}
			pool = append(pool, e)
		}
		return pendingFromPool(pool)
	}
}

func pendingFromPool(pool []Entity) ScheduleResult {
	options := make([]string, 0, len(pool))
	for _, e := range pool {
		options = append(options, e.ID)
	}
	return ScheduleResult{
		Decision:   NeedsChoice{Options: options, Source: ProvenanceSchedule},
		PromptPool: pool,
	}
}
