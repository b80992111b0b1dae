package fieldops

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Job is a unit of field work with an optional site geofence.
type Job struct {
	ID                   uuid.UUID  `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	Name                 string     `gorm:"not null" json:"name"`
	Status               string     `gorm:"not null;default:'lead';index" json:"status"`
	SiteLat              *float64   `json:"site_lat,omitempty"`
	SiteLng              *float64   `json:"site_lng,omitempty"`
	GeofenceRadiusMeters *float64   `json:"geofence_radius_meters,omitempty"`
	StartDate            *time.Time `json:"start_date,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`

	Permits []Permit `gorm:"foreignKey:JobID" json:"permits,omitempty"`
}

func (Job) TableName() string {
	return "fieldops.jobs"
}

// Permit is a permit, inspection or other dated compliance item on a job.
type Permit struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	JobID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"job_id"`
	Name      string     `json:"name"`
	Status    string     `gorm:"not null;default:'required'" json:"status"` // required, applied, approved, rejected, expired, not_needed
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (Permit) TableName() string {
	return "fieldops.permits"
}

// ScheduleEvent is a calendar entry synced from the crew calendar.
type ScheduleEvent struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	JobID        *uuid.UUID `gorm:"type:uuid;index" json:"job_id,omitempty"`
	CrewMemberID string     `gorm:"not null;index:idx_schedule_crew_start" json:"crew_member_id"`
	Start        time.Time  `gorm:"not null;index:idx_schedule_crew_start" json:"start"`
	Type         string     `gorm:"not null;default:'job'" json:"type"` // job, meeting, travel, ...
	Title        string     `json:"title"`
}

func (ScheduleEvent) TableName() string {
	return "fieldops.schedule_events"
}

// Photo is a captured site photo and its job assignment.
//
// CandidateJobIDs / CandidateDistances / CandidateRadii hold the displayed
// candidates of a pending choice (at most the display limit). OptionJobIDs holds
// every job a person may still pick. All four are cleared once the choice is
// committed.
type Photo struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	URL              string    `json:"url"`
	CapturedBy       string    `gorm:"index" json:"captured_by"`
	CapturedAt       time.Time `json:"captured_at"`
	Lat              *float64  `json:"lat,omitempty"`
	Lng              *float64  `json:"lng,omitempty"`
	AccuracyMeters   *float64  `json:"accuracy_meters,omitempty"`
	AssignmentStatus string    `gorm:"not null;index" json:"assignment_status"` // assigned, needs_choice, unassigned
	AssignmentSource string    `gorm:"not null" json:"assignment_source"`       // manual, gps, schedule, unknown
	JobID            *string   `gorm:"type:uuid;index" json:"job_id,omitempty"`

	CandidateJobIDs    pq.StringArray  `gorm:"type:text[]" json:"-"`
	CandidateDistances pq.Float64Array `gorm:"type:float8[]" json:"-"`
	CandidateRadii     pq.Float64Array `gorm:"type:float8[]" json:"-"`
	OptionJobIDs       pq.StringArray  `gorm:"type:text[]" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Photo) TableName() string {
	return "fieldops.photos"
}

// Alert is a persisted compliance alert. ID is the scanner's stable id, so
// repeated scans update the same row and Dismissed survives them.
type Alert struct {
	ID          string    `gorm:"primaryKey;size:128" json:"id"`
	Severity    string    `gorm:"not null;index" json:"severity"`
	SubjectID   string    `gorm:"not null;index" json:"subject_id"`
	Message     string    `json:"message"`
	Dismissed   bool      `gorm:"not null;default:false" json:"dismissed"`
	FirstSeenAt time.Time `json:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

func (Alert) TableName() string {
	return "fieldops.alerts"
}
