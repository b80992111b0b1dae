package fieldops

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fieldline/ops-backend/internal/compliance"
)

var ErrNotFound = errors.New("not found")

// Store is the persistence the fieldops service needs. Resolvers never touch
// it; the service reads datasets through it and writes decisions back.
type Store interface {
	ListJobs(ctx context.Context) ([]Job, error)
	ListPermits(ctx context.Context) ([]Permit, error)
	ListScheduleEvents(ctx context.Context, crewMemberID string, from, to time.Time) ([]ScheduleEvent, error)

	CreatePhoto(ctx context.Context, p *Photo) error
	GetPhoto(ctx context.Context, id uuid.UUID) (*Photo, error)
	// UpdatePhoto runs fn on the locked current row and saves the result.
	// Concurrent updates to the same photo are serialised.
	UpdatePhoto(ctx context.Context, id uuid.UUID, fn func(*Photo) error) (*Photo, error)

	// RecordAlerts upserts scanned alerts by id and returns the ones that had
	// never been stored before. Dismissed flags are preserved.
	RecordAlerts(ctx context.Context, alerts []compliance.Alert, now time.Time) ([]compliance.Alert, error)
	ListAlerts(ctx context.Context, includeDismissed bool) ([]Alert, error)
	DismissAlert(ctx context.Context, id string) error
}

// GormStore implements Store on Postgres.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) ListJobs(ctx context.Context) ([]Job, error) {
	var jobs []Job
	if err := s.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

func (s *GormStore) ListPermits(ctx context.Context) ([]Permit, error) {
	var permits []Permit
	if err := s.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&permits).Error; err != nil {
		return nil, fmt.Errorf("list permits: %w", err)
	}
	return permits, nil
}

func (s *GormStore) ListScheduleEvents(ctx context.Context, crewMemberID string, from, to time.Time) ([]ScheduleEvent, error) {
	var events []ScheduleEvent
	err := s.db.WithContext(ctx).
		Where("crew_member_id = ? AND start >= ? AND start < ?", crewMemberID, from, to).
		Order("start ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("list schedule events: %w", err)
	}
	return events, nil
}

func (s *GormStore) CreatePhoto(ctx context.Context, p *Photo) error {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create photo: %w", err)
	}
	return nil
}

func (s *GormStore) GetPhoto(ctx context.Context, id uuid.UUID) (*Photo, error) {
	var p Photo
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get photo: %w", err)
	}
	return &p, nil
}

func (s *GormStore) UpdatePhoto(ctx context.Context, id uuid.UUID, fn func(*Photo) error) (*Photo, error) {
	var p Photo
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("lock photo: %w", err)
		}
		if err := fn(&p); err != nil {
			return err
		}
		if err := tx.Save(&p).Error; err != nil {
			return fmt.Errorf("save photo: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *GormStore) RecordAlerts(ctx context.Context, alerts []compliance.Alert, now time.Time) ([]compliance.Alert, error) {
	if len(alerts) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(alerts))
	for _, a := range alerts {
		ids = append(ids, a.ID)
	}

	var fresh []compliance.Alert
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []string
		if err := tx.Model(&Alert{}).Where("id IN ?", ids).Pluck("id", &existing).Error; err != nil {
			return fmt.Errorf("load seen alerts: %w", err)
		}
		seen := make(map[string]struct{}, len(existing))
		for _, id := range existing {
			seen[id] = struct{}{}
		}
		fresh = compliance.Unseen(alerts, seen)

		rows := make([]Alert, 0, len(alerts))
		for _, a := range alerts {
			rows = append(rows, Alert{
				ID:          a.ID,
				Severity:    string(a.Severity),
				SubjectID:   a.SubjectID,
				Message:     a.Message,
				FirstSeenAt: now,
				LastSeenAt:  now,
			})
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"severity", "subject_id", "message", "last_seen_at"}),
		}).Create(&rows).Error; err != nil {
			return fmt.Errorf("upsert alerts: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fresh, nil
}

func (s *GormStore) ListAlerts(ctx context.Context, includeDismissed bool) ([]Alert, error) {
	q := s.db.WithContext(ctx).Model(&Alert{})
	if !includeDismissed {
		q = q.Where("dismissed = ?", false)
	}
	var alerts []Alert
	if err := q.Order("last_seen_at DESC, id ASC").Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return alerts, nil
}

func (s *GormStore) DismissAlert(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Model(&Alert{}).Where("id = ?", id).Update("dismissed", true)
	if res.Error != nil {
		return fmt.Errorf("dismiss alert: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertScheduleEvents stores synced calendar events by id.
func (s *GormStore) UpsertScheduleEvents(ctx context.Context, events []ScheduleEvent) error {
	if len(events) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"job_id", "crew_member_id", "start", "type", "title"}),
	}).Create(&events).Error
	if err != nil {
		return fmt.Errorf("upsert schedule events: %w", err)
	}
	return nil
}
