package fieldops

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/fieldline/ops-backend/internal/db"
)

// Migrate creates the fieldops schema and tables. Safe to run repeatedly.
func Migrate(d *gorm.DB) error {
	if err := db.EnsureSchema(d, "fieldops"); err != nil {
		return fmt.Errorf("ensure schema fieldops: %w", err)
	}

	if err := d.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return fmt.Errorf("enable uuid-ossp extension: %w", err)
	}

	if err := d.AutoMigrate(
		&Job{},
		&Permit{},
		&ScheduleEvent{},
		&Photo{},
		&Alert{},
	); err != nil {
		return fmt.Errorf("auto-migrate fieldops tables: %w", err)
	}

	// Pending photos are listed per crew member on the dispatch board.
	if err := d.Exec(`
		CREATE INDEX IF NOT EXISTS idx_photos_pending
		ON fieldops.photos (captured_by, created_at)
		WHERE assignment_status = 'needs_choice';
	`).Error; err != nil {
		return fmt.Errorf("create idx_photos_pending: %w", err)
	}
	return nil
}

func Init() {
	if err := Migrate(db.DB); err != nil {
		log.Fatal("Failed to initialize fieldops: ", err)
	}
	log.Println("Fieldops module initialized")
}
