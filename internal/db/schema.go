package db

import "gorm.io/gorm"

// EnsureSchema creates a Postgres schema if it is missing.
func EnsureSchema(d *gorm.DB, schema string) error {
	return d.Exec(`CREATE SCHEMA IF NOT EXISTS "` + schema + `"`).Error
}
