package db

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Open connects gorm over a pgx-backed database/sql pool.
func Open(dsn string, slowThreshold time.Duration) (*gorm.DB, error) {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open pgx pool: %w", err)
	}

	// Pool sized for a single API instance in front of managed Postgres.
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(20)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	lg := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             slowThreshold,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: lg,
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("open gorm: %w", err)
	}
	return gdb, nil
}

// Connect opens the process-wide connection and stores it in DB.
func Connect(dsn string, slowThreshold time.Duration) {
	if dsn == "" {
		log.Fatal("DATABASE_URL is empty")
	}

	gdb, err := Open(dsn, slowThreshold)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	DB = gdb
	log.Println("Connected to database")
}
