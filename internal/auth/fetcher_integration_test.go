package auth_test

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/fieldline/ops-backend/internal/auth"
	"github.com/fieldline/ops-backend/internal/db"
)

// dbAvailable tracks whether the database connection was established.
var dbAvailable bool

func TestMain(m *testing.M) {
	// Load .env.local relative to the repo root (two directories up from internal/auth/).
	_ = godotenv.Load("../../.env.local")

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		// No database available, skip integration tests gracefully.
		os.Exit(m.Run())
	}

	db.Connect(databaseURL, 100*time.Millisecond)
	dbAvailable = true
	auth.Init()

	os.Exit(m.Run())
}

func TestSessionInfo_FindSessionByID(t *testing.T) {
	if !dbAvailable {
		t.Skip("DATABASE_URL not set")
	}

	session := auth.Session{
		SessionID:    uuid.NewString(),
		CrewMemberID: "crew-" + uuid.NewString(),
		ExpiresAt:    time.Now().Add(time.Hour).UTC(),
	}
	if err := db.DB.Create(&session).Error; err != nil {
		t.Fatalf("insert session: %v", err)
	}
	t.Cleanup(func() { db.DB.Delete(&session) })

	got, err := auth.SessionInfo{}.FindSessionByID(session.SessionID)
	if err != nil {
		t.Fatalf("FindSessionByID: %v", err)
	}
	if got.CrewMemberID != session.CrewMemberID {
		t.Errorf("expected crew member %q, got %q", session.CrewMemberID, got.CrewMemberID)
	}

	if _, err := (auth.SessionInfo{}).FindSessionByID("missing-" + uuid.NewString()); err == nil {
		t.Error("expected error for unknown session")
	}
}
