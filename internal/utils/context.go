package utils

import (
	"context"
	"time"
)

type contextKey string

const ContextCrewMemberIDKey contextKey = "crewMemberID"

// SessionData is the slice of a crew session the middleware needs.
type SessionData struct {
	CrewMemberID string
	ExpiresAt    time.Time
}

func GetCrewMemberIDFromContext(ctx context.Context) (string, bool) {
	id := ctx.Value(ContextCrewMemberIDKey)
	idStr, ok := id.(string)
	return idStr, ok
}
