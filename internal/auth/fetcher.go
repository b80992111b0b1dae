package auth

import (
	"github.com/fieldline/ops-backend/internal/db"
	"github.com/fieldline/ops-backend/internal/utils"
)

type SessionInfo struct{}

func (si SessionInfo) FindSessionByID(id string) (utils.SessionData, error) {
	var session Session

	err := db.DB.First(&session, "session_id = ?", id).Error
	if err != nil {
		return utils.SessionData{}, err
	}

	return utils.SessionData{
		CrewMemberID: session.CrewMemberID,
		ExpiresAt:    session.ExpiresAt,
	}, nil
}
