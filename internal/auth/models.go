package auth

import "time"

// Session is a crew login issued by the identity service. This backend only
// reads it.
type Session struct {
	SessionID    string    `gorm:"primaryKey" json:"-"`
	CrewMemberID string    `gorm:"not null;index" json:"-"`
	ExpiresAt    time.Time `gorm:"not null"`
}

func (Session) TableName() string { return "app_auth.sessions" }
