package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TestSession is one user's attempt at a test. The partial unique index
// allows at most one in_progress attempt per (test, user) while leaving
// completed and expired history unlimited.
type TestSession struct {
	ID          string         `gorm:"type:uuid;primaryKey" json:"id"`
	TestID      string         `gorm:"type:uuid;not null;index;uniqueIndex:idx_active_session,where:status = 'in_progress'" json:"test_id"`
	Test        Test           `gorm:"foreignKey:TestID;constraint:OnDelete:CASCADE" json:"-"`
	UserID      string         `gorm:"type:uuid;not null;index;uniqueIndex:idx_active_session" json:"user_id"`
	User        User           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Status      string         `gorm:"size:20;not null;default:'in_progress'" json:"status"`
	Score       *int           `json:"score,omitempty"`
	StartedAt   time.Time      `gorm:"not null;index" json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Responses   []UserResponse `gorm:"foreignKey:SessionID" json:"responses,omitempty"`
}

const (
	SessionStatusInProgress = "in_progress"
	SessionStatusCompleted  = "completed"
	SessionStatusExpired    = "expired"
)

func (s *TestSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now()
	}
	return nil
}
