package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CompetitiveSession is a time-boxed window during which test sessions
// on the same test are compared on a leaderboard. It references sessions
// by window membership, it does not own them.
type CompetitiveSession struct {
	ID        string     `gorm:"type:uuid;primaryKey" json:"id"`
	TestID    string     `gorm:"type:uuid;not null;index" json:"test_id"`
	Test      Test       `gorm:"foreignKey:TestID;constraint:OnDelete:CASCADE" json:"-"`
	CreatorID string     `gorm:"type:uuid;not null;index" json:"creator_id"`
	Creator   User       `gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE" json:"-"`
	IsActive  bool       `gorm:"not null;default:true" json:"is_active"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (c *CompetitiveSession) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
