package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Profile pairs one-to-one with a user. Rating is derived from completed
// sessions and recomputed from scratch, never hand-edited.
type Profile struct {
	ID           string     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       string     `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User         User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Bio          string     `gorm:"type:text" json:"bio"`
	AvatarURL    string     `gorm:"size:500" json:"avatar_url"`
	Rating       int        `gorm:"not null;default:0" json:"rating"`
	TestsTaken   int        `gorm:"not null;default:0" json:"tests_taken"`
	TestsCreated int        `gorm:"not null;default:0" json:"tests_created"`
	Friends      []*Profile `gorm:"many2many:profile_friends" json:"friends,omitempty"`
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
