package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Test struct {
	ID               string     `gorm:"type:uuid;primaryKey" json:"id"`
	CreatorID        string     `gorm:"type:uuid;not null;index" json:"creator_id"`
	Creator          User       `gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE" json:"-"`
	Title            string     `gorm:"size:255;not null" json:"title"`
	Description      string     `gorm:"type:text" json:"description"`
	TimeLimit        *int       `json:"time_limit,omitempty"` // seconds
	ShuffleQuestions bool       `gorm:"not null;default:false" json:"shuffle_questions"`
	ShuffleAnswers   bool       `gorm:"not null;default:false" json:"shuffle_answers"`
	Mode             string     `gorm:"size:20;not null;default:'normal'" json:"mode"`
	IsActive         bool       `gorm:"not null;default:true" json:"is_active"`
	Questions        []Question `gorm:"foreignKey:TestID" json:"questions,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

const (
	TestModeNormal      = "normal"
	TestModeCompetitive = "competitive"
	TestModeBlitz       = "blitz"
)

func (t *Test) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// MaxScore is the highest score any session on this test can reach.
func (t *Test) MaxScore() int {
	total := 0
	for _, q := range t.Questions {
		total += q.Points
	}
	return total
}
