package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Question struct {
	ID       string   `gorm:"type:uuid;primaryKey" json:"id"`
	TestID   string   `gorm:"type:uuid;not null;index" json:"test_id"`
	Text     string   `gorm:"type:text;not null" json:"text"`
	Type     string   `gorm:"size:20;not null" json:"type"`
	Points   int      `gorm:"not null;default:1" json:"points"`
	OrderNum int      `gorm:"not null;default:0" json:"order_num"`
	Answers  []Answer `gorm:"foreignKey:QuestionID" json:"answers,omitempty"`
}

const (
	QuestionTypeSingle   = "single"
	QuestionTypeMultiple = "multiple"
	QuestionTypeOpen     = "open"
)

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

// CorrectAnswerIDs returns the set of answers flagged correct.
func (q *Question) CorrectAnswerIDs() map[string]bool {
	ids := make(map[string]bool)
	for _, a := range q.Answers {
		if a.IsCorrect {
			ids[a.ID] = true
		}
	}
	return ids
}
