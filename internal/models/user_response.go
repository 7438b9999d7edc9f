package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserResponse records one answer to one question within a session.
// The unique index makes a second submission for the same question fail
// at the database even under concurrent requests.
type UserResponse struct {
	ID              string    `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID       string    `gorm:"type:uuid;not null;uniqueIndex:idx_response_unique" json:"session_id"`
	QuestionID      string    `gorm:"type:uuid;not null;uniqueIndex:idx_response_unique" json:"question_id"`
	SelectedAnswers []Answer  `gorm:"many2many:response_answers" json:"selected_answers,omitempty"`
	OpenResponse    *string   `gorm:"type:text" json:"open_response,omitempty"`
	ResponseTime    *float64  `json:"response_time,omitempty"` // seconds
	AnsweredAt      time.Time `json:"answered_at"`
}

func (r *UserResponse) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.AnsweredAt.IsZero() {
		r.AnsweredAt = time.Now()
	}
	return nil
}
