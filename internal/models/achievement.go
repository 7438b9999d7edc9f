package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Achievement struct {
	ID          string `gorm:"type:uuid;primaryKey" json:"id"`
	Code        string `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Icon        string `gorm:"size:50" json:"icon"`
}

const (
	AchievementFirstTest    = "first_test"
	AchievementTenTests     = "ten_tests"
	AchievementPerfectScore = "perfect_score"
)

func (a *Achievement) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

type UserAchievement struct {
	ID            string      `gorm:"type:uuid;primaryKey" json:"id"`
	ProfileID     string      `gorm:"type:uuid;not null;uniqueIndex:idx_user_achievement" json:"profile_id"`
	AchievementID string      `gorm:"type:uuid;not null;uniqueIndex:idx_user_achievement" json:"achievement_id"`
	Achievement   Achievement `gorm:"foreignKey:AchievementID" json:"achievement"`
	EarnedAt      time.Time   `json:"earned_at"`
}

func (ua *UserAchievement) BeforeCreate(tx *gorm.DB) error {
	if ua.ID == "" {
		ua.ID = uuid.NewString()
	}
	if ua.EarnedAt.IsZero() {
		ua.EarnedAt = time.Now()
	}
	return nil
}
