package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FriendRequest struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	FromUserID string    `gorm:"type:uuid;not null;uniqueIndex:idx_friend_request" json:"from_user_id"`
	FromUser   User      `gorm:"foreignKey:FromUserID;constraint:OnDelete:CASCADE" json:"-"`
	ToUserID   string    `gorm:"type:uuid;not null;uniqueIndex:idx_friend_request" json:"to_user_id"`
	ToUser     User      `gorm:"foreignKey:ToUserID;constraint:OnDelete:CASCADE" json:"-"`
	Status     string    `gorm:"size:10;not null;default:'pending'" json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

const (
	FriendRequestPending  = "pending"
	FriendRequestAccepted = "accepted"
	FriendRequestRejected = "rejected"
)

func (fr *FriendRequest) BeforeCreate(tx *gorm.DB) error {
	if fr.ID == "" {
		fr.ID = uuid.NewString()
	}
	return nil
}
