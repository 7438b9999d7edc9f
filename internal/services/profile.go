package services

import (
	"errors"
	"fmt"
	"math"

	"quizbit-backend/internal/models"

	"gorm.io/gorm"
)

type ProfileService struct {
	db *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db}
}

func (s *ProfileService) GetByUserID(userID string) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.Preload("User").First(&profile, "user_id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("%w: profile for user %s", ErrNotFound, userID)
	}
	return &profile, nil
}

func (s *ProfileService) GetByID(profileID string) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.Preload("User").First(&profile, "id = ?", profileID).Error; err != nil {
		return nil, fmt.Errorf("%w: profile %s", ErrNotFound, profileID)
	}
	return &profile, nil
}

type ProfileInput struct {
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatar_url"`
}

func (s *ProfileService) UpdateProfile(userID string, input ProfileInput) (*models.Profile, error) {
	profile, err := s.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	profile.Bio = input.Bio
	profile.AvatarURL = input.AvatarURL
	if err := s.db.Save(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *ProfileService) SearchUsers(query string) ([]models.User, error) {
	var users []models.User
	q := s.db.Order("username ASC").Limit(50)
	if query != "" {
		pattern := "%" + query + "%"
		q = q.Where("username LIKE ? OR email LIKE ?", pattern, pattern)
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateRating recomputes the 0-1000 rating from scratch over every
// completed session: pooled earned points over pooled possible points.
// With no completed sessions, or nothing to score, the rating is left
// unchanged, which also makes repeated calls idempotent.
func (s *ProfileService) UpdateRating(userID string) (int, error) {
	return s.updateRating(s.db, userID)
}

func (s *ProfileService) updateRating(db *gorm.DB, userID string) (int, error) {
	var profile models.Profile
	if err := db.First(&profile, "user_id = ?", userID).Error; err != nil {
		return 0, fmt.Errorf("%w: profile for user %s", ErrNotFound, userID)
	}

	var sessions []models.TestSession
	if err := db.Where("user_id = ? AND status = ?", userID, models.SessionStatusCompleted).
		Preload("Test.Questions").
		Find(&sessions).Error; err != nil {
		return 0, err
	}

	earned, possible := 0, 0
	for _, sess := range sessions {
		if sess.Score != nil {
			earned += *sess.Score
		}
		possible += sess.Test.MaxScore()
	}
	if len(sessions) == 0 || possible == 0 {
		return profile.Rating, nil
	}

	rating := int(math.Round(1000 * float64(earned) / float64(possible)))
	if rating == profile.Rating {
		return rating, nil
	}
	if err := db.Model(&profile).Update("rating", rating).Error; err != nil {
		return 0, err
	}
	return rating, nil
}

// recordCompletion applies the profile side effects of a finished
// session inside the caller's transaction: counter bump, rating
// recompute and achievement grants.
func (s *ProfileService) recordCompletion(tx *gorm.DB, userID string, score, maxScore int) error {
	var profile models.Profile
	if err := tx.First(&profile, "user_id = ?", userID).Error; err != nil {
		return fmt.Errorf("%w: profile for user %s", ErrNotFound, userID)
	}

	if err := tx.Model(&profile).Update("tests_taken", gorm.Expr("tests_taken + 1")).Error; err != nil {
		return err
	}
	if _, err := s.updateRating(tx, userID); err != nil {
		return err
	}

	if err := s.award(tx, profile.ID, models.AchievementFirstTest); err != nil {
		return err
	}
	var completed int64
	if err := tx.Model(&models.TestSession{}).
		Where("user_id = ? AND status = ?", userID, models.SessionStatusCompleted).
		Count(&completed).Error; err != nil {
		return err
	}
	if completed >= 10 {
		if err := s.award(tx, profile.ID, models.AchievementTenTests); err != nil {
			return err
		}
	}
	if maxScore > 0 && score == maxScore {
		if err := s.award(tx, profile.ID, models.AchievementPerfectScore); err != nil {
			return err
		}
	}
	return nil
}

// award grants an achievement once; repeated grants are no-ops.
func (s *ProfileService) award(tx *gorm.DB, profileID, code string) error {
	var achievement models.Achievement
	if err := tx.First(&achievement, "code = ?", code).Error; err != nil {
		return nil // achievement catalog not seeded
	}

	ua := models.UserAchievement{ProfileID: profileID, AchievementID: achievement.ID}
	if err := tx.Create(&ua).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return err
	}
	return nil
}

func (s *ProfileService) ListAchievements() ([]models.Achievement, error) {
	var achievements []models.Achievement
	if err := s.db.Order("name ASC").Find(&achievements).Error; err != nil {
		return nil, err
	}
	return achievements, nil
}

func (s *ProfileService) UserAchievements(profileID string) ([]models.UserAchievement, error) {
	var earned []models.UserAchievement
	err := s.db.Where("profile_id = ?", profileID).
		Preload("Achievement").
		Order("earned_at ASC").
		Find(&earned).Error
	if err != nil {
		return nil, err
	}
	return earned, nil
}

func (s *ProfileService) SendFriendRequest(fromUserID, toUserID string) (*models.FriendRequest, error) {
	if fromUserID == toUserID {
		return nil, fmt.Errorf("%w: cannot befriend yourself", ErrValidation)
	}
	var target models.User
	if err := s.db.First(&target, "id = ?", toUserID).Error; err != nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, toUserID)
	}

	request := models.FriendRequest{
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Status:     models.FriendRequestPending,
	}
	if err := s.db.Create(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: friend request already sent", ErrConflict)
		}
		return nil, err
	}
	return &request, nil
}

// AcceptFriendRequest marks the request accepted and inserts both
// directions of the friendship edge atomically. Friendship is
// undirected; a one-sided edge must never exist.
func (s *ProfileService) AcceptFriendRequest(requestID, callerID string) error {
	var request models.FriendRequest
	if err := s.db.First(&request, "id = ?", requestID).Error; err != nil {
		return fmt.Errorf("%w: friend request %s", ErrNotFound, requestID)
	}
	if request.ToUserID != callerID {
		return fmt.Errorf("%w: only the recipient may accept a friend request", ErrForbidden)
	}
	if request.Status != models.FriendRequestPending {
		return fmt.Errorf("%w: friend request is %s", ErrInvalidState, request.Status)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.FriendRequest{}).
			Where("id = ? AND status = ?", requestID, models.FriendRequestPending).
			Update("status", models.FriendRequestAccepted)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: friend request is no longer pending", ErrInvalidState)
		}

		var from, to models.Profile
		if err := tx.First(&from, "user_id = ?", request.FromUserID).Error; err != nil {
			return err
		}
		if err := tx.First(&to, "user_id = ?", request.ToUserID).Error; err != nil {
			return err
		}
		if err := tx.Model(&from).Association("Friends").Append(&to); err != nil {
			return err
		}
		return tx.Model(&to).Association("Friends").Append(&from)
	})
}

func (s *ProfileService) RejectFriendRequest(requestID, callerID string) error {
	var request models.FriendRequest
	if err := s.db.First(&request, "id = ?", requestID).Error; err != nil {
		return fmt.Errorf("%w: friend request %s", ErrNotFound, requestID)
	}
	if request.ToUserID != callerID {
		return fmt.Errorf("%w: only the recipient may reject a friend request", ErrForbidden)
	}
	if request.Status != models.FriendRequestPending {
		return fmt.Errorf("%w: friend request is %s", ErrInvalidState, request.Status)
	}

	result := s.db.Model(&models.FriendRequest{}).
		Where("id = ? AND status = ?", requestID, models.FriendRequestPending).
		Update("status", models.FriendRequestRejected)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: friend request is no longer pending", ErrInvalidState)
	}
	return nil
}

func (s *ProfileService) ReceivedFriendRequests(userID string) ([]models.FriendRequest, error) {
	var requests []models.FriendRequest
	err := s.db.Where("to_user_id = ? AND status = ?", userID, models.FriendRequestPending).
		Preload("FromUser").
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (s *ProfileService) SentFriendRequests(userID string) ([]models.FriendRequest, error) {
	var requests []models.FriendRequest
	err := s.db.Where("from_user_id = ?", userID).
		Preload("ToUser").
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (s *ProfileService) Friends(profileID string) ([]*models.Profile, error) {
	profile, err := s.GetByID(profileID)
	if err != nil {
		return nil, err
	}

	var friends []*models.Profile
	if err := s.db.Model(profile).Preload("User").Association("Friends").Find(&friends); err != nil {
		return nil, err
	}
	return friends, nil
}
