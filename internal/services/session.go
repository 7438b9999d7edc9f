package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"quizbit-backend/internal/models"

	"gorm.io/gorm"
)

// SessionService drives a single user's attempt at a test: start or
// resume, record one response per question, finalize and score.
type SessionService struct {
	db       *gorm.DB
	scoring  *ScoringService
	profiles *ProfileService
}

func NewSessionService(db *gorm.DB, scoring *ScoringService, profiles *ProfileService) *SessionService {
	return &SessionService{db: db, scoring: scoring, profiles: profiles}
}

// StartOrResume returns the user's existing in-progress session for the
// test if one exists, otherwise starts a fresh one. Restarting is never
// an error. The idx_active_session partial unique index is the final
// arbiter under concurrency: when two starts race, one insert loses and
// resumes the winner's session instead.
func (s *SessionService) StartOrResume(testID, userID string) (*models.TestSession, error) {
	var test models.Test
	if err := s.db.First(&test, "id = ? AND is_active = ?", testID, true).Error; err != nil {
		return nil, fmt.Errorf("%w: test %s", ErrNotFound, testID)
	}

	var existing models.TestSession
	err := s.db.Where("test_id = ? AND user_id = ? AND status = ?",
		testID, userID, models.SessionStatusInProgress).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}

	session := models.TestSession{
		TestID: testID,
		UserID: userID,
		Status: models.SessionStatusInProgress,
	}
	if err := s.db.Create(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			refetch := s.db.Where("test_id = ? AND user_id = ? AND status = ?",
				testID, userID, models.SessionStatusInProgress).
				First(&existing).Error
			if refetch == nil {
				return &existing, nil
			}
		}
		return nil, err
	}
	return &session, nil
}

type ResponseInput struct {
	QuestionID   string   `json:"question_id"`
	AnswerIDs    []string `json:"answer_ids"`
	OpenResponse *string  `json:"open_response"`
	ResponseTime *float64 `json:"response_time"`
}

// SubmitResponse records one answer. The unique (session, question)
// index is the final arbiter against double submission: two concurrent
// submits for the same question cannot both insert.
func (s *SessionService) SubmitResponse(sessionID, callerID string, input ResponseInput) (*models.UserResponse, error) {
	session, err := s.ownedSession(sessionID, callerID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionStatusInProgress {
		return nil, fmt.Errorf("%w: session is no longer active", ErrInvalidState)
	}

	var question models.Question
	if err := s.db.First(&question, "id = ? AND test_id = ?", input.QuestionID, session.TestID).Error; err != nil {
		return nil, fmt.Errorf("%w: question does not belong to this test", ErrValidation)
	}

	switch question.Type {
	case models.QuestionTypeOpen:
		if len(input.AnswerIDs) > 0 {
			return nil, fmt.Errorf("%w: open questions take a text response, not answer selections", ErrValidation)
		}
		if input.OpenResponse == nil || *input.OpenResponse == "" {
			return nil, fmt.Errorf("%w: open questions require a text response", ErrValidation)
		}
	default:
		if len(input.AnswerIDs) == 0 {
			return nil, fmt.Errorf("%w: at least one answer must be selected", ErrValidation)
		}
	}
	if input.ResponseTime != nil && *input.ResponseTime < 0 {
		return nil, fmt.Errorf("%w: response time must not be negative", ErrValidation)
	}

	var selected []models.Answer
	if len(input.AnswerIDs) > 0 {
		if err := s.db.Where("id IN ? AND question_id = ?", input.AnswerIDs, question.ID).
			Find(&selected).Error; err != nil {
			return nil, err
		}
		if len(selected) != len(input.AnswerIDs) {
			return nil, fmt.Errorf("%w: selected answers must belong to the question", ErrValidation)
		}
	}

	var prior models.UserResponse
	if err := s.db.Where("session_id = ? AND question_id = ?", sessionID, question.ID).
		First(&prior).Error; err == nil {
		return nil, fmt.Errorf("%w: question already answered in this session", ErrConflict)
	}

	response := models.UserResponse{
		SessionID:       sessionID,
		QuestionID:      question.ID,
		SelectedAnswers: selected,
		OpenResponse:    input.OpenResponse,
		ResponseTime:    input.ResponseTime,
	}
	if err := s.db.Create(&response).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: question already answered in this session", ErrConflict)
		}
		return nil, err
	}
	return &response, nil
}

// Complete finalizes the session and computes its score. The guarded
// status update makes the in_progress -> completed transition happen at
// most once even under concurrent calls; the loser gets ErrInvalidState.
func (s *SessionService) Complete(sessionID, callerID string) (*models.TestSession, error) {
	session, err := s.ownedSession(sessionID, callerID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.TestSession{}).
			Where("id = ? AND status = ?", sessionID, models.SessionStatusInProgress).
			Updates(map[string]interface{}{
				"status":       models.SessionStatusCompleted,
				"completed_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: session is not in progress", ErrInvalidState)
		}

		var questions []models.Question
		if err := tx.Where("test_id = ?", session.TestID).
			Preload("Answers").
			Find(&questions).Error; err != nil {
			return err
		}
		var responses []models.UserResponse
		if err := tx.Where("session_id = ?", sessionID).
			Preload("SelectedAnswers").
			Find(&responses).Error; err != nil {
			return err
		}

		score := s.scoring.ScoreSession(questions, responses)
		if err := tx.Model(&models.TestSession{}).Where("id = ?", sessionID).
			Update("score", score).Error; err != nil {
			return err
		}

		maxScore := 0
		for _, q := range questions {
			maxScore += q.Points
		}
		return s.profiles.recordCompletion(tx, session.UserID, score, maxScore)
	})
	if err != nil {
		return nil, err
	}

	var completed models.TestSession
	if err := s.db.Preload("Responses").First(&completed, "id = ?", sessionID).Error; err != nil {
		return nil, err
	}
	return &completed, nil
}

// Expire moves an overdue session to its terminal expired state. Same
// one-way guard as Complete; no score is computed.
func (s *SessionService) Expire(sessionID string) error {
	now := time.Now()
	result := s.db.Model(&models.TestSession{}).
		Where("id = ? AND status = ?", sessionID, models.SessionStatusInProgress).
		Updates(map[string]interface{}{
			"status":       models.SessionStatusExpired,
			"completed_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: session is not in progress", ErrInvalidState)
	}
	return nil
}

// ExpireOverdue sweeps in-progress sessions whose test time limit has
// elapsed. Called on a timer from main; the session state machine does
// not know about wall clocks itself.
func (s *SessionService) ExpireOverdue() int {
	var candidates []models.TestSession
	err := s.db.Joins("Test").
		Where("test_sessions.status = ? AND \"Test\".time_limit IS NOT NULL", models.SessionStatusInProgress).
		Find(&candidates).Error
	if err != nil {
		log.Printf("expiry sweep failed: %v", err)
		return 0
	}

	expired := 0
	now := time.Now()
	for _, session := range candidates {
		if session.Test.TimeLimit == nil {
			continue
		}
		deadline := session.StartedAt.Add(time.Duration(*session.Test.TimeLimit) * time.Second)
		if now.Before(deadline) {
			continue
		}
		if err := s.Expire(session.ID); err == nil {
			expired++
		}
	}
	return expired
}

func (s *SessionService) GetSession(sessionID, callerID string) (*models.TestSession, error) {
	session, err := s.ownedSession(sessionID, callerID)
	if err != nil {
		return nil, err
	}
	if err := s.db.Preload("Responses.SelectedAnswers").First(session, "id = ?", sessionID).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionService) ListSessions(userID string) ([]models.TestSession, error) {
	var sessions []models.TestSession
	err := s.db.Where("user_id = ?", userID).
		Order("started_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *SessionService) ownedSession(sessionID, callerID string) (*models.TestSession, error) {
	var session models.TestSession
	if err := s.db.First(&session, "id = ?", sessionID).Error; err != nil {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}
	if session.UserID != callerID {
		return nil, fmt.Errorf("%w: session belongs to another user", ErrForbidden)
	}
	return &session, nil
}
