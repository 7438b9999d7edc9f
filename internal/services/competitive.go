package services

import (
	"fmt"
	"sort"
	"time"

	"quizbit-backend/internal/models"

	"gorm.io/gorm"
)

// CompetitiveService wraps a test in a time-boxed window. Test sessions
// started inside the window compete on the leaderboard; the window
// references them, it does not own them.
type CompetitiveService struct {
	db       *gorm.DB
	sessions *SessionService
}

func NewCompetitiveService(db *gorm.DB, sessions *SessionService) *CompetitiveService {
	return &CompetitiveService{db: db, sessions: sessions}
}

func (s *CompetitiveService) Create(testID, creatorID string) (*models.CompetitiveSession, error) {
	var test models.Test
	if err := s.db.First(&test, "id = ? AND is_active = ?", testID, true).Error; err != nil {
		return nil, fmt.Errorf("%w: test %s", ErrNotFound, testID)
	}

	session := models.CompetitiveSession{
		TestID:    testID,
		CreatorID: creatorID,
		IsActive:  true,
	}
	if err := s.db.Create(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *CompetitiveService) Get(sessionID string) (*models.CompetitiveSession, error) {
	var session models.CompetitiveSession
	if err := s.db.Preload("Test").First(&session, "id = ?", sessionID).Error; err != nil {
		return nil, fmt.Errorf("%w: competitive session %s", ErrNotFound, sessionID)
	}
	return &session, nil
}

func (s *CompetitiveService) ListActive() ([]models.CompetitiveSession, error) {
	var sessions []models.CompetitiveSession
	err := s.db.Where("is_active = ?", true).
		Preload("Test").
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// Start opens the window. One-way: a window can be started once, by its
// creator only. The guarded update keeps concurrent starts from both
// succeeding.
func (s *CompetitiveService) Start(sessionID, callerID string) (*models.CompetitiveSession, error) {
	session, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if session.CreatorID != callerID {
		return nil, fmt.Errorf("%w: only the creator may start a competitive session", ErrForbidden)
	}
	if session.StartedAt != nil {
		return nil, fmt.Errorf("%w: competitive session already started", ErrInvalidState)
	}

	now := time.Now()
	result := s.db.Model(&models.CompetitiveSession{}).
		Where("id = ? AND started_at IS NULL", sessionID).
		Update("started_at", now)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: competitive session already started", ErrInvalidState)
	}

	session.StartedAt = &now
	return session, nil
}

// End closes the window and clears the active flag. One-way as well.
func (s *CompetitiveService) End(sessionID, callerID string) (*models.CompetitiveSession, error) {
	session, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if session.CreatorID != callerID {
		return nil, fmt.Errorf("%w: only the creator may end a competitive session", ErrForbidden)
	}
	if session.StartedAt == nil {
		return nil, fmt.Errorf("%w: competitive session not started", ErrInvalidState)
	}
	if session.EndedAt != nil {
		return nil, fmt.Errorf("%w: competitive session already ended", ErrInvalidState)
	}

	now := time.Now()
	result := s.db.Model(&models.CompetitiveSession{}).
		Where("id = ? AND started_at IS NOT NULL AND ended_at IS NULL", sessionID).
		Updates(map[string]interface{}{"ended_at": now, "is_active": false})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: competitive session already ended", ErrInvalidState)
	}

	session.EndedAt = &now
	session.IsActive = false
	return session, nil
}

// Join admits a participant: taking the competitive test and joining
// its window share one mechanism, so this delegates to the session
// engine's start-or-resume.
func (s *CompetitiveService) Join(sessionID, userID string) (*models.TestSession, error) {
	session, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsActive || session.StartedAt == nil {
		return nil, fmt.Errorf("%w: competitive session has not started", ErrInvalidState)
	}
	if session.EndedAt != nil {
		return nil, fmt.Errorf("%w: competitive session has ended", ErrInvalidState)
	}

	return s.sessions.StartOrResume(session.TestID, userID)
}

type LeaderboardEntry struct {
	Position        int     `json:"position"`
	UserID          string  `json:"user_id"`
	Username        string  `json:"username"`
	Score           int     `json:"score"`
	CompletionTime  float64 `json:"completion_time"`   // seconds
	AvgResponseTime float64 `json:"avg_response_time"` // seconds
}

// Leaderboard ranks completed test sessions that started inside the
// window: score descending, faster completion breaking ties.
func (s *CompetitiveService) Leaderboard(sessionID string) ([]LeaderboardEntry, error) {
	session, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if session.StartedAt == nil {
		return nil, fmt.Errorf("%w: competitive session not started", ErrInvalidState)
	}

	query := s.db.Where("test_id = ? AND status = ? AND started_at >= ?",
		session.TestID, models.SessionStatusCompleted, *session.StartedAt)
	if session.EndedAt != nil {
		query = query.Where("started_at <= ?", *session.EndedAt)
	}

	var entries []models.TestSession
	if err := query.Preload("User").Preload("Responses").Find(&entries).Error; err != nil {
		return nil, err
	}

	board := make([]LeaderboardEntry, 0, len(entries))
	for _, sess := range entries {
		score := 0
		if sess.Score != nil {
			score = *sess.Score
		}
		completion := 0.0
		if sess.CompletedAt != nil {
			completion = sess.CompletedAt.Sub(sess.StartedAt).Seconds()
		}
		board = append(board, LeaderboardEntry{
			UserID:          sess.UserID,
			Username:        sess.User.Username,
			Score:           score,
			CompletionTime:  completion,
			AvgResponseTime: avgResponseTime(sess.Responses),
		})
	}

	sort.SliceStable(board, func(i, j int) bool {
		if board[i].Score != board[j].Score {
			return board[i].Score > board[j].Score
		}
		return board[i].CompletionTime < board[j].CompletionTime
	})
	for i := range board {
		board[i].Position = i + 1
	}
	return board, nil
}

func avgResponseTime(responses []models.UserResponse) float64 {
	total, counted := 0.0, 0
	for _, r := range responses {
		if r.ResponseTime != nil {
			total += *r.ResponseTime
			counted++
		}
	}
	if counted == 0 {
		return 0
	}
	return total / float64(counted)
}

// ActiveWindowsFor returns started, unended windows on the given test.
// Used to push live leaderboard updates when a session in the window
// completes.
func (s *CompetitiveService) ActiveWindowsFor(testID string) ([]models.CompetitiveSession, error) {
	var sessions []models.CompetitiveSession
	err := s.db.Where("test_id = ? AND is_active = ? AND started_at IS NOT NULL AND ended_at IS NULL",
		testID, true).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}
