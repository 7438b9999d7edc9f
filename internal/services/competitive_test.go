package services

import (
	"errors"
	"testing"
	"time"

	"quizbit-backend/internal/models"
)

func TestCompetitiveLifecycle(t *testing.T) {
	db := newTestDB(t)
	sessions, _ := newSessionStack(db)
	competitive := NewCompetitiveService(db, sessions)
	creator := seedUser(t, db, "creator")
	other := seedUser(t, db, "other")
	test, _, _, _ := seedSingleQuestionTest(t, db, creator, 2)

	window, err := competitive.Create(test.ID, creator.ID)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !window.IsActive || window.StartedAt != nil {
		t.Fatalf("new window should be active and unstarted: %+v", window)
	}

	// Joining before the start is rejected.
	if _, err := competitive.Join(window.ID, other.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState joining unstarted window, got %v", err)
	}

	// Only the creator may open the window.
	if _, err := competitive.Start(window.ID, other.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	started, err := competitive.Start(window.ID, creator.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if started.StartedAt == nil {
		t.Fatal("expected started_at to be set")
	}
	if _, err := competitive.Start(window.ID, creator.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on double start, got %v", err)
	}

	// Participants can join an open window.
	participant, err := competitive.Join(window.ID, other.ID)
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if participant.TestID != test.ID || participant.UserID != other.ID {
		t.Fatalf("unexpected participant session: %+v", participant)
	}

	ended, err := competitive.End(window.ID, creator.ID)
	if err != nil {
		t.Fatalf("end failed: %v", err)
	}
	if ended.EndedAt == nil || ended.IsActive {
		t.Fatalf("ended window should be inactive with ended_at set: %+v", ended)
	}
	if _, err := competitive.End(window.ID, creator.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on double end, got %v", err)
	}
	if _, err := competitive.Join(window.ID, other.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState joining ended window, got %v", err)
	}
}

func TestCompetitiveEndBeforeStart(t *testing.T) {
	db := newTestDB(t)
	sessions, _ := newSessionStack(db)
	competitive := NewCompetitiveService(db, sessions)
	creator := seedUser(t, db, "creator")
	test, _, _, _ := seedSingleQuestionTest(t, db, creator, 1)

	window, err := competitive.Create(test.ID, creator.ID)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := competitive.End(window.ID, creator.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState ending unstarted window, got %v", err)
	}
}

func TestLeaderboardOrderingAndWindow(t *testing.T) {
	db := newTestDB(t)
	sessions, _ := newSessionStack(db)
	competitive := NewCompetitiveService(db, sessions)
	creator := seedUser(t, db, "creator")
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	carol := seedUser(t, db, "carol")
	dave := seedUser(t, db, "dave")
	test, _, _, _ := seedSingleQuestionTest(t, db, creator, 10)

	window, err := competitive.Create(test.ID, creator.ID)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := competitive.Start(window.ID, creator.ID); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	windowStart := time.Now()

	insert := func(userID string, score int, startedAt time.Time, duration time.Duration, status string) {
		completedAt := startedAt.Add(duration)
		session := models.TestSession{
			TestID:    test.ID,
			UserID:    userID,
			Status:    status,
			StartedAt: startedAt,
		}
		if status == models.SessionStatusCompleted {
			session.Score = &score
			session.CompletedAt = &completedAt
		}
		if err := db.Create(&session).Error; err != nil {
			t.Fatalf("failed to seed session: %v", err)
		}
	}

	inWindow := windowStart.Add(time.Second)
	insert(alice.ID, 10, inWindow, 120*time.Second, models.SessionStatusCompleted)
	insert(bob.ID, 10, inWindow, 90*time.Second, models.SessionStatusCompleted)
	insert(carol.ID, 8, inWindow, 300*time.Second, models.SessionStatusCompleted)
	// Started before the window opened: excluded.
	insert(dave.ID, 10, windowStart.Add(-time.Hour), 60*time.Second, models.SessionStatusCompleted)
	// Still in progress: excluded.
	insert(creator.ID, 0, inWindow, 0, models.SessionStatusInProgress)

	board, err := competitive.Leaderboard(window.ID)
	if err != nil {
		t.Fatalf("leaderboard failed: %v", err)
	}
	if len(board) != 3 {
		t.Fatalf("expected 3 entries, got %d: %+v", len(board), board)
	}

	// Ties on score break toward the faster completion.
	want := []struct {
		username string
		score    int
	}{
		{"bob", 10},
		{"alice", 10},
		{"carol", 8},
	}
	for i, w := range want {
		if board[i].Username != w.username || board[i].Score != w.score {
			t.Fatalf("position %d: got %s/%d, want %s/%d",
				i+1, board[i].Username, board[i].Score, w.username, w.score)
		}
		if board[i].Position != i+1 {
			t.Fatalf("position %d mislabeled as %d", i+1, board[i].Position)
		}
	}
	if board[0].CompletionTime >= board[1].CompletionTime {
		t.Fatalf("tie not broken by completion time: %v >= %v",
			board[0].CompletionTime, board[1].CompletionTime)
	}
}

func TestLeaderboardExcludesAfterWindowEnds(t *testing.T) {
	db := newTestDB(t)
	sessions, _ := newSessionStack(db)
	competitive := NewCompetitiveService(db, sessions)
	creator := seedUser(t, db, "creator")
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	test, _, _, _ := seedSingleQuestionTest(t, db, creator, 5)

	window, _ := competitive.Create(test.ID, creator.ID)
	if _, err := competitive.Start(window.ID, creator.ID); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	score := 5
	inWindow := time.Now()
	completed := inWindow.Add(time.Minute)
	if err := db.Create(&models.TestSession{
		TestID: test.ID, UserID: alice.ID,
		Status: models.SessionStatusCompleted, Score: &score,
		StartedAt: inWindow, CompletedAt: &completed,
	}).Error; err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}

	if _, err := competitive.End(window.ID, creator.ID); err != nil {
		t.Fatalf("end failed: %v", err)
	}

	// Started after the window closed: excluded.
	late := time.Now().Add(time.Hour)
	lateDone := late.Add(time.Minute)
	if err := db.Create(&models.TestSession{
		TestID: test.ID, UserID: bob.ID,
		Status: models.SessionStatusCompleted, Score: &score,
		StartedAt: late, CompletedAt: &lateDone,
	}).Error; err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}

	board, err := competitive.Leaderboard(window.ID)
	if err != nil {
		t.Fatalf("leaderboard failed: %v", err)
	}
	if len(board) != 1 || board[0].Username != "alice" {
		t.Fatalf("expected only alice on the board, got %+v", board)
	}
}

func TestAvgResponseTime(t *testing.T) {
	times := []float64{2, 4}
	responses := []models.UserResponse{
		{ResponseTime: &times[0]},
		{ResponseTime: &times[1]},
		{}, // untimed response is ignored
	}
	if got := avgResponseTime(responses); got != 3 {
		t.Fatalf("avgResponseTime() = %v, want 3", got)
	}
	if got := avgResponseTime(nil); got != 0 {
		t.Fatalf("avgResponseTime(nil) = %v, want 0", got)
	}
}
