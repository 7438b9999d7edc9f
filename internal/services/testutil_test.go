package services

import (
	"fmt"
	"sync/atomic"
	"testing"

	"quizbit-backend/internal/database"
	"quizbit-backend/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbCounter int64

// newTestDB opens a fresh in-memory database per test. The named
// shared-cache DSN keeps all pooled connections on the same database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:svc_test_%d?mode=memory&cache=shared", atomic.AddInt64(&dbCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	database.AutoMigrate(db)
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := models.User{
		Email:        username + "@example.com",
		Username:     username,
		PasswordHash: "x",
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user %s: %v", username, err)
	}
	if err := db.Create(&models.Profile{UserID: user.ID}).Error; err != nil {
		t.Fatalf("failed to seed profile for %s: %v", username, err)
	}
	return &user
}

// seedSingleQuestionTest creates a test with one single-choice question
// worth the given points, answers A (correct) and B.
func seedSingleQuestionTest(t *testing.T, db *gorm.DB, creator *models.User, points int) (*models.Test, *models.Question, *models.Answer, *models.Answer) {
	t.Helper()

	test := models.Test{
		CreatorID: creator.ID,
		Title:     "seeded test",
		Mode:      models.TestModeNormal,
		IsActive:  true,
	}
	if err := db.Create(&test).Error; err != nil {
		t.Fatalf("failed to seed test: %v", err)
	}

	question := models.Question{
		TestID: test.ID,
		Text:   "pick A",
		Type:   models.QuestionTypeSingle,
		Points: points,
	}
	if err := db.Create(&question).Error; err != nil {
		t.Fatalf("failed to seed question: %v", err)
	}

	right := models.Answer{QuestionID: question.ID, Text: "A", IsCorrect: true}
	wrong := models.Answer{QuestionID: question.ID, Text: "B"}
	if err := db.Create(&right).Error; err != nil {
		t.Fatalf("failed to seed answer: %v", err)
	}
	if err := db.Create(&wrong).Error; err != nil {
		t.Fatalf("failed to seed answer: %v", err)
	}
	return &test, &question, &right, &wrong
}

func addQuestion(t *testing.T, db *gorm.DB, test *models.Test, qType string, points int, answers ...models.Answer) *models.Question {
	t.Helper()

	question := models.Question{
		TestID: test.ID,
		Text:   "seeded question",
		Type:   qType,
		Points: points,
	}
	if err := db.Create(&question).Error; err != nil {
		t.Fatalf("failed to seed question: %v", err)
	}
	for i := range answers {
		answers[i].QuestionID = question.ID
		if err := db.Create(&answers[i]).Error; err != nil {
			t.Fatalf("failed to seed answer: %v", err)
		}
	}
	question.Answers = answers
	return &question
}

func newSessionStack(db *gorm.DB) (*SessionService, *ProfileService) {
	profiles := NewProfileService(db)
	sessions := NewSessionService(db, NewScoringService(), profiles)
	return sessions, profiles
}
