package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"quizbit-backend/internal/models"
)

func TestCreateTestValidatesMode(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalogService(db, nil)
	creator := seedUser(t, db, "creator")

	if _, err := catalog.CreateTest(creator.ID, TestInput{Title: "x", Mode: "speedrun"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown mode, got %v", err)
	}

	limit := 0
	if _, err := catalog.CreateTest(creator.ID, TestInput{Title: "x", TimeLimit: &limit}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for non-positive time limit, got %v", err)
	}

	test, err := catalog.CreateTest(creator.ID, TestInput{Title: "untitled mode"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if test.Mode != models.TestModeNormal {
		t.Fatalf("expected default mode normal, got %s", test.Mode)
	}
	if !test.IsActive {
		t.Fatal("new test should be active")
	}

	// Authoring bumps the creator's counter.
	var profile models.Profile
	db.First(&profile, "user_id = ?", creator.ID)
	if profile.TestsCreated != 1 {
		t.Fatalf("tests_created = %d, want 1", profile.TestsCreated)
	}
}

func TestValidateQuestion(t *testing.T) {
	correct := AnswerInput{Text: "yes", IsCorrect: true}
	wrong := AnswerInput{Text: "no"}

	cases := []struct {
		name  string
		input QuestionInput
		ok    bool
	}{
		{"single valid", QuestionInput{Type: models.QuestionTypeSingle, Answers: []AnswerInput{correct, wrong}}, true},
		{"single one answer", QuestionInput{Type: models.QuestionTypeSingle, Answers: []AnswerInput{correct}}, false},
		{"single no correct", QuestionInput{Type: models.QuestionTypeSingle, Answers: []AnswerInput{wrong, wrong}}, false},
		{"single two correct", QuestionInput{Type: models.QuestionTypeSingle, Answers: []AnswerInput{correct, correct}}, false},
		{"multiple valid", QuestionInput{Type: models.QuestionTypeMultiple, Answers: []AnswerInput{correct, correct, wrong}}, true},
		{"multiple no correct", QuestionInput{Type: models.QuestionTypeMultiple, Answers: []AnswerInput{wrong, wrong}}, false},
		{"open valid", QuestionInput{Type: models.QuestionTypeOpen}, true},
		{"open with answers", QuestionInput{Type: models.QuestionTypeOpen, Answers: []AnswerInput{correct}}, false},
		{"unknown type", QuestionInput{Type: "matching", Answers: []AnswerInput{correct, wrong}}, false},
		{"negative points", QuestionInput{Type: models.QuestionTypeSingle, Points: -1, Answers: []AnswerInput{correct, wrong}}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateQuestion(tc.input)
			if tc.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestCreatorOnlyMutations(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalogService(db, nil)
	creator := seedUser(t, db, "creator")
	intruder := seedUser(t, db, "intruder")
	test, _, _, _ := seedSingleQuestionTest(t, db, creator, 1)

	if _, err := catalog.UpdateTest(test.ID, intruder.ID, TestInput{Title: "hijack"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden on update, got %v", err)
	}
	if err := catalog.DeleteTest(test.ID, intruder.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden on delete, got %v", err)
	}
	question := QuestionInput{
		Text: "q", Type: models.QuestionTypeSingle,
		Answers: []AnswerInput{{Text: "a", IsCorrect: true}, {Text: "b"}},
	}
	if _, err := catalog.AddQuestion(test.ID, intruder.ID, question); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden on add question, got %v", err)
	}

	if _, err := catalog.AddQuestion(test.ID, creator.ID, question); err != nil {
		t.Fatalf("creator add question failed: %v", err)
	}
	if err := catalog.DeleteTest(test.ID, creator.ID); err != nil {
		t.Fatalf("creator delete failed: %v", err)
	}

	// The cascade removes the whole graph.
	var questions int64
	db.Model(&models.Question{}).Where("test_id = ?", test.ID).Count(&questions)
	if questions != 0 {
		t.Fatalf("expected questions deleted with test, %d left", questions)
	}
}

func TestGetTestHidesAnswersFromTakers(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalogService(db, nil)
	creator := seedUser(t, db, "creator")
	taker := seedUser(t, db, "taker")
	test, _, _, _ := seedSingleQuestionTest(t, db, creator, 1)

	creatorView, err := catalog.GetTest(test.ID, creator.ID)
	if err != nil {
		t.Fatalf("creator view failed: %v", err)
	}
	foundCorrect := false
	for _, a := range creatorView.Questions[0].Answers {
		if a.IsCorrect {
			foundCorrect = true
		}
	}
	if !foundCorrect {
		t.Fatal("creator view must include correctness flags")
	}

	takerView, err := catalog.GetTest(test.ID, taker.ID)
	if err != nil {
		t.Fatalf("taker view failed: %v", err)
	}
	for _, a := range takerView.Questions[0].Answers {
		if a.IsCorrect {
			t.Fatal("taker view leaked a correctness flag")
		}
	}

	// Inactive tests are invisible to takers but not to the creator.
	db.Model(test).Update("is_active", false)
	if _, err := catalog.GetTest(test.ID, taker.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for taker on inactive test, got %v", err)
	}
	if _, err := catalog.GetTest(test.ID, creator.ID); err != nil {
		t.Fatalf("creator view of inactive test failed: %v", err)
	}
}

func TestCloneShuffledPreservesContent(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalogService(db, nil)
	creator := seedUser(t, db, "creator")

	test := models.Test{CreatorID: creator.ID, Title: "source", Mode: models.TestModeNormal, IsActive: true, ShuffleAnswers: true}
	if err := db.Create(&test).Error; err != nil {
		t.Fatalf("failed to seed test: %v", err)
	}
	for i := 0; i < 3; i++ {
		q := models.Question{
			TestID: test.ID, Text: fmt.Sprintf("q%d", i),
			Type: models.QuestionTypeSingle, Points: i + 1, OrderNum: i,
		}
		if err := db.Create(&q).Error; err != nil {
			t.Fatalf("failed to seed question: %v", err)
		}
		for _, a := range []models.Answer{
			{QuestionID: q.ID, Text: "right", IsCorrect: true},
			{QuestionID: q.ID, Text: "wrong"},
		} {
			if err := db.Create(&a).Error; err != nil {
				t.Fatalf("failed to seed answer: %v", err)
			}
		}
	}

	clone, err := catalog.CloneShuffled(test.ID, creator.ID)
	if err != nil {
		t.Fatalf("clone failed: %v", err)
	}
	if clone.ID == test.ID {
		t.Fatal("clone must be a new test")
	}
	if clone.CreatorID != creator.ID {
		t.Fatalf("clone owned by %s, want %s", clone.CreatorID, creator.ID)
	}
	if len(clone.Questions) != 3 {
		t.Fatalf("clone has %d questions, want 3", len(clone.Questions))
	}

	// Same question texts, same total points, each question still has
	// exactly one correct answer.
	texts := make(map[string]bool)
	totalPoints := 0
	for _, q := range clone.Questions {
		texts[q.Text] = true
		totalPoints += q.Points
		correct := 0
		for _, a := range q.Answers {
			if a.IsCorrect {
				correct++
			}
		}
		if correct != 1 {
			t.Fatalf("question %q has %d correct answers", q.Text, correct)
		}
	}
	if !texts["q0"] || !texts["q1"] || !texts["q2"] {
		t.Fatalf("clone lost questions: %v", texts)
	}
	if totalPoints != 6 {
		t.Fatalf("clone total points = %d, want 6", totalPoints)
	}
}

func TestDeleteTestRemovesAttemptHistory(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalogService(db, nil)
	sessions, _ := newSessionStack(db)
	creator := seedUser(t, db, "creator")
	taker := seedUser(t, db, "taker")
	test, question, right, _ := seedSingleQuestionTest(t, db, creator, 2)

	session, err := sessions.StartOrResume(test.ID, taker.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := sessions.SubmitResponse(session.ID, taker.ID, ResponseInput{
		QuestionID: question.ID,
		AnswerIDs:  []string{right.ID},
	}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if err := catalog.DeleteTest(test.ID, creator.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	// Sessions and responses referencing the test are gone with it.
	var count int64
	db.Model(&models.TestSession{}).Where("test_id = ?", test.ID).Count(&count)
	if count != 0 {
		t.Fatalf("%d sessions survived the delete", count)
	}
	db.Model(&models.UserResponse{}).Where("session_id = ?", session.ID).Count(&count)
	if count != 0 {
		t.Fatalf("%d responses survived the delete", count)
	}
	db.Model(&models.Question{}).Where("test_id = ?", test.ID).Count(&count)
	if count != 0 {
		t.Fatalf("%d questions survived the delete", count)
	}
}

func TestCloneShuffledCreatorOnly(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalogService(db, nil)
	creator := seedUser(t, db, "creator")
	taker := seedUser(t, db, "taker")
	test, _, _, _ := seedSingleQuestionTest(t, db, creator, 1)

	// A taker must not be able to read the answer key off a clone they
	// would own.
	if _, err := catalog.CloneShuffled(test.ID, taker.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden cloning another user's test, got %v", err)
	}

	// No partial clone is left behind.
	var tests int64
	db.Model(&models.Test{}).Where("creator_id = ?", taker.ID).Count(&tests)
	if tests != 0 {
		t.Fatalf("rejected clone created %d tests", tests)
	}
}

// fakeGenerator returns canned drafts or a canned error.
type fakeGenerator struct {
	drafts []QuestionDraft
	err    error
}

func (f *fakeGenerator) Generate(ctx context.Context, topic string) ([]QuestionDraft, error) {
	return f.drafts, f.err
}

func TestCreateBlitzTest(t *testing.T) {
	db := newTestDB(t)
	creator := seedUser(t, db, "creator")

	drafts := []QuestionDraft{
		{Text: "capital of France?", Options: []string{"Paris", "Lyon", "Nice", "Lille"}, CorrectIndex: 0},
		{Text: "2+2?", Options: []string{"3", "4", "5", "6"}, CorrectIndex: 1},
	}
	catalog := NewCatalogService(db, &fakeGenerator{drafts: drafts})

	test, err := catalog.CreateBlitzTest(context.Background(), creator.ID, "trivia")
	if err != nil {
		t.Fatalf("blitz creation failed: %v", err)
	}
	if test.Mode != models.TestModeBlitz {
		t.Fatalf("expected blitz mode, got %s", test.Mode)
	}
	if len(test.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(test.Questions))
	}
	for _, q := range test.Questions {
		if q.Type != models.QuestionTypeSingle || q.Points != 1 {
			t.Fatalf("blitz questions must be 1-point single choice: %+v", q)
		}
		if len(q.Answers) != 4 {
			t.Fatalf("expected 4 options, got %d", len(q.Answers))
		}
	}
}

func TestCreateBlitzTestRejectsBadDrafts(t *testing.T) {
	db := newTestDB(t)
	creator := seedUser(t, db, "creator")

	cases := []struct {
		name   string
		drafts []QuestionDraft
		err    error
	}{
		{"no drafts", nil, nil},
		{"wrong option count", []QuestionDraft{
			{Text: "q", Options: []string{"a", "b"}, CorrectIndex: 0},
		}, nil},
		{"index out of range", []QuestionDraft{
			{Text: "q", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 4},
		}, nil},
		{"empty option", []QuestionDraft{
			{Text: "q", Options: []string{"a", "", "c", "d"}, CorrectIndex: 0},
		}, nil},
		{"generator failure", nil, fmt.Errorf("%w: model overloaded", ErrUpstream)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			catalog := NewCatalogService(db, &fakeGenerator{drafts: tc.drafts, err: tc.err})
			if _, err := catalog.CreateBlitzTest(context.Background(), creator.ID, "topic"); !errors.Is(err, ErrUpstream) {
				t.Fatalf("expected ErrUpstream, got %v", err)
			}
		})
	}

	// Failed generation leaves no partial test behind.
	var count int64
	db.Model(&models.Test{}).Where("creator_id = ?", creator.ID).Count(&count)
	if count != 0 {
		t.Fatalf("expected no tests after failures, found %d", count)
	}
}

func TestCreateBlitzTestRequiresConfiguration(t *testing.T) {
	db := newTestDB(t)
	creator := seedUser(t, db, "creator")

	catalog := NewCatalogService(db, nil)
	if _, err := catalog.CreateBlitzTest(context.Background(), creator.ID, "topic"); !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream without a generator, got %v", err)
	}

	withGen := NewCatalogService(db, &fakeGenerator{})
	if _, err := withGen.CreateBlitzTest(context.Background(), creator.ID, ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for empty topic, got %v", err)
	}
}

func TestCreateBlitzTestTruncatesOversizedBatch(t *testing.T) {
	db := newTestDB(t)
	creator := seedUser(t, db, "creator")

	drafts := make([]QuestionDraft, maxBlitzQuestions+5)
	for i := range drafts {
		drafts[i] = QuestionDraft{
			Text:    fmt.Sprintf("q%d", i),
			Options: []string{"a", "b", "c", "d"},
		}
	}
	catalog := NewCatalogService(db, &fakeGenerator{drafts: drafts})

	test, err := catalog.CreateBlitzTest(context.Background(), creator.ID, "big topic")
	if err != nil {
		t.Fatalf("blitz creation failed: %v", err)
	}
	if len(test.Questions) != maxBlitzQuestions {
		t.Fatalf("expected %d questions, got %d", maxBlitzQuestions, len(test.Questions))
	}
}
