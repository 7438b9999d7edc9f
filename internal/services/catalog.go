package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"quizbit-backend/internal/models"

	"gorm.io/gorm"
)

// CatalogService owns test authoring: tests, their questions and answers.
// Published tests are immutable for everyone but the creator.
type CatalogService struct {
	db        *gorm.DB
	generator Generator
}

func NewCatalogService(db *gorm.DB, generator Generator) *CatalogService {
	return &CatalogService{db: db, generator: generator}
}

type TestInput struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	TimeLimit        *int   `json:"time_limit"`
	ShuffleQuestions bool   `json:"shuffle_questions"`
	ShuffleAnswers   bool   `json:"shuffle_answers"`
	Mode             string `json:"mode"`
}

type AnswerInput struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type QuestionInput struct {
	Text     string        `json:"text"`
	Type     string        `json:"type"`
	Points   int           `json:"points"`
	OrderNum int           `json:"order_num"`
	Answers  []AnswerInput `json:"answers"`
}

func (s *CatalogService) CreateTest(creatorID string, input TestInput) (*models.Test, error) {
	mode := input.Mode
	if mode == "" {
		mode = models.TestModeNormal
	}
	if mode != models.TestModeNormal && mode != models.TestModeCompetitive && mode != models.TestModeBlitz {
		return nil, fmt.Errorf("%w: unknown test mode %q", ErrValidation, input.Mode)
	}
	if input.TimeLimit != nil && *input.TimeLimit <= 0 {
		return nil, fmt.Errorf("%w: time limit must be positive", ErrValidation)
	}

	test := models.Test{
		CreatorID:        creatorID,
		Title:            input.Title,
		Description:      input.Description,
		TimeLimit:        input.TimeLimit,
		ShuffleQuestions: input.ShuffleQuestions,
		ShuffleAnswers:   input.ShuffleAnswers,
		Mode:             mode,
		IsActive:         true,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&test).Error; err != nil {
			return err
		}
		return tx.Model(&models.Profile{}).Where("user_id = ?", creatorID).
			Update("tests_created", gorm.Expr("tests_created + 1")).Error
	})
	if err != nil {
		return nil, err
	}
	return &test, nil
}

func (s *CatalogService) ListTests() ([]models.Test, error) {
	var tests []models.Test
	err := s.db.Where("is_active = ?", true).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_num ASC")
		}).
		Order("created_at DESC").
		Find(&tests).Error
	if err != nil {
		return nil, err
	}
	return tests, nil
}

func (s *CatalogService) ListTestsByCreator(creatorID string) ([]models.Test, error) {
	var tests []models.Test
	err := s.db.Where("creator_id = ?", creatorID).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_num ASC")
		}).
		Preload("Questions.Answers").
		Order("created_at DESC").
		Find(&tests).Error
	if err != nil {
		return nil, err
	}
	return tests, nil
}

// GetTest returns the full test graph. Answer correctness is included
// only for the creator; everyone else gets the taker view with the
// correctness flags stripped and shuffle flags applied.
func (s *CatalogService) GetTest(testID, viewerID string) (*models.Test, error) {
	test, err := s.loadTest(testID)
	if err != nil {
		return nil, err
	}
	if test.CreatorID == viewerID {
		return test, nil
	}
	if !test.IsActive {
		return nil, fmt.Errorf("%w: test %s", ErrNotFound, testID)
	}
	sanitizeForTaker(test)
	return test, nil
}

func (s *CatalogService) loadTest(testID string) (*models.Test, error) {
	var test models.Test
	err := s.db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_num ASC")
	}).
		Preload("Questions.Answers").
		First(&test, "id = ?", testID).Error
	if err != nil {
		return nil, fmt.Errorf("%w: test %s", ErrNotFound, testID)
	}
	return &test, nil
}

func sanitizeForTaker(test *models.Test) {
	if test.ShuffleQuestions {
		rand.Shuffle(len(test.Questions), func(i, j int) {
			test.Questions[i], test.Questions[j] = test.Questions[j], test.Questions[i]
		})
	}
	for i := range test.Questions {
		answers := test.Questions[i].Answers
		if test.ShuffleAnswers {
			rand.Shuffle(len(answers), func(a, b int) {
				answers[a], answers[b] = answers[b], answers[a]
			})
		}
		for j := range answers {
			answers[j].IsCorrect = false
		}
	}
}

func (s *CatalogService) UpdateTest(testID, callerID string, input TestInput) (*models.Test, error) {
	var test models.Test
	if err := s.db.First(&test, "id = ?", testID).Error; err != nil {
		return nil, fmt.Errorf("%w: test %s", ErrNotFound, testID)
	}
	if test.CreatorID != callerID {
		return nil, fmt.Errorf("%w: only the creator may modify a test", ErrForbidden)
	}
	if input.TimeLimit != nil && *input.TimeLimit <= 0 {
		return nil, fmt.Errorf("%w: time limit must be positive", ErrValidation)
	}

	test.Title = input.Title
	test.Description = input.Description
	test.TimeLimit = input.TimeLimit
	test.ShuffleQuestions = input.ShuffleQuestions
	test.ShuffleAnswers = input.ShuffleAnswers
	if err := s.db.Save(&test).Error; err != nil {
		return nil, err
	}
	return &test, nil
}

func (s *CatalogService) DeleteTest(testID, callerID string) error {
	var test models.Test
	if err := s.db.First(&test, "id = ?", testID).Error; err != nil {
		return fmt.Errorf("%w: test %s", ErrNotFound, testID)
	}
	if test.CreatorID != callerID {
		return fmt.Errorf("%w: only the creator may delete a test", ErrForbidden)
	}

	// Deleting a test takes its whole attempt history with it: session
	// and response rows reference the test's questions and answers and
	// cannot outlive them.
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			"DELETE FROM response_answers WHERE user_response_id IN (SELECT id FROM user_responses WHERE session_id IN (SELECT id FROM test_sessions WHERE test_id = ?))",
			testID).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id IN (SELECT id FROM test_sessions WHERE test_id = ?)", testID).
			Delete(&models.UserResponse{}).Error; err != nil {
			return err
		}
		if err := tx.Where("test_id = ?", testID).Delete(&models.TestSession{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id IN (SELECT id FROM questions WHERE test_id = ?)", testID).
			Delete(&models.Answer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("test_id = ?", testID).Delete(&models.Question{}).Error; err != nil {
			return err
		}
		return tx.Delete(&test).Error
	})
}

func (s *CatalogService) AddQuestion(testID, callerID string, input QuestionInput) (*models.Question, error) {
	var test models.Test
	if err := s.db.First(&test, "id = ?", testID).Error; err != nil {
		return nil, fmt.Errorf("%w: test %s", ErrNotFound, testID)
	}
	if test.CreatorID != callerID {
		return nil, fmt.Errorf("%w: only the creator may add questions", ErrForbidden)
	}
	if err := validateQuestion(input); err != nil {
		return nil, err
	}

	question := models.Question{
		TestID:   testID,
		Text:     input.Text,
		Type:     input.Type,
		Points:   input.Points,
		OrderNum: input.OrderNum,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&question).Error; err != nil {
			return err
		}
		for _, a := range input.Answers {
			answer := models.Answer{
				QuestionID: question.ID,
				Text:       a.Text,
				IsCorrect:  a.IsCorrect,
			}
			if err := tx.Create(&answer).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.db.Preload("Answers").First(&question, "id = ?", question.ID)
	return &question, nil
}

func validateQuestion(input QuestionInput) error {
	if input.Points < 0 {
		return fmt.Errorf("%w: points must not be negative", ErrValidation)
	}

	correct := 0
	for _, a := range input.Answers {
		if a.IsCorrect {
			correct++
		}
	}

	switch input.Type {
	case models.QuestionTypeSingle:
		if len(input.Answers) < 2 {
			return fmt.Errorf("%w: single choice needs at least two answers", ErrValidation)
		}
		if correct != 1 {
			return fmt.Errorf("%w: single choice needs exactly one correct answer", ErrValidation)
		}
	case models.QuestionTypeMultiple:
		if len(input.Answers) < 2 {
			return fmt.Errorf("%w: multiple choice needs at least two answers", ErrValidation)
		}
		if correct < 1 {
			return fmt.Errorf("%w: multiple choice needs at least one correct answer", ErrValidation)
		}
	case models.QuestionTypeOpen:
		if len(input.Answers) > 0 {
			return fmt.Errorf("%w: open questions take no predefined answers", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown question type %q", ErrValidation, input.Type)
	}
	return nil
}

// CloneShuffled copies a test into a new variant with question order
// reshuffled (and answer order too when the source test shuffles
// answers). Creator only: the clone carries correctness flags, so
// handing one to a taker would reveal the source test's answer key.
func (s *CatalogService) CloneShuffled(testID, callerID string) (*models.Test, error) {
	source, err := s.loadTest(testID)
	if err != nil {
		return nil, err
	}
	if source.CreatorID != callerID {
		return nil, fmt.Errorf("%w: only the creator may clone a test", ErrForbidden)
	}

	clone := models.Test{
		CreatorID:        callerID,
		Title:            source.Title + " (variant)",
		Description:      source.Description,
		TimeLimit:        source.TimeLimit,
		ShuffleQuestions: source.ShuffleQuestions,
		ShuffleAnswers:   source.ShuffleAnswers,
		Mode:             source.Mode,
		IsActive:         true,
	}

	order := rand.Perm(len(source.Questions))
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&clone).Error; err != nil {
			return err
		}
		for pos, idx := range order {
			q := source.Questions[idx]
			newQ := models.Question{
				TestID:   clone.ID,
				Text:     q.Text,
				Type:     q.Type,
				Points:   q.Points,
				OrderNum: pos,
			}
			if err := tx.Create(&newQ).Error; err != nil {
				return err
			}
			answers := append([]models.Answer(nil), q.Answers...)
			if source.ShuffleAnswers {
				rand.Shuffle(len(answers), func(i, j int) {
					answers[i], answers[j] = answers[j], answers[i]
				})
			}
			for _, a := range answers {
				newA := models.Answer{
					QuestionID: newQ.ID,
					Text:       a.Text,
					IsCorrect:  a.IsCorrect,
				}
				if err := tx.Create(&newA).Error; err != nil {
					return err
				}
			}
		}
		return tx.Model(&models.Profile{}).Where("user_id = ?", callerID).
			Update("tests_created", gorm.Expr("tests_created + 1")).Error
	})
	if err != nil {
		return nil, err
	}

	return s.loadTest(clone.ID)
}

const maxBlitzQuestions = 20

// CreateBlitzTest builds a test from drafts produced by the external
// generator. The generator's output shape is validated here so a broken
// upstream never leaves a half-formed test behind.
func (s *CatalogService) CreateBlitzTest(ctx context.Context, creatorID, topic string) (*models.Test, error) {
	if s.generator == nil {
		return nil, fmt.Errorf("%w: question generation is not configured", ErrUpstream)
	}
	if topic == "" {
		return nil, fmt.Errorf("%w: topic is required", ErrValidation)
	}

	drafts, err := s.generator.Generate(ctx, topic)
	if err != nil {
		if errors.Is(err, ErrUpstream) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(drafts) == 0 {
		return nil, fmt.Errorf("%w: generator returned no questions", ErrUpstream)
	}
	if len(drafts) > maxBlitzQuestions {
		drafts = drafts[:maxBlitzQuestions]
	}
	for i, d := range drafts {
		if d.Text == "" || len(d.Options) != blitzOptionCount {
			return nil, fmt.Errorf("%w: malformed question draft at index %d", ErrUpstream, i)
		}
		if d.CorrectIndex < 0 || d.CorrectIndex >= len(d.Options) {
			return nil, fmt.Errorf("%w: correct option index out of range at index %d", ErrUpstream, i)
		}
		for _, opt := range d.Options {
			if opt == "" {
				return nil, fmt.Errorf("%w: empty option text at index %d", ErrUpstream, i)
			}
		}
	}

	test := models.Test{
		CreatorID:   creatorID,
		Title:       "Blitz: " + topic,
		Description: "Auto-generated blitz quiz on " + topic,
		Mode:        models.TestModeBlitz,
		IsActive:    true,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&test).Error; err != nil {
			return err
		}
		for i, d := range drafts {
			q := models.Question{
				TestID:   test.ID,
				Text:     d.Text,
				Type:     models.QuestionTypeSingle,
				Points:   1,
				OrderNum: i,
			}
			if err := tx.Create(&q).Error; err != nil {
				return err
			}
			for j, opt := range d.Options {
				a := models.Answer{
					QuestionID: q.ID,
					Text:       opt,
					IsCorrect:  j == d.CorrectIndex,
				}
				if err := tx.Create(&a).Error; err != nil {
					return err
				}
			}
		}
		return tx.Model(&models.Profile{}).Where("user_id = ?", creatorID).
			Update("tests_created", gorm.Expr("tests_created + 1")).Error
	})
	if err != nil {
		return nil, err
	}

	return s.loadTest(test.ID)
}
