package services

import "quizbit-backend/internal/models"

type ScoringService struct{}

func NewScoringService() *ScoringService {
	return &ScoringService{}
}

// Grade reports whether a response earns its question's points.
// Open-ended questions are never auto-graded: they stay pending and
// contribute zero until reviewed by hand.
func (s *ScoringService) Grade(question models.Question, response *models.UserResponse) bool {
	if response == nil {
		return false
	}

	switch question.Type {
	case models.QuestionTypeSingle:
		if len(response.SelectedAnswers) != 1 {
			return false
		}
		correct := question.CorrectAnswerIDs()
		if len(correct) != 1 {
			return false
		}
		return correct[response.SelectedAnswers[0].ID]

	case models.QuestionTypeMultiple:
		correct := question.CorrectAnswerIDs()
		if len(correct) == 0 || len(response.SelectedAnswers) != len(correct) {
			return false
		}
		for _, a := range response.SelectedAnswers {
			if !correct[a.ID] {
				return false
			}
		}
		return true

	default:
		return false
	}
}

// ScoreSession sums the points of every correctly answered question.
func (s *ScoringService) ScoreSession(questions []models.Question, responses []models.UserResponse) int {
	byQuestion := make(map[string]*models.UserResponse, len(responses))
	for i := range responses {
		byQuestion[responses[i].QuestionID] = &responses[i]
	}

	total := 0
	for _, q := range questions {
		if s.Grade(q, byQuestion[q.ID]) {
			total += q.Points
		}
	}
	return total
}
