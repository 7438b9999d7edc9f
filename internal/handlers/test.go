package handlers

import (
	"net/http"

	"quizbit-backend/internal/services"

	"github.com/gin-gonic/gin"
)

type TestHandler struct {
	catalog *services.CatalogService
}

func NewTestHandler(catalog *services.CatalogService) *TestHandler {
	return &TestHandler{catalog: catalog}
}

type CreateTestRequest struct {
	Title            string `json:"title" binding:"required,min=1,max=255" example:"Go basics"`
	Description      string `json:"description" example:"Syntax and tooling"`
	TimeLimit        *int   `json:"time_limit" example:"600"`
	ShuffleQuestions bool   `json:"shuffle_questions"`
	ShuffleAnswers   bool   `json:"shuffle_answers"`
	Mode             string `json:"mode" example:"normal"`
}

type AddQuestionRequest struct {
	Text     string                 `json:"text" binding:"required" example:"What does gofmt do?"`
	Type     string                 `json:"type" binding:"required" example:"single"`
	Points   int                    `json:"points" example:"2"`
	OrderNum int                    `json:"order_num" example:"0"`
	Answers  []services.AnswerInput `json:"answers"`
}

type GenerateTestRequest struct {
	Topic string `json:"topic" binding:"required,min=1,max=255" example:"Solar system"`
}

// ListTests godoc
// @Summary      List active tests
// @Tags         tests
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} object
// @Failure      401 {object} ErrorResponse
// @Router       /api/v1/tests [get]
func (h *TestHandler) ListTests(c *gin.Context) {
	if c.Query("mine") == "true" {
		tests, err := h.catalog.ListTestsByCreator(c.GetString("user_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tests)
		return
	}

	tests, err := h.catalog.ListTests()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tests)
}

// CreateTest godoc
// @Summary      Create a test
// @Tags         tests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateTestRequest true "Test data"
// @Success      201 {object} object
// @Failure      400 {object} ErrorResponse
// @Router       /api/v1/tests [post]
func (h *TestHandler) CreateTest(c *gin.Context) {
	var req CreateTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	test, err := h.catalog.CreateTest(c.GetString("user_id"), services.TestInput{
		Title:            req.Title,
		Description:      req.Description,
		TimeLimit:        req.TimeLimit,
		ShuffleQuestions: req.ShuffleQuestions,
		ShuffleAnswers:   req.ShuffleAnswers,
		Mode:             req.Mode,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, test)
}

// GetTest godoc
// @Summary      Get a test
// @Description  Full graph for the creator, sanitized taker view for everyone else
// @Tags         tests
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Test ID"
// @Success      200 {object} object
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/tests/{id} [get]
func (h *TestHandler) GetTest(c *gin.Context) {
	test, err := h.catalog.GetTest(c.Param("id"), c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, test)
}

// UpdateTest godoc
// @Summary      Update a test
// @Tags         tests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Test ID"
// @Param        request body CreateTestRequest true "Test data"
// @Success      200 {object} object
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/tests/{id} [put]
func (h *TestHandler) UpdateTest(c *gin.Context) {
	var req CreateTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	test, err := h.catalog.UpdateTest(c.Param("id"), c.GetString("user_id"), services.TestInput{
		Title:            req.Title,
		Description:      req.Description,
		TimeLimit:        req.TimeLimit,
		ShuffleQuestions: req.ShuffleQuestions,
		ShuffleAnswers:   req.ShuffleAnswers,
		Mode:             req.Mode,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, test)
}

// DeleteTest godoc
// @Summary      Delete a test
// @Tags         tests
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Test ID"
// @Success      200 {object} MessageResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/tests/{id} [delete]
func (h *TestHandler) DeleteTest(c *gin.Context) {
	if err := h.catalog.DeleteTest(c.Param("id"), c.GetString("user_id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "test deleted"})
}

// AddQuestion godoc
// @Summary      Add a question with its answers to a test
// @Tags         tests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Test ID"
// @Param        request body AddQuestionRequest true "Question data"
// @Success      201 {object} object
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Router       /api/v1/tests/{id}/questions [post]
func (h *TestHandler) AddQuestion(c *gin.Context) {
	var req AddQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	question, err := h.catalog.AddQuestion(c.Param("id"), c.GetString("user_id"), services.QuestionInput{
		Text:     req.Text,
		Type:     req.Type,
		Points:   req.Points,
		OrderNum: req.OrderNum,
		Answers:  req.Answers,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

// CloneTest godoc
// @Summary      Clone a test as a shuffled variant
// @Tags         tests
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Test ID"
// @Success      201 {object} object
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/tests/{id}/clone [post]
func (h *TestHandler) CloneTest(c *gin.Context) {
	clone, err := h.catalog.CloneShuffled(c.Param("id"), c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, clone)
}

// GenerateTest godoc
// @Summary      Generate a blitz test from a topic
// @Description  Builds a test from questions produced by the external generator
// @Tags         tests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body GenerateTestRequest true "Topic"
// @Success      201 {object} object
// @Failure      400 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /api/v1/tests/generate [post]
func (h *TestHandler) GenerateTest(c *gin.Context) {
	var req GenerateTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	test, err := h.catalog.CreateBlitzTest(c.Request.Context(), c.GetString("user_id"), req.Topic)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, test)
}
