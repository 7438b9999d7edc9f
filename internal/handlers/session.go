package handlers

import (
	"net/http"

	"quizbit-backend/internal/services"
	"quizbit-backend/internal/ws"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	sessions    *services.SessionService
	competitive *services.CompetitiveService
	hub         *ws.Hub
}

func NewSessionHandler(sessions *services.SessionService, competitive *services.CompetitiveService, hub *ws.Hub) *SessionHandler {
	return &SessionHandler{sessions: sessions, competitive: competitive, hub: hub}
}

type SubmitResponseRequest struct {
	QuestionID   string   `json:"question_id" binding:"required"`
	AnswerIDs    []string `json:"answer_ids"`
	OpenResponse *string  `json:"open_response"`
	ResponseTime *float64 `json:"response_time"`
}

// StartSession godoc
// @Summary      Start or resume a test session
// @Description  Returns the existing in-progress session for this test if one exists
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Test ID"
// @Success      200 {object} object
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/tests/{id}/sessions [post]
func (h *SessionHandler) StartSession(c *gin.Context) {
	session, err := h.sessions.StartOrResume(c.Param("id"), c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// ListSessions godoc
// @Summary      List the caller's sessions
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} object
// @Router       /api/v1/sessions [get]
func (h *SessionHandler) ListSessions(c *gin.Context) {
	sessions, err := h.sessions.ListSessions(c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// GetSession godoc
// @Summary      Get one session with its responses
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Session ID"
// @Success      200 {object} object
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/sessions/{id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	session, err := h.sessions.GetSession(c.Param("id"), c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// SubmitResponse godoc
// @Summary      Submit one response to a question
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Session ID"
// @Param        request body SubmitResponseRequest true "Response data"
// @Success      201 {object} object
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/sessions/{id}/responses [post]
func (h *SessionHandler) SubmitResponse(c *gin.Context) {
	var req SubmitResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	response, err := h.sessions.SubmitResponse(c.Param("id"), c.GetString("user_id"), services.ResponseInput{
		QuestionID:   req.QuestionID,
		AnswerIDs:    req.AnswerIDs,
		OpenResponse: req.OpenResponse,
		ResponseTime: req.ResponseTime,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// CompleteSession godoc
// @Summary      Complete a session and compute its score
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Session ID"
// @Success      200 {object} object
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/sessions/{id}/complete [post]
func (h *SessionHandler) CompleteSession(c *gin.Context) {
	session, err := h.sessions.Complete(c.Param("id"), c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	// Push fresh leaderboards to any live window this session fell into.
	// Windows nobody is watching don't get a board computed at all.
	if windows, werr := h.competitive.ActiveWindowsFor(session.TestID); werr == nil {
		for _, w := range windows {
			if h.hub.WatcherCount(w.ID) == 0 {
				continue
			}
			if board, berr := h.competitive.Leaderboard(w.ID); berr == nil {
				h.hub.Broadcast(w.ID, ws.WSMessage{Type: "leaderboard_updated", Data: board})
			}
		}
	}

	c.JSON(http.StatusOK, session)
}
