package handlers

import (
	"net/http"

	"quizbit-backend/internal/services"
	"quizbit-backend/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type CompetitiveHandler struct {
	competitive *services.CompetitiveService
	hub         *ws.Hub
	upgrader    websocket.Upgrader
}

func NewCompetitiveHandler(competitive *services.CompetitiveService, hub *ws.Hub) *CompetitiveHandler {
	return &CompetitiveHandler{
		competitive: competitive,
		hub:         hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type CreateCompetitionRequest struct {
	TestID string `json:"test_id" binding:"required"`
}

// CreateCompetition godoc
// @Summary      Create a competitive session
// @Tags         competitions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateCompetitionRequest true "Competition data"
// @Success      201 {object} object
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/competitions [post]
func (h *CompetitiveHandler) CreateCompetition(c *gin.Context) {
	var req CreateCompetitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	session, err := h.competitive.Create(req.TestID, c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// ListCompetitions godoc
// @Summary      List active competitive sessions
// @Tags         competitions
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} object
// @Router       /api/v1/competitions [get]
func (h *CompetitiveHandler) ListCompetitions(c *gin.Context) {
	sessions, err := h.competitive.ListActive()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// GetCompetition godoc
// @Summary      Get a competitive session
// @Tags         competitions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Competition ID"
// @Success      200 {object} object
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/competitions/{id} [get]
func (h *CompetitiveHandler) GetCompetition(c *gin.Context) {
	session, err := h.competitive.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// StartCompetition godoc
// @Summary      Open the competitive window
// @Tags         competitions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Competition ID"
// @Success      200 {object} object
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/competitions/{id}/start [post]
func (h *CompetitiveHandler) StartCompetition(c *gin.Context) {
	session, err := h.competitive.Start(c.Param("id"), c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.Broadcast(session.ID, ws.WSMessage{Type: "competition_started", Data: session})
	c.JSON(http.StatusOK, session)
}

// EndCompetition godoc
// @Summary      Close the competitive window
// @Tags         competitions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Competition ID"
// @Success      200 {object} object
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/competitions/{id}/end [post]
func (h *CompetitiveHandler) EndCompetition(c *gin.Context) {
	session, err := h.competitive.End(c.Param("id"), c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if board, berr := h.competitive.Leaderboard(session.ID); berr == nil {
		h.hub.Broadcast(session.ID, ws.WSMessage{Type: "competition_ended", Data: board})
	}
	c.JSON(http.StatusOK, session)
}

// JoinCompetition godoc
// @Summary      Join a competitive session
// @Description  Starts or resumes a test session on the competition's test
// @Tags         competitions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Competition ID"
// @Success      200 {object} object
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/competitions/{id}/join [post]
func (h *CompetitiveHandler) JoinCompetition(c *gin.Context) {
	session, err := h.competitive.Join(c.Param("id"), c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.Broadcast(c.Param("id"), ws.WSMessage{Type: "participant_joined", Data: gin.H{
		"user_id":    session.UserID,
		"session_id": session.ID,
	}})
	c.JSON(http.StatusOK, session)
}

// GetLeaderboard godoc
// @Summary      Fetch the competition leaderboard
// @Tags         competitions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Competition ID"
// @Success      200 {array} object
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/competitions/{id}/leaderboard [get]
func (h *CompetitiveHandler) GetLeaderboard(c *gin.Context) {
	board, err := h.competitive.Leaderboard(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

// HandleWebSocket streams competition events (joins, leaderboard
// updates) to watchers.
func (h *CompetitiveHandler) HandleWebSocket(c *gin.Context) {
	sessionID := c.Param("id")
	if _, err := h.competitive.Get(sessionID); err != nil {
		respondError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	h.hub.AddConnection(sessionID, conn)
	defer h.hub.RemoveConnection(sessionID, conn)

	// New watchers get the current standings right away instead of
	// waiting for the next completion to trigger a broadcast.
	if board, berr := h.competitive.Leaderboard(sessionID); berr == nil {
		if serr := h.hub.Send(conn, ws.WSMessage{Type: "leaderboard_snapshot", Data: board}); serr != nil {
			return
		}
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
