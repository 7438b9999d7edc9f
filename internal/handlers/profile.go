package handlers

import (
	"net/http"

	"quizbit-backend/internal/services"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profiles *services.ProfileService
}

func NewProfileHandler(profiles *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

type UpdateProfileRequest struct {
	Bio       string `json:"bio" example:"Quiz enthusiast"`
	AvatarURL string `json:"avatar_url" example:"https://example.com/a.png"`
}

type SendFriendRequestRequest struct {
	ToUserID string `json:"to_user_id" binding:"required"`
}

// GetMyProfile godoc
// @Summary      Get the caller's profile
// @Tags         profiles
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} object
// @Router       /api/v1/profiles/me [get]
func (h *ProfileHandler) GetMyProfile(c *gin.Context) {
	profile, err := h.profiles.GetByUserID(c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateMyProfile godoc
// @Summary      Update the caller's profile
// @Tags         profiles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body UpdateProfileRequest true "Profile data"
// @Success      200 {object} object
// @Router       /api/v1/profiles/me [put]
func (h *ProfileHandler) UpdateMyProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	profile, err := h.profiles.UpdateProfile(c.GetString("user_id"), services.ProfileInput{
		Bio:       req.Bio,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GetProfile godoc
// @Summary      Get a profile by id
// @Tags         profiles
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Profile ID"
// @Success      200 {object} object
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/profiles/{id} [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profile, err := h.profiles.GetByID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GetFriends godoc
// @Summary      List a profile's friends
// @Tags         profiles
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Profile ID"
// @Success      200 {array} object
// @Router       /api/v1/profiles/{id}/friends [get]
func (h *ProfileHandler) GetFriends(c *gin.Context) {
	friends, err := h.profiles.Friends(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, friends)
}

// GetAchievements godoc
// @Summary      List a profile's earned achievements
// @Tags         profiles
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Profile ID"
// @Success      200 {array} object
// @Router       /api/v1/profiles/{id}/achievements [get]
func (h *ProfileHandler) GetAchievements(c *gin.Context) {
	earned, err := h.profiles.UserAchievements(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, earned)
}

// SearchUsers godoc
// @Summary      Search users by username or email
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        search query string false "Search term"
// @Success      200 {array} object
// @Router       /api/v1/users [get]
func (h *ProfileHandler) SearchUsers(c *gin.Context) {
	users, err := h.profiles.SearchUsers(c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// ListAchievements godoc
// @Summary      List the achievement catalog
// @Tags         achievements
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} object
// @Router       /api/v1/achievements [get]
func (h *ProfileHandler) ListAchievements(c *gin.Context) {
	achievements, err := h.profiles.ListAchievements()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, achievements)
}

// SendFriendRequest godoc
// @Summary      Send a friend request
// @Tags         friends
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body SendFriendRequestRequest true "Target user"
// @Success      201 {object} object
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/friend-requests [post]
func (h *ProfileHandler) SendFriendRequest(c *gin.Context) {
	var req SendFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	request, err := h.profiles.SendFriendRequest(c.GetString("user_id"), req.ToUserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

// ReceivedFriendRequests godoc
// @Summary      List pending friend requests received by the caller
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} object
// @Router       /api/v1/friend-requests/received [get]
func (h *ProfileHandler) ReceivedFriendRequests(c *gin.Context) {
	requests, err := h.profiles.ReceivedFriendRequests(c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

// SentFriendRequests godoc
// @Summary      List friend requests sent by the caller
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} object
// @Router       /api/v1/friend-requests/sent [get]
func (h *ProfileHandler) SentFriendRequests(c *gin.Context) {
	requests, err := h.profiles.SentFriendRequests(c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

// AcceptFriendRequest godoc
// @Summary      Accept a friend request
// @Description  Both friendship directions are added atomically
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Request ID"
// @Success      200 {object} MessageResponse
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/friend-requests/{id}/accept [post]
func (h *ProfileHandler) AcceptFriendRequest(c *gin.Context) {
	if err := h.profiles.AcceptFriendRequest(c.Param("id"), c.GetString("user_id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "friend request accepted"})
}

// RejectFriendRequest godoc
// @Summary      Reject a friend request
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Request ID"
// @Success      200 {object} MessageResponse
// @Failure      403 {object} ErrorResponse
// @Router       /api/v1/friend-requests/{id}/reject [post]
func (h *ProfileHandler) RejectFriendRequest(c *gin.Context) {
	if err := h.profiles.RejectFriendRequest(c.Param("id"), c.GetString("user_id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "friend request rejected"})
}
