package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/framelab/annotation-service/internal/models"
	"github.com/framelab/annotation-service/internal/services"
	"github.com/framelab/annotation-service/internal/utils"
)

type AuthHandler struct {
	BaseHandler
	authService services.AuthService
	sessions    *SessionAuthMiddleware
}

func NewAuthHandler(authService services.AuthService, sessions *SessionAuthMiddleware, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		authService: authService,
		sessions:    sessions,
	}
}

// ListUsers lists users for the login picker
// @Summary List users
// @Tags auth
// @Produce json
// @Success 200 {array} models.UserSummary
// @Failure 500 {object} ErrorResponse
// @Router /users [get]
func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.authService.ListUsers(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Login checks the shared password and sets the session cookie
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body models.LoginRequest true "Selected user and password"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	user, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	if err := h.sessions.SetSession(c, user); err != nil {
		h.LogError(c, err, "Failed to encode session")
		h.RespondWithError(c, http.StatusInternalServerError, "Internal server error", nil)
		return
	}

	h.LogRequest(c, "Session started", "user_id", user.ID)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    models.UserSummary{ID: user.ID, DisplayName: user.DisplayName, Role: user.Role},
	})
}

// Logout clears the session cookie
// @Summary Log out
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	h.sessions.ClearSession(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Session returns the signed-in user
// @Summary Current session
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} ErrorResponse
// @Router /session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		h.RespondWithError(c, http.StatusUnauthorized, "No active session", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    models.UserSummary{ID: user.ID, DisplayName: user.DisplayName, Role: user.Role},
	})
}
