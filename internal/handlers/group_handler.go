package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/framelab/annotation-service/internal/models"
	"github.com/framelab/annotation-service/internal/services"
	"github.com/framelab/annotation-service/internal/utils"
	"github.com/framelab/annotation-service/internal/validator"
)

type GroupHandler struct {
	BaseHandler
	groupService services.GroupService
	validator    *validator.Validator
}

func NewGroupHandler(groupService services.GroupService, validator *validator.Validator, logger utils.Logger) *GroupHandler {
	return &GroupHandler{
		BaseHandler:  NewBaseHandler(logger),
		groupService: groupService,
		validator:    validator,
	}
}

// ListGroups lists groups, or the segments of one group when group_id is given
// @Summary List groups or segments
// @Tags groups
// @Produce json
// @Param group_id query int false "Return this group's segments instead"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /groups [get]
func (h *GroupHandler) ListGroups(c *gin.Context) {
	if raw := c.Query("group_id"); raw != "" {
		groupID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || groupID == 0 {
			h.RespondWithError(c, http.StatusBadRequest, "Invalid group_id", nil)
			return
		}
		segments, err := h.groupService.Segments(c.Request.Context(), uint(groupID))
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "segments": segments})
		return
	}

	user, ok := h.currentUser(c)
	if !ok {
		h.RespondWithError(c, http.StatusUnauthorized, "No active session", nil)
		return
	}
	groups, err := h.groupService.List(c.Request.Context(), user.ID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "groups": groups})
}

// SetCompletion marks a group done (or not) for the session user
// @Summary Set group completion
// @Tags groups
// @Accept json
// @Produce json
// @Param request body models.GroupCompletionRequest true "Group and flag"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /groups [post]
func (h *GroupHandler) SetCompletion(c *gin.Context) {
	var req models.GroupCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.handleServiceError(c, err)
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		h.RespondWithError(c, http.StatusUnauthorized, "No active session", nil)
		return
	}

	group, err := h.groupService.SetCompletion(c.Request.Context(), req.GroupID, user.ID, req.Completed)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "group": group})
}
