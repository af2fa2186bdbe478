package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/framelab/annotation-service/internal/models"
	"github.com/framelab/annotation-service/internal/services"
	"github.com/framelab/annotation-service/internal/utils"
	"github.com/framelab/annotation-service/internal/validator"
)

type CategorizationHandler struct {
	BaseHandler
	categorizationService services.CategorizationService
	validator             *validator.Validator
}

func NewCategorizationHandler(
	categorizationService services.CategorizationService,
	validator *validator.Validator,
	logger utils.Logger,
) *CategorizationHandler {
	return &CategorizationHandler{
		BaseHandler:           NewBaseHandler(logger),
		categorizationService: categorizationService,
		validator:             validator,
	}
}

// GetCategorizations returns the session user's labels for a unit
// @Summary Get categorizations
// @Tags categorizations
// @Produce json
// @Param segment_id query int false "Segment ID"
// @Param group_id query int false "Group ID"
// @Param conversation_id query int false "Conversation ID"
// @Success 200 {object} models.CategorizationsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /categorizations [get]
func (h *CategorizationHandler) GetCategorizations(c *gin.Context) {
	unit, ok := h.bindUnit(c)
	if !ok {
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		h.RespondWithError(c, http.StatusUnauthorized, "No active session", nil)
		return
	}

	records, err := h.categorizationService.Get(c.Request.Context(), unit, user.ID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.CategorizationsResponse{Success: true, Categorizations: records})
}

// SaveCategorizations upserts unsaved edits and reports a result per key
// @Summary Save categorizations
// @Description Keys are frame_<id> for segments and frame_<id>_<left|right> for paired units.
// @Tags categorizations
// @Accept json
// @Produce json
// @Param request body models.SaveCategorizationsRequest true "Unit and changes"
// @Success 200 {object} models.SaveResult
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} models.SaveResult
// @Router /categorizations [put]
func (h *CategorizationHandler) SaveCategorizations(c *gin.Context) {
	var req models.SaveCategorizationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Missing required parameters", err)
		return
	}
	unit, ok := req.UnitSelector.Unit()
	if !ok {
		h.RespondWithError(c, http.StatusBadRequest, "Missing required parameters", nil)
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		h.RespondWithError(c, http.StatusUnauthorized, "No active session", nil)
		return
	}

	h.LogRequest(c, "Saving categorizations", "unit", unit.String(), "changes", len(req.Changes))

	result, err := h.categorizationService.Save(c.Request.Context(), unit, user.ID, req.Changes)
	if err != nil {
		if errors.Is(err, services.ErrSaveFailed) && result != nil {
			h.LogError(c, err, "Categorization write failed", "unit", unit.String())
			c.JSON(http.StatusInternalServerError, result)
			return
		}
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
