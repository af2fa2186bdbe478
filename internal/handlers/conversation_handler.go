package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/framelab/annotation-service/internal/models"
	"github.com/framelab/annotation-service/internal/services"
	"github.com/framelab/annotation-service/internal/utils"
)

type ConversationHandler struct {
	BaseHandler
	conversationService services.ConversationService
}

func NewConversationHandler(conversationService services.ConversationService, logger utils.Logger) *ConversationHandler {
	return &ConversationHandler{
		BaseHandler:         NewBaseHandler(logger),
		conversationService: conversationService,
	}
}

// Lookup resolves timepoint/couple/conversation codes to ids
// @Summary Look up a conversation
// @Tags conversations
// @Produce json
// @Param timepoint query string true "Timepoint code, any case"
// @Param couple query string true "Couple code"
// @Param conversation query int true "Conversation number"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} map[string]interface{}
// @Router /conversations/lookup [get]
func (h *ConversationHandler) Lookup(c *gin.Context) {
	timepoint := c.Query("timepoint")
	couple := c.Query("couple")
	conversation := c.Query("conversation")
	if timepoint == "" || couple == "" || conversation == "" {
		h.RespondWithError(c, http.StatusBadRequest, "Missing required parameters: timepoint, couple, conversation", nil)
		return
	}
	number, err := strconv.Atoi(conversation)
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid conversation number", nil)
		return
	}

	h.LogRequest(c, "Looking up conversation", "timepoint", timepoint, "couple", couple, "conversation", number)

	ref, err := h.conversationService.Lookup(c.Request.Context(), timepoint, couple, number)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"conversation_id": ref.ConversationID,
		"timepoint_id":    ref.TimepointID,
		"couple_id":       ref.CoupleID,
	})
}

// ListConversations returns status for every conversation of the given couples
// @Summary List conversations
// @Tags conversations
// @Produce json
// @Param timepoint query string true "Timepoint code"
// @Param couples query string true "Comma separated couple codes"
// @Param summary_only query bool false "Only return stats"
// @Success 200 {object} models.ConversationListResponse
// @Failure 400 {object} ErrorResponse
// @Router /conversations [get]
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	timepoint := c.Query("timepoint")
	var couples []string
	for _, code := range strings.Split(c.Query("couples"), ",") {
		if code = strings.TrimSpace(code); code != "" {
			couples = append(couples, code)
		}
	}
	if timepoint == "" || len(couples) == 0 {
		h.RespondWithError(c, http.StatusBadRequest, "Missing timepoint or couples parameter", nil)
		return
	}
	summaryOnly := c.Query("summary_only") == "true"

	resp, err := h.conversationService.List(c.Request.Context(), timepoint, couples, summaryOnly)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetConversation returns status flags and who holds the conversation
// @Summary Conversation details
// @Tags conversations
// @Produce json
// @Param id path int true "Conversation ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Router /conversations/{id} [get]
func (h *ConversationHandler) GetConversation(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	details, err := h.conversationService.Details(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "conversation": details})
}

// UpdateStatus applies a pass or claim transition as the session user
// @Summary Update conversation status
// @Tags conversations
// @Accept json
// @Produce json
// @Param id path int true "Conversation ID"
// @Param update body models.ConversationStatusUpdate true "Fields to change"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /conversations/{id}/status [put]
func (h *ConversationHandler) UpdateStatus(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req models.ConversationStatusUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		h.RespondWithError(c, http.StatusUnauthorized, "No active session", nil)
		return
	}

	details, err := h.conversationService.UpdateStatus(c.Request.Context(), id, &req, user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Conversation status updated", "conversation_id", id, "status", details.Status)
	c.JSON(http.StatusOK, gin.H{"success": true, "conversation": details})
}

// GetNote
// @Summary Get conversation note
// @Tags conversations
// @Produce json
// @Param id path int true "Conversation ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Router /conversations/{id}/note [get]
func (h *ConversationHandler) GetNote(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	note, err := h.conversationService.GetNote(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	text := ""
	if note != nil {
		text = *note
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "note": text})
}

// UpdateNote
// @Summary Update conversation note
// @Tags conversations
// @Accept json
// @Produce json
// @Param id path int true "Conversation ID"
// @Param note body models.ConversationNote true "Note text, null clears it"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /conversations/{id}/note [put]
func (h *ConversationHandler) UpdateNote(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req models.ConversationNote
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	if err := h.conversationService.UpdateNote(c.Request.Context(), id, &req); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
