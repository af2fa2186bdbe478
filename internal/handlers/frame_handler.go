package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/framelab/annotation-service/internal/services"
	"github.com/framelab/annotation-service/internal/utils"
)

type FrameHandler struct {
	BaseHandler
	frameService services.FrameService
}

func NewFrameHandler(frameService services.FrameService, logger utils.Logger) *FrameHandler {
	return &FrameHandler{
		BaseHandler:  NewBaseHandler(logger),
		frameService: frameService,
	}
}

// ListFrames returns the frames of a unit of work in presentation order
// @Summary List frames
// @Description Paired units (group, conversation) come back as left/right rows. Images are inlined as data URLs unless inline=false.
// @Tags frames
// @Produce json
// @Param segment_id query int false "Segment ID"
// @Param group_id query int false "Group ID"
// @Param conversation_id query int false "Conversation ID"
// @Param inline query bool false "Embed images (default true for paired units)"
// @Success 200 {object} models.FramesResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /frames [get]
func (h *FrameHandler) ListFrames(c *gin.Context) {
	unit, ok := h.bindUnit(c)
	if !ok {
		return
	}

	inline := unit.Paired()
	if v := c.Query("inline"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			h.RespondWithError(c, http.StatusBadRequest, "Invalid inline parameter", nil)
			return
		}
		inline = parsed
	}

	h.LogRequest(c, "Listing frames", "unit", unit.String(), "inline", inline)

	resp, err := h.frameService.ListFrames(c.Request.Context(), unit, inline)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
