package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/framelab/annotation-service/internal/services"
	"github.com/framelab/annotation-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// StructureRequest carries pasted recording paths such as "t1/4003_c1"
type StructureRequest struct {
	Paths string `json:"paths" validate:"required"`
	Apply bool   `json:"apply"`
}

type AdminHandler struct {
	BaseHandler
	exportService    services.ExportService
	userSyncService  services.UserSyncService
	structureService services.StructureService
}

func NewAdminHandler(sm services.ServiceManager, logger utils.Logger) *AdminHandler {
	return &AdminHandler{
		BaseHandler:      NewBaseHandler(logger),
		exportService:    sm.Export(),
		userSyncService:  sm.UserSync(),
		structureService: sm.Structure(),
	}
}

// ExportCategorizations downloads every user's labels on a unit as xlsx
// @Summary Export categorizations
// @Tags admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param segment_id query int false "Segment ID"
// @Param group_id query int false "Group ID"
// @Param conversation_id query int false "Conversation ID"
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /exports/categorizations [get]
func (h *AdminHandler) ExportCategorizations(c *gin.Context) {
	unit, ok := h.bindUnit(c)
	if !ok {
		return
	}

	// buffered so a failed export can still answer with a JSON error
	var buf bytes.Buffer
	n, err := h.exportService.WriteCategorizations(c.Request.Context(), unit, &buf)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Exported categorizations", "unit", unit.String(), "rows", n)
	filename := fmt.Sprintf("categorizations_%s_%d_%s.xlsx", unit.Kind, unit.ID, time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// SyncUsers mirrors the external user directory into the users table
// @Summary Sync users
// @Tags admin
// @Produce json
// @Success 200 {object} services.SyncResult
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /admin/users/sync [post]
func (h *AdminHandler) SyncUsers(c *gin.Context) {
	result, err := h.userSyncService.Sync(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "fetched": result.Fetched, "synced": result.Synced})
}

// ImportStructure parses recording paths and optionally creates the missing rows
// @Summary Import study structure
// @Tags admin
// @Accept json
// @Produce json
// @Param request body StructureRequest true "Paths and apply flag"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /admin/structure [post]
func (h *AdminHandler) ImportStructure(c *gin.Context) {
	var req StructureRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Paths == "" {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", nil)
		return
	}

	structure, err := h.structureService.Parse(req.Paths)
	if err != nil {
		var lines services.LineErrors
		if errors.As(err, &lines) {
			h.RespondWithError(c, http.StatusBadRequest, "Unparseable lines", lines)
			return
		}
		h.handleServiceError(c, err)
		return
	}

	body := gin.H{"success": true, "structure": structure.Timepoints}
	if req.Apply {
		stats, err := h.structureService.Apply(c.Request.Context(), structure)
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
		body["applied"] = stats
	}
	c.JSON(http.StatusOK, body)
}
