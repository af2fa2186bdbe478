package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/framelab/annotation-service/internal/models"
	"github.com/framelab/annotation-service/internal/services"
	"github.com/framelab/annotation-service/internal/utils"
	"github.com/framelab/annotation-service/internal/validator"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// BaseHandler carries what every handler needs
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs through the request-scoped logger so lines carry the request id
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.FromContext(c.Request.Context()).Info(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	args = append(args, "error", err)
	utils.FromContext(c.Request.Context()).Error(msg, args...)
	_ = c.Error(err)
}

func (h *BaseHandler) RespondWithError(c *gin.Context, status int, message string, details interface{}) {
	c.JSON(status, ErrorResponse{Error: message, Details: details})
}

// currentUser returns the user loaded by the session middleware
func (h *BaseHandler) currentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

// bindUnit reads exactly one of segment_id, group_id or conversation_id from the query
func (h *BaseHandler) bindUnit(c *gin.Context) (models.Unit, bool) {
	var sel models.UnitSelector
	if err := c.ShouldBindQuery(&sel); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid unit parameters", err.Error())
		return models.Unit{}, false
	}
	unit, ok := sel.Unit()
	if !ok {
		h.RespondWithError(c, http.StatusBadRequest, "Exactly one of segment_id, group_id or conversation_id is required", nil)
		return models.Unit{}, false
	}
	return unit, true
}

func (h *BaseHandler) parseIDParam(c *gin.Context, param string) uint {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid "+param, nil)
		return 0
	}
	return uint(id)
}

// handleServiceError maps service errors onto status codes
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var notFound *services.NotFoundError
	if errors.As(err, &notFound) {
		body := gin.H{
			"error":        notFound.Resource + " not found",
			"searched_for": notFound.Value,
		}
		if notFound.Available != nil {
			body["available_"+strings.ToLower(notFound.Resource)+"s"] = notFound.Available
		}
		c.JSON(http.StatusNotFound, body)
		return
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", validationErrors)
		return
	}

	switch {
	case errors.Is(err, services.ErrValidationFailed):
		h.RespondWithError(c, http.StatusBadRequest, causeMessage(err, services.ErrValidationFailed), nil)
	case errors.Is(err, services.ErrNotFound):
		h.RespondWithError(c, http.StatusNotFound, "Not found", nil)
	case errors.Is(err, services.ErrInvalidCredentials):
		h.RespondWithError(c, http.StatusUnauthorized, "Invalid password", nil)
	case errors.Is(err, services.ErrUnauthorized):
		h.RespondWithError(c, http.StatusUnauthorized, "No active session", nil)
	case errors.Is(err, services.ErrForbidden):
		h.RespondWithError(c, http.StatusForbidden, causeMessage(err, services.ErrForbidden), nil)
	case errors.Is(err, services.ErrConflict):
		h.RespondWithError(c, http.StatusConflict, causeMessage(err, services.ErrConflict), nil)
	case errors.Is(err, services.ErrServerMisconfigured):
		h.LogError(c, err, "Server misconfigured")
		h.RespondWithError(c, http.StatusInternalServerError, "Server configuration error", nil)
	default:
		h.LogError(c, err, "Request failed")
		h.RespondWithError(c, http.StatusInternalServerError, "Internal server error", nil)
	}
}

// causeMessage returns the message of the error wrapped alongside sentinel,
// falling back to the sentinel itself.
func causeMessage(err, sentinel error) string {
	for err != nil {
		switch e := err.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range e.Unwrap() {
				if inner != sentinel {
					return inner.Error()
				}
			}
			return sentinel.Error()
		case interface{ Unwrap() error }:
			err = e.Unwrap()
		default:
			return sentinel.Error()
		}
	}
	return sentinel.Error()
}
