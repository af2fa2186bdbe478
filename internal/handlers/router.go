package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/framelab/annotation-service/internal/models"
	"github.com/framelab/annotation-service/internal/services"
	"github.com/framelab/annotation-service/internal/utils"
	"github.com/framelab/annotation-service/internal/validator"
)

type HandlerManager struct {
	serviceManager        services.ServiceManager
	authHandler           *AuthHandler
	frameHandler          *FrameHandler
	categorizationHandler *CategorizationHandler
	groupHandler          *GroupHandler
	conversationHandler   *ConversationHandler
	adminHandler          *AdminHandler
	authMiddleware        *SessionAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	session SessionConfig,
) *HandlerManager {
	authMiddleware := NewSessionAuthMiddleware(serviceManager.Auth(), session)

	return &HandlerManager{
		serviceManager:        serviceManager,
		authHandler:           NewAuthHandler(serviceManager.Auth(), authMiddleware, logger),
		frameHandler:          NewFrameHandler(serviceManager.Frame(), logger),
		categorizationHandler: NewCategorizationHandler(serviceManager.Categorization(), validator, logger),
		groupHandler:          NewGroupHandler(serviceManager.Group(), validator, logger),
		conversationHandler:   NewConversationHandler(serviceManager.Conversation(), logger),
		adminHandler:          NewAdminHandler(serviceManager, logger),
		authMiddleware:        authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")

	// Public: the login page needs the user list before a session exists
	v1.GET("/users", hm.authHandler.ListUsers)
	v1.POST("/login", hm.authHandler.Login)
	v1.POST("/logout", hm.authHandler.Logout)

	authed := v1.Group("")
	authed.Use(hm.authMiddleware.AuthMiddleware())
	{
		authed.GET("/session", hm.authHandler.Session)

		authed.GET("/frames", hm.frameHandler.ListFrames)

		authed.GET("/categorizations", hm.categorizationHandler.GetCategorizations)
		authed.PUT("/categorizations", hm.categorizationHandler.SaveCategorizations)

		authed.GET("/groups", hm.groupHandler.ListGroups)
		authed.POST("/groups", hm.groupHandler.SetCompletion)

		conversations := authed.Group("/conversations")
		{
			conversations.GET("", hm.conversationHandler.ListConversations)
			conversations.GET("/lookup", hm.conversationHandler.Lookup)
			conversations.GET("/:id", hm.conversationHandler.GetConversation)
			conversations.PUT("/:id/status", hm.conversationHandler.UpdateStatus)
			conversations.GET("/:id/note", hm.conversationHandler.GetNote)
			conversations.PUT("/:id/note", hm.conversationHandler.UpdateNote)
		}

		// Admins only
		adminOnly := hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin)
		authed.GET("/exports/categorizations", adminOnly, hm.adminHandler.ExportCategorizations)

		admin := authed.Group("/admin")
		admin.Use(adminOnly)
		{
			admin.POST("/users/sync", hm.adminHandler.SyncUsers)
			admin.POST("/structure", hm.adminHandler.ImportStructure)
		}
	}

	router.GET("/health", hm.health)
}

func (hm *HandlerManager) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := hm.serviceManager.HealthCheck(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "annotation-service",
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "annotation-service",
	})
}
