package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/framelab/annotation-service/internal/blob"
	"github.com/framelab/annotation-service/internal/cache"
	"github.com/framelab/annotation-service/internal/events"
	"github.com/framelab/annotation-service/internal/repositories"
	"github.com/framelab/annotation-service/internal/validator"
)

// ServiceManagerConfig holds what the services need beyond the repository
type ServiceManagerConfig struct {
	SharedPassword string

	// Frame images
	Bucket                string
	FrameFetchConcurrency int
	Blobs                 blob.Store

	DefaultFillTimeout time.Duration

	// Optional collaborators; nil disables the feature
	Events    events.EventPublisher
	Cache     *cache.CacheManager
	Directory repositories.UserDirectory
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	config    ServiceManagerConfig

	// Service instances
	authService           AuthService
	frameService          FrameService
	categorizationService CategorizationService
	groupService          GroupService
	conversationService   ConversationService
	exportService         ExportService
	structureService      StructureService
	userSyncService       UserSyncService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, config ServiceManagerConfig) ServiceManager {
	if config.Cache == nil {
		config.Cache = cache.NewCacheManager(nil)
	}
	return &serviceManager{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: validator,
		config:    config,
	}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	sm.logger.Info("Initializing service manager")

	cfg := sm.config
	sm.authService = NewAuthService(sm.repo, sm.logger, cfg.SharedPassword)
	sm.frameService = NewFrameService(sm.repo, sm.logger, cfg.Cache, cfg.Blobs, cfg.Bucket, cfg.FrameFetchConcurrency)
	sm.categorizationService = NewCategorizationService(sm.repo, sm.db, sm.logger, cfg.Events, cfg.DefaultFillTimeout)
	sm.groupService = NewGroupService(sm.repo, sm.db, sm.logger, cfg.Cache, cfg.Events)
	sm.conversationService = NewConversationService(sm.repo, sm.db, sm.logger, sm.validator, cfg.Events)
	sm.exportService = NewExportService(sm.repo, sm.logger)
	sm.structureService = NewStructureService(sm.repo, sm.db, sm.logger)
	sm.userSyncService = NewUserSyncService(sm.repo, sm.db, sm.logger, cfg.Directory, cfg.Events)

	if cfg.SharedPassword == "" {
		sm.logger.Warn("PASSWORD is not set; every login will fail")
	}
	if cfg.Blobs == nil {
		sm.logger.Warn("No blob store configured; frames are served as URLs")
	}

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")
	return nil
}

// Service getters
func (sm *serviceManager) Auth() AuthService {
	sm.mustBeReady()
	return sm.authService
}

func (sm *serviceManager) Frame() FrameService {
	sm.mustBeReady()
	return sm.frameService
}

func (sm *serviceManager) Categorization() CategorizationService {
	sm.mustBeReady()
	return sm.categorizationService
}

func (sm *serviceManager) Group() GroupService {
	sm.mustBeReady()
	return sm.groupService
}

func (sm *serviceManager) Conversation() ConversationService {
	sm.mustBeReady()
	return sm.conversationService
}

func (sm *serviceManager) Export() ExportService {
	sm.mustBeReady()
	return sm.exportService
}

func (sm *serviceManager) Structure() StructureService {
	sm.mustBeReady()
	return sm.structureService
}

func (sm *serviceManager) UserSync() UserSyncService {
	sm.mustBeReady()
	return sm.userSyncService
}

func (sm *serviceManager) mustBeReady() {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	// Redis is optional; a failure only degrades caching
	if sm.config.Cache.Frames.Available() {
		if err := sm.config.Cache.HealthCheck(ctx); err != nil {
			sm.logger.Warn("Cache unavailable", "error", err)
		}
	}
	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if sm.config.Events != nil {
		if err := sm.config.Events.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}
	if err := sm.repo.Close(); err != nil {
		sm.logger.Error("Failed to close repository", "error", err)
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")
	return nil
}
