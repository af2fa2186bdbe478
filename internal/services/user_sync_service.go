package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/framelab/annotation-service/internal/events"
	"github.com/framelab/annotation-service/internal/repositories"
)

type SyncResult struct {
	Fetched int `json:"fetched"`
	Synced  int `json:"synced"`
}

type userSyncService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	directory repositories.UserDirectory
	events    events.EventPublisher
}

func NewUserSyncService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, directory repositories.UserDirectory, publisher events.EventPublisher) UserSyncService {
	return &userSyncService{
		repo:      repo,
		db:        db,
		logger:    logger,
		directory: directory,
		events:    publisher,
	}
}

// Sync mirrors the directory into the users table. Local users without an
// external id are left alone.
func (s *userSyncService) Sync(ctx context.Context) (*SyncResult, error) {
	if s.directory == nil {
		return nil, fmt.Errorf("%w: no user directory configured", ErrServerMisconfigured)
	}

	users, err := s.directory.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{Fetched: len(users)}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range users {
			if err := s.repo.User().UpsertByExternalID(ctx, tx, u); err != nil {
				return err
			}
			result.Synced++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sync users: %w", err)
	}

	s.logger.Info("Users synced", "fetched", result.Fetched, "synced", result.Synced)
	events.PublishSafe(ctx, s.events, s.logger, events.NewEvent(events.UsersSynced, map[string]interface{}{
		"fetched": result.Fetched,
		"synced":  result.Synced,
	}))
	return result, nil
}
