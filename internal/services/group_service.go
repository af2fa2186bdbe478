package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"gorm.io/gorm"

	"github.com/framelab/annotation-service/internal/cache"
	"github.com/framelab/annotation-service/internal/events"
	"github.com/framelab/annotation-service/internal/models"
	"github.com/framelab/annotation-service/internal/repositories"
)

type groupService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
	cache  *cache.CacheManager
	events events.EventPublisher
}

func NewGroupService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, cm *cache.CacheManager, publisher events.EventPublisher) GroupService {
	return &groupService{
		repo:   repo,
		db:     db,
		logger: logger,
		cache:  cm,
		events: publisher,
	}
}

func (s *groupService) List(ctx context.Context, userID uint) ([]models.GroupView, error) {
	var views []models.GroupView
	err := s.cache.Groups.CacheOrExecute(ctx, cache.GroupListKey(userID), &views, cache.GroupCacheConfig.TTL, func() (interface{}, error) {
		groups, err := s.repo.Group().List(ctx, nil)
		if err != nil {
			return nil, err
		}
		done, err := s.repo.Group().Completions(ctx, nil, userID)
		if err != nil {
			return nil, err
		}

		out := make([]models.GroupView, 0, len(groups))
		for _, g := range groups {
			out = append(out, models.GroupView{ID: g.ID, GroupNumber: g.GroupNumber, Completed: done[g.ID]})
		}
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return views, nil
}

func (s *groupService) Segments(ctx context.Context, groupID uint) ([]models.SegmentView, error) {
	group, err := s.getGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	segments, err := s.repo.Segment().ListForUnit(ctx, nil, models.Unit{Kind: models.UnitGroup, ID: groupID})
	if err != nil {
		return nil, fmt.Errorf("failed to list segments: %w", err)
	}

	out := make([]models.SegmentView, 0, len(segments))
	for _, seg := range segments {
		out = append(out, models.SegmentView{
			ID:             seg.ID,
			OrderPresented: seg.OrderPresented,
			GroupID:        group.ID,
			GroupNumber:    group.GroupNumber,
		})
	}
	return out, nil
}

func (s *groupService) SetCompletion(ctx context.Context, groupID, userID uint, completed bool) (*models.GroupView, error) {
	group, err := s.getGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := s.repo.Group().SetCompletion(ctx, tx, groupID, userID, completed)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set group completion: %w", err)
	}

	cache.InvalidateGroupCache(ctx, s.cache, userID)
	events.PublishSafe(ctx, s.events, s.logger, events.NewEvent(events.GroupCompletionChanged, map[string]interface{}{
		"group_id":  groupID,
		"user_id":   userID,
		"completed": completed,
	}))

	s.logger.Info("Group completion changed", "group_id", groupID, "user_id", userID, "completed", completed)
	return &models.GroupView{ID: group.ID, GroupNumber: group.GroupNumber, Completed: completed}, nil
}

func (s *groupService) getGroup(ctx context.Context, id uint) (*models.Group, error) {
	group, err := s.repo.Group().GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, &NotFoundError{Resource: "Group", Value: strconv.FormatUint(uint64(id), 10)}
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}
