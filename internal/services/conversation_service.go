package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/framelab/annotation-service/internal/events"
	"github.com/framelab/annotation-service/internal/models"
	"github.com/framelab/annotation-service/internal/repositories"
	"github.com/framelab/annotation-service/internal/validator"
	"github.com/framelab/annotation-service/internal/workflow"
)

type conversationService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	events    events.EventPublisher
}

func NewConversationService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher) ConversationService {
	return &conversationService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: v,
		events:    publisher,
	}
}

// Lookup resolves codes to ids. A miss reports what is available at that level.
func (s *conversationService) Lookup(ctx context.Context, timepoint, couple string, convoNumber int) (*models.ConversationRef, error) {
	tp, err := s.findTimepoint(ctx, timepoint)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
		all, listErr := s.repo.Structure().ListTimepoints(ctx, nil)
		if listErr != nil {
			return nil, fmt.Errorf("failed to list timepoints: %w", listErr)
		}
		codes := make([]string, 0, len(all))
		for _, t := range all {
			codes = append(codes, t.Code)
		}
		return nil, &NotFoundError{Resource: "Timepoint", Value: timepoint, Available: codes}
	}

	cp, err := s.repo.Structure().GetCouple(ctx, nil, tp.ID, couple)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to get couple: %w", err)
		}
		all, listErr := s.repo.Structure().ListCouples(ctx, nil, tp.ID)
		if listErr != nil {
			return nil, fmt.Errorf("failed to list couples: %w", listErr)
		}
		codes := make([]string, 0, len(all))
		for _, c := range all {
			codes = append(codes, c.Code)
		}
		return nil, &NotFoundError{Resource: "Couple", Value: couple, Available: codes}
	}

	conv, err := s.repo.Conversation().Find(ctx, nil, cp.ID, convoNumber)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to find conversation: %w", err)
		}
		numbers, listErr := s.repo.Conversation().ListNumbers(ctx, nil, cp.ID)
		if listErr != nil {
			return nil, fmt.Errorf("failed to list conversations: %w", listErr)
		}
		available := make([]string, 0, len(numbers))
		for _, n := range numbers {
			available = append(available, strconv.Itoa(n))
		}
		return nil, &NotFoundError{Resource: "Conversation", Value: strconv.Itoa(convoNumber), Available: available}
	}

	return &models.ConversationRef{ConversationID: conv.ID, TimepointID: tp.ID, CoupleID: cp.ID}, nil
}

// findTimepoint tries the code as given, then lower and upper case.
func (s *conversationService) findTimepoint(ctx context.Context, code string) (*models.Timepoint, error) {
	tried := make(map[string]bool, 3)
	for _, candidate := range []string{code, strings.ToLower(code), strings.ToUpper(code)} {
		if tried[candidate] {
			continue
		}
		tried[candidate] = true

		tp, err := s.repo.Structure().GetTimepointByCode(ctx, nil, candidate)
		if err == nil {
			return tp, nil
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to get timepoint: %w", err)
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *conversationService) List(ctx context.Context, timepoint string, couples []string, summaryOnly bool) (*models.ConversationListResponse, error) {
	resp := &models.ConversationListResponse{Success: true, Couples: couples}

	tp, err := s.findTimepoint(ctx, timepoint)
	if errors.Is(err, repositories.ErrNotFound) {
		return resp, nil
	}
	if err != nil {
		return nil, err
	}

	var coupleIDs []uint
	for _, code := range couples {
		cp, err := s.repo.Structure().GetCouple(ctx, nil, tp.ID, code)
		if errors.Is(err, repositories.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get couple: %w", err)
		}
		coupleIDs = append(coupleIDs, cp.ID)
	}
	if len(coupleIDs) == 0 {
		return resp, nil
	}

	convs, err := s.repo.Conversation().ListByCouples(ctx, nil, coupleIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	for _, c := range convs {
		countStatus(&resp.Stats, c)
		if summaryOnly {
			continue
		}
		item := models.ConversationListItem{
			ID:          c.ID,
			CoupleID:    c.CoupleID,
			ConvoNumber: c.ConvoNumber,
			Status:      string(workflow.FromConversation(c).State()),
			InProgress:  c.InProgressBy != nil,
		}
		if c.Couple != nil {
			item.CoupleCode = c.Couple.Code
		}
		resp.Conversations = append(resp.Conversations, item)
	}
	return resp, nil
}

// countStatus files each conversation under one bucket; a claim outranks every pass.
func countStatus(stats *models.ConversationStats, c *models.Conversation) {
	stats.Total++
	switch {
	case c.InProgressBy != nil:
		stats.InProgress++
	case c.FinalPassLocked:
		stats.Locked++
	case c.SecondPassCompleted:
		stats.SecondPass++
	case c.FirstPassCompleted:
		stats.FirstPass++
	default:
		stats.Available++
	}
}

func (s *conversationService) Details(ctx context.Context, id uint) (*models.ConversationDetails, error) {
	conv, err := s.getConversation(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	return toDetails(conv), nil
}

func (s *conversationService) UpdateStatus(ctx context.Context, id uint, update *models.ConversationStatusUpdate, actor *models.User) (*models.ConversationDetails, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	u := workflow.Update{
		FirstPassCompleted:  update.FirstPassCompleted,
		SecondPassCompleted: update.SecondPassCompleted,
		FinalPassLocked:     update.FinalPassLocked,
		InProgress:          update.InProgress,
	}
	if u.Empty() {
		return nil, newValidationError(errors.New("no status fields provided"))
	}

	var from, to workflow.State
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conv, err := s.repo.Conversation().GetForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return &NotFoundError{Resource: "Conversation", Value: strconv.FormatUint(uint64(id), 10)}
			}
			return fmt.Errorf("failed to get conversation: %w", err)
		}
		var heldBy *uint
		if conv.InProgressBy != nil {
			holder := *conv.InProgressBy
			heldBy = &holder
		}

		current := workflow.FromConversation(conv)
		next, err := workflow.Apply(current, u, workflow.Actor{ID: actor.ID, Role: actor.Role})
		if err != nil {
			return mapWorkflowError(err)
		}

		from, to = current.State(), next.State()
		next.ApplyTo(conv)
		if err := s.repo.Conversation().UpdateStatus(ctx, tx, conv, heldBy); err != nil {
			if errors.Is(err, repositories.ErrStale) {
				return fmt.Errorf("%w: %w", ErrConflict, workflow.ErrAlreadyClaimed)
			}
			return fmt.Errorf("failed to update conversation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Conversation status updated", "conversation_id", id, "user_id", actor.ID, "from", from, "to", to)
	events.PublishSafe(ctx, s.events, s.logger, events.NewEvent(events.ConversationStatusChanged, map[string]interface{}{
		"conversation_id": id,
		"user_id":         actor.ID,
		"from":            from,
		"to":              to,
	}))

	return s.Details(ctx, id)
}

func (s *conversationService) GetNote(ctx context.Context, id uint) (*string, error) {
	conv, err := s.getConversation(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	return conv.Note, nil
}

func (s *conversationService) UpdateNote(ctx context.Context, id uint, note *models.ConversationNote) error {
	if err := s.validator.Validate(note); err != nil {
		return newValidationError(err)
	}

	if err := s.repo.Conversation().UpdateNote(ctx, nil, id, note.Note); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return &NotFoundError{Resource: "Conversation", Value: strconv.FormatUint(uint64(id), 10)}
		}
		return fmt.Errorf("failed to update note: %w", err)
	}
	return nil
}

func (s *conversationService) getConversation(ctx context.Context, tx *gorm.DB, id uint) (*models.Conversation, error) {
	conv, err := s.repo.Conversation().GetByID(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, &NotFoundError{Resource: "Conversation", Value: strconv.FormatUint(uint64(id), 10)}
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return conv, nil
}

func toDetails(c *models.Conversation) *models.ConversationDetails {
	d := &models.ConversationDetails{
		ID:                  c.ID,
		CoupleID:            c.CoupleID,
		ConvoNumber:         c.ConvoNumber,
		FirstPassCompleted:  c.FirstPassCompleted,
		FirstPassBy:         c.FirstPassBy,
		SecondPassCompleted: c.SecondPassCompleted,
		SecondPassBy:        c.SecondPassBy,
		FinalPassLocked:     c.FinalPassLocked,
		InProgressBy:        c.InProgressBy,
		Status:              string(workflow.FromConversation(c).State()),
	}
	if c.InProgressUser != nil {
		summary := summarize(c.InProgressUser)
		d.InProgressUser = &summary
	}
	return d
}

func mapWorkflowError(err error) error {
	switch {
	case errors.Is(err, workflow.ErrForbidden), errors.Is(err, workflow.ErrNotHolder):
		return fmt.Errorf("%w: %w", ErrForbidden, err)
	case errors.Is(err, workflow.ErrAlreadyClaimed), errors.Is(err, workflow.ErrLocked):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case errors.Is(err, workflow.ErrInvalidTransition):
		return newValidationError(err)
	default:
		return err
	}
}
