package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/framelab/annotation-service/internal/events"
	"github.com/framelab/annotation-service/internal/models"
	"github.com/framelab/annotation-service/internal/repositories"
)

const (
	errInvalidKey      = "Invalid key format"
	errFrameNotInUnit  = "Frame not in unit"
	errSideMismatch    = "Side does not match frame"
	errInvalidCategory = "Invalid category"
	errWriteFailed     = "Database write failed"
	errDuplicateKey    = "Another key in the request names the same frame"
)

type categorizationService struct {
	repo        repositories.Repository
	db          *gorm.DB
	logger      *slog.Logger
	events      events.EventPublisher
	fillTimeout time.Duration

	// runAsync starts the post-save default fill
	runAsync func(func())
}

func NewCategorizationService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, publisher events.EventPublisher, fillTimeout time.Duration) CategorizationService {
	if fillTimeout <= 0 {
		fillTimeout = 30 * time.Second
	}
	return &categorizationService{
		repo:        repo,
		db:          db,
		logger:      logger,
		events:      publisher,
		fillTimeout: fillTimeout,
		runAsync:    func(fn func()) { go fn() },
	}
}

func (s *categorizationService) Get(ctx context.Context, unit models.Unit, userID uint) (map[string]models.CategorizationRecord, error) {
	frames, err := s.unitFrames(ctx, unit)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.Categorization().ListForUnit(ctx, nil, unit, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categorizations: %w", err)
	}

	out := make(map[string]models.CategorizationRecord, len(rows))
	for _, row := range rows {
		frame, ok := frames[row.FrameID]
		if !ok {
			continue
		}
		key := models.FrameKey{FrameID: row.FrameID, Side: frame.Side}
		out[key.Wire(unit.Paired())] = models.CategorizationRecord{
			Category: row.Category,
			Flagged:  row.Flagged,
			Note:     row.Note,
		}
	}
	return out, nil
}

func (s *categorizationService) Save(ctx context.Context, unit models.Unit, userID uint, changes map[string]models.CategorizationRecord) (*models.SaveResult, error) {
	frames, err := s.unitFrames(ctx, unit)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(changes))
	for k := range changes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := &models.SaveResult{Total: len(changes), Results: make([]models.KeyResult, 0, len(keys))}

	var (
		rows    []*models.Categorization
		written []int
		seen    = make(map[uint]bool)
	)
	for _, k := range keys {
		change := changes[k]
		row, reason := buildRow(k, change, frames, unit, userID)
		if reason != "" {
			result.Results = append(result.Results, models.KeyResult{Key: k, Error: reason})
			continue
		}
		// frame_5 and frame_5_left name the same row; the first key in order is kept
		if seen[row.FrameID] {
			result.Results = append(result.Results, models.KeyResult{Key: k, Error: errDuplicateKey})
			continue
		}
		seen[row.FrameID] = true
		rows = append(rows, row)
		written = append(written, len(result.Results))
		result.Results = append(result.Results, models.KeyResult{Key: k, Success: true})
	}

	if len(rows) > 0 {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return s.repo.Categorization().BulkUpsert(ctx, tx, rows)
		})
		if err != nil {
			s.logger.Error("Failed to save categorizations", "error", err, "unit", unit.String(), "user_id", userID)
			for i := range result.Results {
				if result.Results[i].Success {
					result.Results[i].Success = false
					result.Results[i].Error = errWriteFailed
				}
			}
			result.Saved = 0
			result.Error = ErrSaveFailed.Error()
			return result, fmt.Errorf("%w: %w", ErrSaveFailed, err)
		}
	}

	result.Saved = len(written)
	result.Success = result.Saved > 0 && result.Saved == result.Total
	if result.Saved != result.Total {
		result.Error = fmt.Sprintf("%d of %d changes were rejected", result.Total-result.Saved, result.Total)
	}

	s.logger.Info("Categorizations saved", "unit", unit.String(), "user_id", userID, "saved", result.Saved, "total", result.Total)

	if result.Saved > 0 {
		s.recordReceipt(ctx, unit, userID, result)
		events.PublishSafe(ctx, s.events, s.logger, events.NewEvent(events.CategorizationsSaved, map[string]interface{}{
			"unit_kind": unit.Kind,
			"unit_id":   unit.ID,
			"user_id":   userID,
			"saved":     result.Saved,
			"total":     result.Total,
		}))
		s.scheduleFill(ctx, unit, userID)
	}

	return result, nil
}

func (s *categorizationService) FillDefaults(ctx context.Context, unit models.Unit, userID uint) (int64, error) {
	var filled int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := s.repo.Categorization().FillDefaults(ctx, tx, unit, userID)
		filled = n
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to fill default categorizations: %w", err)
	}
	return filled, nil
}

func buildRow(key string, change models.CategorizationRecord, frames map[uint]*models.Frame, unit models.Unit, userID uint) (*models.Categorization, string) {
	fk, err := models.ParseFrameKey(key)
	if err != nil {
		return nil, errInvalidKey
	}
	frame, ok := frames[fk.FrameID]
	if !ok {
		return nil, errFrameNotInUnit
	}
	if unit.Paired() && frame.Side != fk.Side {
		return nil, errSideMismatch
	}

	category := change.Category
	if category == "" {
		category = models.DefaultCategory
	}
	if !models.IsValidCategory(category) {
		return nil, errInvalidCategory
	}

	return &models.Categorization{
		FrameID:  fk.FrameID,
		UserID:   userID,
		Category: category,
		Flagged:  change.Flagged,
		Note:     change.Note,
	}, ""
}

func (s *categorizationService) unitFrames(ctx context.Context, unit models.Unit) (map[uint]*models.Frame, error) {
	frames, err := s.repo.Frame().ListForUnit(ctx, nil, unit)
	if err != nil {
		return nil, fmt.Errorf("failed to list frames: %w", err)
	}
	out := make(map[uint]*models.Frame, len(frames))
	for _, f := range frames {
		out[f.ID] = f
	}
	return out, nil
}

func (s *categorizationService) recordReceipt(ctx context.Context, unit models.Unit, userID uint, result *models.SaveResult) {
	payload, err := json.Marshal(result.Results)
	if err != nil {
		s.logger.Warn("Failed to encode save receipt", "error", err)
		return
	}
	receipt := &models.SaveReceipt{
		UserID:   userID,
		UnitKind: unit.Kind,
		UnitID:   unit.ID,
		Saved:    result.Saved,
		Total:    result.Total,
		Results:  payload,
	}
	if err := s.repo.SaveReceipt().Create(ctx, nil, receipt); err != nil {
		s.logger.Warn("Failed to record save receipt", "error", err, "unit", unit.String())
	}
}

// scheduleFill writes defaults for the rest of the unit without holding up the response.
func (s *categorizationService) scheduleFill(ctx context.Context, unit models.Unit, userID uint) {
	detached := context.WithoutCancel(ctx)
	s.runAsync(func() {
		fillCtx, cancel := context.WithTimeout(detached, s.fillTimeout)
		defer cancel()

		n, err := s.FillDefaults(fillCtx, unit, userID)
		if err != nil {
			s.logger.Warn("Default fill failed", "error", err, "unit", unit.String(), "user_id", userID)
			return
		}
		if n > 0 {
			s.logger.Info("Filled default categorizations", "unit", unit.String(), "user_id", userID, "filled", n)
		}
	})
}
