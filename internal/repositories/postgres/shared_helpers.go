package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/framelab/annotation-service/internal/models"
	"github.com/framelab/annotation-service/internal/repositories"
)

// SharedHelpers contains query fragments used by several repositories
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// JoinUnitSegments restricts a frames query to the segments of a unit.
func (h *SharedHelpers) JoinUnitSegments(query *gorm.DB, unit models.Unit) *gorm.DB {
	return query.
		Joins("JOIN segments ON segments.id = frames.segment_id").
		Where("segments."+unit.SegmentColumn()+" = ?", unit.ID)
}

// UnitFrameIDs is a subquery selecting the frame ids of a unit.
func (h *SharedHelpers) UnitFrameIDs(db *gorm.DB, unit models.Unit) *gorm.DB {
	return h.JoinUnitSegments(db.Model(&models.Frame{}).Select("frames.id"), unit)
}

// handleDBError wraps database errors and maps missing rows to repositories.ErrNotFound
func handleDBError(err error, operation string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", operation, repositories.ErrNotFound)
	}
	return fmt.Errorf("%s failed: %w", operation, err)
}

func pickDB(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}
