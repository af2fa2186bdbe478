package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/framelab/annotation-service/internal/models"
	"github.com/framelab/annotation-service/internal/repositories"
)

type segmentPostgreSQL struct {
	db *gorm.DB
}

func NewSegmentPostgreSQL(db *gorm.DB) repositories.SegmentRepository {
	return &segmentPostgreSQL{db: db}
}

func (r *segmentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, segment *models.Segment) error {
	if err := pickDB(r.db, tx).WithContext(ctx).Create(segment).Error; err != nil {
		return handleDBError(err, "create segment")
	}
	return nil
}

func (r *segmentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Segment, error) {
	var segment models.Segment
	if err := pickDB(r.db, tx).WithContext(ctx).First(&segment, id).Error; err != nil {
		return nil, handleDBError(err, "get segment by id")
	}
	return &segment, nil
}

func (r *segmentPostgreSQL) ListForUnit(ctx context.Context, tx *gorm.DB, unit models.Unit) ([]*models.Segment, error) {
	var segments []*models.Segment
	err := pickDB(r.db, tx).WithContext(ctx).
		Where(unit.SegmentColumn()+" = ?", unit.ID).
		Order("order_presented, id").
		Find(&segments).Error
	if err != nil {
		return nil, handleDBError(err, "list segments for "+unit.String())
	}
	return segments, nil
}

type framePostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewFramePostgreSQL(db *gorm.DB) repositories.FrameRepository {
	return &framePostgreSQL{db: db, helpers: NewSharedHelpers(db)}
}

func (r *framePostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, frames []*models.Frame) error {
	if len(frames) == 0 {
		return nil
	}
	if err := pickDB(r.db, tx).WithContext(ctx).CreateInBatches(frames, 500).Error; err != nil {
		return handleDBError(err, "create frames")
	}
	return nil
}

func (r *framePostgreSQL) ListForUnit(ctx context.Context, tx *gorm.DB, unit models.Unit) ([]*models.Frame, error) {
	var frames []*models.Frame
	query := pickDB(r.db, tx).WithContext(ctx).Model(&models.Frame{}).Select("frames.*")
	err := r.helpers.JoinUnitSegments(query, unit).
		Preload("Segment").
		Order("segments.order_presented, frames.id").
		Find(&frames).Error
	if err != nil {
		return nil, handleDBError(err, "list frames for "+unit.String())
	}
	return frames, nil
}
