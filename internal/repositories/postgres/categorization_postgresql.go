package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/framelab/annotation-service/internal/models"
	"github.com/framelab/annotation-service/internal/repositories"
)

const upsertBatchSize = 500

type categorizationPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewCategorizationPostgreSQL(db *gorm.DB) repositories.CategorizationRepository {
	return &categorizationPostgreSQL{db: db, helpers: NewSharedHelpers(db)}
}

func (r *categorizationPostgreSQL) ListForUnit(ctx context.Context, tx *gorm.DB, unit models.Unit, userID uint) ([]*models.Categorization, error) {
	db := pickDB(r.db, tx).WithContext(ctx)
	var rows []*models.Categorization
	err := db.
		Where("user_id = ?", userID).
		Where("frame_id IN (?)", r.helpers.UnitFrameIDs(db, unit)).
		Order("frame_id").
		Find(&rows).Error
	if err != nil {
		return nil, handleDBError(err, "list categorizations for "+unit.String())
	}
	return rows, nil
}

func (r *categorizationPostgreSQL) ListAllForUnit(ctx context.Context, tx *gorm.DB, unit models.Unit) ([]*models.Categorization, error) {
	db := pickDB(r.db, tx).WithContext(ctx)
	var rows []*models.Categorization
	err := db.
		Where("frame_id IN (?)", r.helpers.UnitFrameIDs(db, unit)).
		Preload("Frame.Segment").
		Order("frame_id, user_id").
		Find(&rows).Error
	if err != nil {
		return nil, handleDBError(err, "list all categorizations for "+unit.String())
	}
	return rows, nil
}

func (r *categorizationPostgreSQL) BulkUpsert(ctx context.Context, tx *gorm.DB, rows []*models.Categorization) error {
	if len(rows) == 0 {
		return nil
	}
	err := pickDB(r.db, tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "frame_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"category", "flagged", "note", "updated_at"}),
		}).
		CreateInBatches(rows, upsertBatchSize).Error
	if err != nil {
		return handleDBError(err, "bulk upsert categorizations")
	}
	return nil
}

func (r *categorizationPostgreSQL) FillDefaults(ctx context.Context, tx *gorm.DB, unit models.Unit, userID uint) (int64, error) {
	db := pickDB(r.db, tx).WithContext(ctx)

	var missing []uint
	err := r.helpers.UnitFrameIDs(db, unit).
		Where("NOT EXISTS (SELECT 1 FROM categorizations c WHERE c.frame_id = frames.id AND c.user_id = ?)", userID).
		Pluck("frames.id", &missing).Error
	if err != nil {
		return 0, handleDBError(err, "find uncategorized frames")
	}
	if len(missing) == 0 {
		return 0, nil
	}

	rows := make([]*models.Categorization, 0, len(missing))
	for _, frameID := range missing {
		rows = append(rows, &models.Categorization{
			FrameID:  frameID,
			UserID:   userID,
			Category: models.DefaultCategory,
		})
	}

	// A concurrent save may have written some of these rows already; keep those.
	result := db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(rows, upsertBatchSize)
	if result.Error != nil {
		return 0, handleDBError(result.Error, "fill default categorizations")
	}
	return result.RowsAffected, nil
}

type saveReceiptPostgreSQL struct {
	db *gorm.DB
}

func NewSaveReceiptPostgreSQL(db *gorm.DB) repositories.SaveReceiptRepository {
	return &saveReceiptPostgreSQL{db: db}
}

func (r *saveReceiptPostgreSQL) Create(ctx context.Context, tx *gorm.DB, receipt *models.SaveReceipt) error {
	if err := pickDB(r.db, tx).WithContext(ctx).Create(receipt).Error; err != nil {
		return handleDBError(err, "create save receipt")
	}
	return nil
}

func (r *saveReceiptPostgreSQL) ListForUser(ctx context.Context, tx *gorm.DB, userID uint, limit int) ([]*models.SaveReceipt, error) {
	var receipts []*models.SaveReceipt
	query := pickDB(r.db, tx).WithContext(ctx).Where("user_id = ?", userID).Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&receipts).Error; err != nil {
		return nil, handleDBError(err, "list save receipts")
	}
	return receipts, nil
}
