package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/framelab/annotation-service/internal/models"
	"github.com/framelab/annotation-service/internal/repositories"
)

type structurePostgreSQL struct {
	db *gorm.DB
}

func NewStructurePostgreSQL(db *gorm.DB) repositories.StructureRepository {
	return &structurePostgreSQL{db: db}
}

func (r *structurePostgreSQL) GetTimepointByCode(ctx context.Context, tx *gorm.DB, code string) (*models.Timepoint, error) {
	var tp models.Timepoint
	if err := pickDB(r.db, tx).WithContext(ctx).Where("code = ?", code).First(&tp).Error; err != nil {
		return nil, handleDBError(err, "get timepoint "+code)
	}
	return &tp, nil
}

func (r *structurePostgreSQL) ListTimepoints(ctx context.Context, tx *gorm.DB) ([]*models.Timepoint, error) {
	var tps []*models.Timepoint
	if err := pickDB(r.db, tx).WithContext(ctx).Order("code").Find(&tps).Error; err != nil {
		return nil, handleDBError(err, "list timepoints")
	}
	return tps, nil
}

func (r *structurePostgreSQL) GetCouple(ctx context.Context, tx *gorm.DB, timepointID uint, code string) (*models.Couple, error) {
	var couple models.Couple
	err := pickDB(r.db, tx).WithContext(ctx).
		Where("timepoint_id = ? AND code = ?", timepointID, code).
		First(&couple).Error
	if err != nil {
		return nil, handleDBError(err, "get couple "+code)
	}
	return &couple, nil
}

func (r *structurePostgreSQL) ListCouples(ctx context.Context, tx *gorm.DB, timepointID uint) ([]*models.Couple, error) {
	var couples []*models.Couple
	if err := pickDB(r.db, tx).WithContext(ctx).Where("timepoint_id = ?", timepointID).Order("code").Find(&couples).Error; err != nil {
		return nil, handleDBError(err, "list couples")
	}
	return couples, nil
}

func (r *structurePostgreSQL) EnsureTimepoint(ctx context.Context, tx *gorm.DB, code string) (*models.Timepoint, bool, error) {
	tp := models.Timepoint{Code: code}
	created, err := ensureRow(pickDB(r.db, tx).WithContext(ctx), &tp, "code = ?", code)
	if err != nil {
		return nil, false, handleDBError(err, "ensure timepoint "+code)
	}
	return &tp, created, nil
}

func (r *structurePostgreSQL) EnsureCouple(ctx context.Context, tx *gorm.DB, timepointID uint, code string) (*models.Couple, bool, error) {
	couple := models.Couple{TimepointID: timepointID, Code: code}
	created, err := ensureRow(pickDB(r.db, tx).WithContext(ctx), &couple, "timepoint_id = ? AND code = ?", timepointID, code)
	if err != nil {
		return nil, false, handleDBError(err, "ensure couple "+code)
	}
	return &couple, created, nil
}

type conversationPostgreSQL struct {
	db *gorm.DB
}

func NewConversationPostgreSQL(db *gorm.DB) repositories.ConversationRepository {
	return &conversationPostgreSQL{db: db}
}

func (r *conversationPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := pickDB(r.db, tx).WithContext(ctx).
		Preload("Couple").
		Preload("InProgressUser").
		First(&conv, id).Error
	if err != nil {
		return nil, handleDBError(err, "get conversation by id")
	}
	return &conv, nil
}

// GetForUpdate loads the conversation with a row lock held until tx ends.
func (r *conversationPostgreSQL) GetForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		First(&conv, id).Error
	if err != nil {
		return nil, handleDBError(err, "lock conversation")
	}
	return &conv, nil
}

func (r *conversationPostgreSQL) Find(ctx context.Context, tx *gorm.DB, coupleID uint, convoNumber int) (*models.Conversation, error) {
	var conv models.Conversation
	err := pickDB(r.db, tx).WithContext(ctx).
		Where("couple_id = ? AND convo_number = ?", coupleID, convoNumber).
		First(&conv).Error
	if err != nil {
		return nil, handleDBError(err, "find conversation")
	}
	return &conv, nil
}

func (r *conversationPostgreSQL) ListByCouples(ctx context.Context, tx *gorm.DB, coupleIDs []uint) ([]*models.Conversation, error) {
	var convs []*models.Conversation
	if len(coupleIDs) == 0 {
		return convs, nil
	}
	err := pickDB(r.db, tx).WithContext(ctx).
		Preload("Couple").
		Where("couple_id IN ?", coupleIDs).
		Order("couple_id, convo_number").
		Find(&convs).Error
	if err != nil {
		return nil, handleDBError(err, "list conversations by couples")
	}
	return convs, nil
}

func (r *conversationPostgreSQL) ListNumbers(ctx context.Context, tx *gorm.DB, coupleID uint) ([]int, error) {
	var numbers []int
	err := pickDB(r.db, tx).WithContext(ctx).
		Model(&models.Conversation{}).
		Where("couple_id = ?", coupleID).
		Order("convo_number").
		Pluck("convo_number", &numbers).Error
	if err != nil {
		return nil, handleDBError(err, "list conversation numbers")
	}
	return numbers, nil
}

func (r *conversationPostgreSQL) Ensure(ctx context.Context, tx *gorm.DB, coupleID uint, convoNumber int) (*models.Conversation, bool, error) {
	conv := models.Conversation{CoupleID: coupleID, ConvoNumber: convoNumber}
	created, err := ensureRow(pickDB(r.db, tx).WithContext(ctx), &conv, "couple_id = ? AND convo_number = ?", coupleID, convoNumber)
	if err != nil {
		return nil, false, handleDBError(err, "ensure conversation")
	}
	return &conv, created, nil
}

func (r *conversationPostgreSQL) UpdateStatus(ctx context.Context, tx *gorm.DB, conv *models.Conversation, heldBy *uint) error {
	query := pickDB(r.db, tx).WithContext(ctx).
		Model(&models.Conversation{ID: conv.ID})
	if heldBy == nil {
		query = query.Where("in_progress_by IS NULL")
	} else {
		query = query.Where("in_progress_by = ?", *heldBy)
	}

	result := query.
		Select("first_pass_completed", "first_pass_by",
			"second_pass_completed", "second_pass_by",
			"final_pass_locked", "in_progress_by", "updated_at").
		Updates(conv)
	if result.Error != nil {
		return handleDBError(result.Error, "update conversation status")
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("update conversation status: %w", repositories.ErrStale)
	}
	return nil
}

func (r *conversationPostgreSQL) UpdateNote(ctx context.Context, tx *gorm.DB, id uint, note *string) error {
	result := pickDB(r.db, tx).WithContext(ctx).
		Model(&models.Conversation{ID: id}).
		Update("note", note)
	if result.Error != nil {
		return handleDBError(result.Error, "update conversation note")
	}
	if result.RowsAffected == 0 {
		return handleDBError(gorm.ErrRecordNotFound, "update conversation note")
	}
	return nil
}

// ensureRow loads the row matching the condition into dest, or inserts dest
// when there is none. FirstOrCreate cannot tell the two apart.
func ensureRow(db *gorm.DB, dest interface{}, query string, args ...interface{}) (bool, error) {
	err := db.Where(query, args...).Take(dest).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	if err := db.Create(dest).Error; err != nil {
		return false, err
	}
	return true, nil
}
