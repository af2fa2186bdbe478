package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/framelab/annotation-service/internal/models"
	"github.com/framelab/annotation-service/internal/repositories"
)

type groupPostgreSQL struct {
	db *gorm.DB
}

func NewGroupPostgreSQL(db *gorm.DB) repositories.GroupRepository {
	return &groupPostgreSQL{db: db}
}

func (r *groupPostgreSQL) Create(ctx context.Context, tx *gorm.DB, group *models.Group) error {
	if err := pickDB(r.db, tx).WithContext(ctx).Create(group).Error; err != nil {
		return handleDBError(err, "create group")
	}
	return nil
}

func (r *groupPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Group, error) {
	var group models.Group
	if err := pickDB(r.db, tx).WithContext(ctx).First(&group, id).Error; err != nil {
		return nil, handleDBError(err, "get group by id")
	}
	return &group, nil
}

func (r *groupPostgreSQL) List(ctx context.Context, tx *gorm.DB) ([]*models.Group, error) {
	var groups []*models.Group
	if err := pickDB(r.db, tx).WithContext(ctx).Order("id").Find(&groups).Error; err != nil {
		return nil, handleDBError(err, "list groups")
	}
	return groups, nil
}

func (r *groupPostgreSQL) Completions(ctx context.Context, tx *gorm.DB, userID uint) (map[uint]bool, error) {
	var rows []models.GroupCompletion
	if err := pickDB(r.db, tx).WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, handleDBError(err, "list group completions")
	}
	out := make(map[uint]bool, len(rows))
	for _, row := range rows {
		out[row.GroupID] = row.Completed
	}
	return out, nil
}

func (r *groupPostgreSQL) SetCompletion(ctx context.Context, tx *gorm.DB, groupID, userID uint, completed bool) (*models.GroupCompletion, error) {
	row := &models.GroupCompletion{GroupID: groupID, UserID: userID, Completed: completed}
	if completed {
		now := time.Now().UTC()
		row.CompletedAt = &now
	}

	err := pickDB(r.db, tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "group_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"completed", "completed_at", "updated_at"}),
		}).
		Create(row).Error
	if err != nil {
		return nil, handleDBError(err, "set group completion")
	}
	return row, nil
}
