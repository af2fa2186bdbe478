package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/framelab/annotation-service/internal/cache"
	"github.com/framelab/annotation-service/internal/models"
	"github.com/framelab/annotation-service/internal/repositories"
)

type userPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewUserPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.UserRepository {
	return &userPostgreSQL{db: db, cacheManager: cacheManager}
}

func (r *userPostgreSQL) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	if err := pickDB(r.db, tx).WithContext(ctx).Create(user).Error; err != nil {
		return handleDBError(err, "create user")
	}
	cache.InvalidateUserCache(ctx, r.cacheManager)
	return nil
}

// GetByID always reads the database; sessions resolve the role through it.
func (r *userPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	if err := pickDB(r.db, tx).WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, handleDBError(err, "get user by id")
	}
	return &user, nil
}

func (r *userPostgreSQL) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.User, error) {
	var users []*models.User
	if len(ids) == 0 {
		return users, nil
	}
	if err := pickDB(r.db, tx).WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&users).Error; err != nil {
		return nil, handleDBError(err, "get users by ids")
	}
	return users, nil
}

func (r *userPostgreSQL) List(ctx context.Context, tx *gorm.DB) ([]*models.User, error) {
	var users []*models.User
	err := r.cacheManager.Users.CacheOrExecute(ctx, cache.UserListKey, &users, cache.UserCacheConfig.TTL, func() (interface{}, error) {
		var rows []*models.User
		if err := pickDB(r.db, tx).WithContext(ctx).Order("display_name, id").Find(&rows).Error; err != nil {
			return nil, handleDBError(err, "list users")
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userPostgreSQL) UpsertByExternalID(ctx context.Context, tx *gorm.DB, user *models.User) error {
	err := pickDB(r.db, tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"display_name", "role", "attributes", "updated_at"}),
		}).
		Create(user).Error
	if err != nil {
		return handleDBError(err, "upsert user")
	}
	cache.InvalidateUserCache(ctx, r.cacheManager)
	return nil
}
