package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/framelab/annotation-service/internal/models"
)

// Every method takes an optional transaction; nil runs against the base connection.

// ===== USERS =====

type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.User, error)

	// List returns every user ordered by display name
	List(ctx context.Context, tx *gorm.DB) ([]*models.User, error)

	// UpsertByExternalID inserts or refreshes a user mirrored from the directory
	UpsertByExternalID(ctx context.Context, tx *gorm.DB, user *models.User) error
}

// ===== GROUP SCHEMA =====

type GroupRepository interface {
	Create(ctx context.Context, tx *gorm.DB, group *models.Group) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Group, error)
	List(ctx context.Context, tx *gorm.DB) ([]*models.Group, error)

	// Completions returns group id -> completed for the user
	Completions(ctx context.Context, tx *gorm.DB, userID uint) (map[uint]bool, error)
	SetCompletion(ctx context.Context, tx *gorm.DB, groupID, userID uint, completed bool) (*models.GroupCompletion, error)
}

type SegmentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, segment *models.Segment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Segment, error)

	// ListForUnit orders segments by order_presented
	ListForUnit(ctx context.Context, tx *gorm.DB, unit models.Unit) ([]*models.Segment, error)
}

type FrameRepository interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, frames []*models.Frame) error

	// ListForUnit returns the unit's frames with their segment preloaded
	ListForUnit(ctx context.Context, tx *gorm.DB, unit models.Unit) ([]*models.Frame, error)
}

// ===== CATEGORIZATIONS =====

type CategorizationRepository interface {
	// ListForUnit returns one user's categorizations on the unit's frames
	ListForUnit(ctx context.Context, tx *gorm.DB, unit models.Unit, userID uint) ([]*models.Categorization, error)

	// ListAllForUnit returns every user's categorizations with frame and segment preloaded
	ListAllForUnit(ctx context.Context, tx *gorm.DB, unit models.Unit) ([]*models.Categorization, error)

	// BulkUpsert writes all rows in one statement; on (frame_id, user_id) conflict the last write wins
	BulkUpsert(ctx context.Context, tx *gorm.DB, rows []*models.Categorization) error

	// FillDefaults inserts category "0" for every frame of the unit the user has not categorized
	FillDefaults(ctx context.Context, tx *gorm.DB, unit models.Unit, userID uint) (int64, error)
}

type SaveReceiptRepository interface {
	Create(ctx context.Context, tx *gorm.DB, receipt *models.SaveReceipt) error
	ListForUser(ctx context.Context, tx *gorm.DB, userID uint, limit int) ([]*models.SaveReceipt, error)
}

// ===== CONVERSATION SCHEMA =====

// StructureRepository manages timepoints and couples
type StructureRepository interface {
	GetTimepointByCode(ctx context.Context, tx *gorm.DB, code string) (*models.Timepoint, error)
	ListTimepoints(ctx context.Context, tx *gorm.DB) ([]*models.Timepoint, error)
	GetCouple(ctx context.Context, tx *gorm.DB, timepointID uint, code string) (*models.Couple, error)
	ListCouples(ctx context.Context, tx *gorm.DB, timepointID uint) ([]*models.Couple, error)

	// Ensure* return the existing row or create it; created reports which
	EnsureTimepoint(ctx context.Context, tx *gorm.DB, code string) (*models.Timepoint, bool, error)
	EnsureCouple(ctx context.Context, tx *gorm.DB, timepointID uint, code string) (*models.Couple, bool, error)
}

type ConversationRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Conversation, error)
	// GetForUpdate must be called inside a transaction
	GetForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Conversation, error)
	Find(ctx context.Context, tx *gorm.DB, coupleID uint, convoNumber int) (*models.Conversation, error)
	ListByCouples(ctx context.Context, tx *gorm.DB, coupleIDs []uint) ([]*models.Conversation, error)
	ListNumbers(ctx context.Context, tx *gorm.DB, coupleID uint) ([]int, error)
	Ensure(ctx context.Context, tx *gorm.DB, coupleID uint, convoNumber int) (*models.Conversation, bool, error)

	// UpdateStatus writes the pass flags, their stamps and the in-progress claim,
	// but only while the stored claim still equals heldBy; otherwise ErrStale.
	UpdateStatus(ctx context.Context, tx *gorm.DB, conversation *models.Conversation, heldBy *uint) error
	UpdateNote(ctx context.Context, tx *gorm.DB, id uint, note *string) error
}

// ===== EXTERNAL DIRECTORY =====

// UserDirectory lists users from an external identity provider
type UserDirectory interface {
	ListUsers(ctx context.Context) ([]*models.User, error)
}
