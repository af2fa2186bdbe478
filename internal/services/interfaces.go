package services

import (
	"context"
	"io"

	"github.com/framelab/annotation-service/internal/models"
)

// ===== AUTH =====

type AuthService interface {
	// ListUsers feeds the login picker
	ListUsers(ctx context.Context) ([]models.UserSummary, error)

	// Login checks the shared password for the selected user
	Login(ctx context.Context, req *models.LoginRequest) (*models.User, error)

	GetUser(ctx context.Context, id uint) (*models.User, error)
}

// ===== WORKSPACE DATA =====

type FrameService interface {
	// ListFrames returns the unit's frames in presentation order. Paired
	// units are zipped into left/right rows. inline embeds images as data URLs.
	ListFrames(ctx context.Context, unit models.Unit, inline bool) (*models.FramesResponse, error)
}

type CategorizationService interface {
	Get(ctx context.Context, unit models.Unit, userID uint) (map[string]models.CategorizationRecord, error)

	// Save upserts the changes and reports a result per key. A failed write
	// returns the result together with ErrSaveFailed.
	Save(ctx context.Context, unit models.Unit, userID uint, changes map[string]models.CategorizationRecord) (*models.SaveResult, error)

	// FillDefaults writes category "0" for every frame of the unit still unlabelled by the user
	FillDefaults(ctx context.Context, unit models.Unit, userID uint) (int64, error)
}

type GroupService interface {
	List(ctx context.Context, userID uint) ([]models.GroupView, error)
	Segments(ctx context.Context, groupID uint) ([]models.SegmentView, error)
	SetCompletion(ctx context.Context, groupID, userID uint, completed bool) (*models.GroupView, error)
}

type ConversationService interface {
	Lookup(ctx context.Context, timepoint, couple string, convoNumber int) (*models.ConversationRef, error)
	List(ctx context.Context, timepoint string, couples []string, summaryOnly bool) (*models.ConversationListResponse, error)
	Details(ctx context.Context, id uint) (*models.ConversationDetails, error)
	UpdateStatus(ctx context.Context, id uint, update *models.ConversationStatusUpdate, actor *models.User) (*models.ConversationDetails, error)
	GetNote(ctx context.Context, id uint) (*string, error)
	UpdateNote(ctx context.Context, id uint, note *models.ConversationNote) error
}

// ===== ADMIN TOOLING =====

type ExportService interface {
	// WriteCategorizations writes every user's labels on the unit as an xlsx workbook
	WriteCategorizations(ctx context.Context, unit models.Unit, w io.Writer) (int, error)
}

type StructureService interface {
	Parse(input string) (*Structure, error)
	Apply(ctx context.Context, s *Structure) (*ApplyStats, error)
}

type UserSyncService interface {
	Sync(ctx context.Context) (*SyncResult, error)
}

// ServiceManager owns the lifecycle of every service
type ServiceManager interface {
	Auth() AuthService
	Frame() FrameService
	Categorization() CategorizationService
	Group() GroupService
	Conversation() ConversationService
	Export() ExportService
	Structure() StructureService
	UserSync() UserSyncService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
