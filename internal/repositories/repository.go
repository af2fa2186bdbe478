package repositories

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("record not found")

// ErrStale is returned by conditional writes when the row changed after it was read
var ErrStale = errors.New("record changed concurrently")

// Repository aggregates every repository of the annotation service
type Repository interface {
	// Coders and admins
	User() UserRepository

	// Group schema
	Group() GroupRepository
	Segment() SegmentRepository
	Frame() FrameRepository

	// Labels and their audit trail
	Categorization() CategorizationRepository
	SaveReceipt() SaveReceiptRepository

	// Conversation schema
	Structure() StructureRepository
	Conversation() ConversationRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
