package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/framelab/annotation-service/internal/blob"
	"github.com/framelab/annotation-service/internal/events"
	"github.com/framelab/annotation-service/internal/models"
	"github.com/framelab/annotation-service/internal/repositories"
	"github.com/framelab/annotation-service/internal/repositories/postgres"
	"github.com/framelab/annotation-service/internal/testdb"
	"github.com/framelab/annotation-service/internal/validator"
)

const testBucket = "mcnulty_frames"

type testEnv struct {
	db     *gorm.DB
	fx     *testdb.Fixture
	repo   repositories.Repository
	events *events.MockEventPublisher
	blobs  *blob.MemoryStore
	sm     ServiceManager
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T, mutate ...func(*ServiceManagerConfig)) *testEnv {
	t.Helper()

	db := testdb.Open(t)
	env := &testEnv{
		db:     db,
		fx:     testdb.Seed(t, db),
		repo:   postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: db}),
		events: events.NewMockEventPublisher(testLogger()),
		blobs:  blob.NewMemoryStore(),
	}

	cfg := ServiceManagerConfig{
		SharedPassword:        "secret",
		Bucket:                testBucket,
		FrameFetchConcurrency: 4,
		Blobs:                 env.blobs,
		Events:                env.events,
	}
	for _, m := range mutate {
		m(&cfg)
	}

	env.sm = NewServiceManager(db, env.repo, testLogger(), validator.New(), cfg)
	require.NoError(t, env.sm.Initialize(context.Background()))

	// run the post-save fill inline so assertions see it
	env.sm.Categorization().(*categorizationService).runAsync = func(fn func()) { fn() }
	return env
}

func (e *testEnv) groupUnit() models.Unit {
	return models.Unit{Kind: models.UnitGroup, ID: e.fx.Group.ID}
}

func (e *testEnv) soloUnit() models.Unit {
	return models.Unit{Kind: models.UnitSegment, ID: e.fx.SoloSegment.ID}
}

func (e *testEnv) convUnit() models.Unit {
	return models.Unit{Kind: models.UnitConversation, ID: e.fx.Conversation.ID}
}

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }
