package client

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framelab/annotation-service/internal/handlers"
	"github.com/framelab/annotation-service/internal/models"
	"github.com/framelab/annotation-service/internal/repositories/postgres"
	"github.com/framelab/annotation-service/internal/services"
	"github.com/framelab/annotation-service/internal/testdb"
	"github.com/framelab/annotation-service/internal/utils"
	"github.com/framelab/annotation-service/internal/validator"
	"github.com/framelab/annotation-service/internal/workspace"
)

func newServer(t *testing.T) (*httptest.Server, *testdb.Fixture) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := testdb.Open(t)
	fx := testdb.Seed(t, db)
	repo := postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: db})

	sm := services.NewServiceManager(db, repo, logger, validator.New(), services.ServiceManagerConfig{SharedPassword: "secret"})
	require.NoError(t, sm.Initialize(context.Background()))

	router := gin.New()
	handlers.NewHandlerManager(sm, validator.New(), utils.NewSlogLogger(logger), handlers.SessionConfig{Secret: []byte("test-secret")}).SetupRoutes(router)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, fx
}

func TestClient_WorkspaceRoundTrip(t *testing.T) {
	srv, fx := newServer(t)
	ctx := context.Background()

	c, err := New(srv.URL + "/api/v1")
	require.NoError(t, err)

	users, err := c.Users(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 3)

	_, err = c.Frames(ctx, models.Unit{Kind: models.UnitSegment, ID: fx.SoloSegment.ID})
	assert.True(t, IsStatus(err, http.StatusUnauthorized), "got %v", err)

	_, err = c.Login(ctx, fx.Coder.ID, "wrong")
	assert.True(t, IsStatus(err, http.StatusUnauthorized))

	user, err := c.Login(ctx, fx.Coder.ID, "secret")
	require.NoError(t, err)
	assert.Equal(t, "Casey", user.DisplayName)

	unit := models.Unit{Kind: models.UnitSegment, ID: fx.SoloSegment.ID}
	session, err := workspace.Load(ctx, c, unit)
	require.NoError(t, err)
	require.Equal(t, 3, session.TotalFrames())

	n, err := session.ApplyBatch(workspace.BatchRequest{Range: "1-3", Category: "4", Sides: workspace.SidesBoth}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, session.Save(ctx))
	assert.Equal(t, workspace.StateSaved, session.Status().State)

	cats, err := c.Categorizations(ctx, unit)
	require.NoError(t, err)
	for _, f := range fx.SoloFrames {
		assert.Equal(t, "4", cats.Categorizations[models.FrameKey{FrameID: f.ID, Side: models.SideLeft}.Wire(false)].Category)
	}
}

func TestClient_SaveFailureKeepsResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"success":false,"saved":0,"total":1,"results":[{"key":"frame_1","success":false,"error":"Database write failed"}],"error":"failed to save categorizations"}`)
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	result, err := c.SaveCategorizations(context.Background(), models.Unit{Kind: models.UnitSegment, ID: 1}, map[string]workspace.Record{
		"frame_1": {Category: "2"},
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "Database write failed", result.Results[0].Error)
}

func TestClient_ErrorBodies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/categorizations" {
			http.Error(w, "bad gateway", http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"Group not found"}`)
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	_, err = c.Frames(context.Background(), models.Unit{Kind: models.UnitGroup, ID: 9})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Group not found", apiErr.Message)

	_, err = c.SaveCategorizations(context.Background(), models.Unit{Kind: models.UnitGroup, ID: 9}, nil)
	assert.True(t, IsStatus(err, http.StatusBadGateway))

	_, err = New("not a url")
	assert.Error(t, err)
}

func TestUnitQuery(t *testing.T) {
	assert.Equal(t, "group_id=4", unitQuery(models.Unit{Kind: models.UnitGroup, ID: 4}).Encode())
	assert.Equal(t, "conversation_id=2", unitQuery(models.Unit{Kind: models.UnitConversation, ID: 2}).Encode())
	assert.Equal(t, "segment_id=8", unitQuery(models.Unit{Kind: models.UnitSegment, ID: 8}).Encode())
}
