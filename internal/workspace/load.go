package workspace

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/framelab/annotation-service/internal/models"
)

// Fetcher reads the data a workspace needs from the server.
type Fetcher interface {
	Frames(ctx context.Context, unit models.Unit) (*models.FramesResponse, error)
	Categorizations(ctx context.Context, unit models.Unit) (*models.CategorizationsResponse, error)
}

// API is the server surface a workspace session depends on.
type API interface {
	Fetcher
	Saver
}

// Load fetches frames and categorizations in parallel and builds a session
// once both have arrived.
func Load(ctx context.Context, api API, unit models.Unit) (*Session, error) {
	var (
		frames *models.FramesResponse
		cats   *models.CategorizationsResponse
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		frames, err = api.Frames(gctx, unit)
		if err != nil {
			return fmt.Errorf("failed to load frames: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		cats, err = api.Categorizations(gctx, unit)
		if err != nil {
			return fmt.Errorf("failed to load categorizations: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return NewSession(unit, frames.Frames, cats.Categorizations, api)
}
