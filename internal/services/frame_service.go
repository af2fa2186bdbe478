package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/framelab/annotation-service/internal/blob"
	"github.com/framelab/annotation-service/internal/cache"
	"github.com/framelab/annotation-service/internal/models"
	"github.com/framelab/annotation-service/internal/repositories"
)

const dataURLPrefix = "data:image/jpeg;base64,"

type frameService struct {
	repo        repositories.Repository
	logger      *slog.Logger
	cache       *cache.CacheManager
	blobs       blob.Store
	bucket      string
	concurrency int
}

func NewFrameService(repo repositories.Repository, logger *slog.Logger, cm *cache.CacheManager, blobs blob.Store, bucket string, concurrency int) FrameService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &frameService{
		repo:        repo,
		logger:      logger,
		cache:       cm,
		blobs:       blobs,
		bucket:      bucket,
		concurrency: concurrency,
	}
}

func (s *frameService) ListFrames(ctx context.Context, unit models.Unit, inline bool) (*models.FramesResponse, error) {
	var views []models.FrameView
	err := s.cache.Frames.CacheOrExecute(ctx, "unit:"+unit.String(), &views, cache.FrameCacheConfig.TTL, func() (interface{}, error) {
		return s.buildViews(ctx, unit)
	})
	if err != nil {
		return nil, err
	}
	if views == nil {
		views = []models.FrameView{}
	}

	if inline && s.blobs != nil && len(views) > 0 {
		s.inlineImages(ctx, views)
	}

	s.logger.Debug("Listed frames", "unit", unit.String(), "count", len(views), "inline", inline)
	return &models.FramesResponse{
		Success:     true,
		Frames:      views,
		TotalFrames: len(views),
		Unit:        unit,
	}, nil
}

func (s *frameService) buildViews(ctx context.Context, unit models.Unit) ([]models.FrameView, error) {
	frames, err := s.repo.Frame().ListForUnit(ctx, nil, unit)
	if err != nil {
		return nil, fmt.Errorf("failed to list frames: %w", err)
	}
	sortFrames(frames)

	if !unit.Paired() {
		views := make([]models.FrameView, 0, len(frames))
		for i, f := range frames {
			views = append(views, models.FrameView{
				FrameNumber: i + 1,
				Data:        f.FrameURL,
				ID:          f.ID,
				Name:        f.FrameName,
			})
		}
		return views, nil
	}
	return pairFrames(frames), nil
}

// sortFrames orders by segment presentation, then by the number in the frame name.
func sortFrames(frames []*models.Frame) {
	sort.SliceStable(frames, func(i, j int) bool {
		a, b := frames[i], frames[j]
		if oa, ob := segmentOrder(a), segmentOrder(b); oa != ob {
			return oa < ob
		}
		if a.SegmentID != b.SegmentID {
			return a.SegmentID < b.SegmentID
		}
		return a.Number() < b.Number()
	})
}

func segmentOrder(f *models.Frame) int {
	if f.Segment == nil {
		return 0
	}
	return f.Segment.OrderPresented
}

// pairFrames zips the left and right frames sharing a segment and number into
// one row. The row shows the left image when there is one.
func pairFrames(frames []*models.Frame) []models.FrameView {
	type rowKey struct {
		segmentID uint
		number    int
	}

	var (
		views []models.FrameView
		index = make(map[rowKey]int)
	)
	for _, f := range frames {
		k := rowKey{segmentID: f.SegmentID, number: f.Number()}
		i, ok := index[k]
		if !ok {
			i = len(views)
			index[k] = i
			views = append(views, models.FrameView{
				FrameNumber:         i + 1,
				Data:                f.FrameURL,
				Name:                f.FrameName,
				SegmentID:           f.SegmentID,
				SegmentOrder:        segmentOrder(f),
				OriginalFrameNumber: k.number,
			})
		}

		id := f.ID
		row := &views[i]
		if f.Side == models.SideRight {
			row.RightFrameID = &id
			continue
		}
		row.LeftFrameID = &id
		row.Data = f.FrameURL
		row.Name = f.FrameName
	}
	if views == nil {
		views = []models.FrameView{}
	}
	return views
}

// inlineImages replaces each URL with a base64 data URL. A failed fetch keeps
// the URL and reports size 0.
func (s *frameService) inlineImages(ctx context.Context, views []models.FrameView) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := range views {
		v := &views[i]
		url := v.Data
		g.Go(func() error {
			data, err := s.blobs.Get(gctx, blob.ObjectPath(url, s.bucket))
			if err != nil {
				s.logger.Warn("Failed to fetch frame image", "error", err, "url", url)
				return nil
			}
			v.Data = dataURLPrefix + base64.StdEncoding.EncodeToString(data)
			v.Size = len(data)
			return nil
		})
	}
	_ = g.Wait()
}
