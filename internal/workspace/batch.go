package workspace

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/framelab/annotation-service/internal/models"
)

// BatchConfirmThreshold is the largest batch applied without confirmation.
const BatchConfirmThreshold = 50

var (
	ErrInvalidRange   = errors.New("range must be a frame number or start-end")
	ErrRangeOutOfView = errors.New("range is outside the available frames")
	ErrRangeOrder     = errors.New("range start must not exceed end")
	ErrBatchCancelled = errors.New("batch cancelled")
)

var rangePattern = regexp.MustCompile(`^(\d+)(?:-(\d+))?$`)

type Range struct {
	Start int
	End   int
}

func (r Range) Len() int {
	return r.End - r.Start + 1
}

// ParseRange accepts exactly "N" or "A-B", with both bounds in [1, totalFrames].
// Surrounding whitespace is rejected like any other stray character.
func ParseRange(input string, totalFrames int) (Range, error) {
	m := rangePattern.FindStringSubmatch(input)
	if m == nil {
		return Range{}, ErrInvalidRange
	}
	start, err := strconv.Atoi(m[1])
	if err != nil {
		return Range{}, ErrInvalidRange
	}
	end := start
	if m[2] != "" {
		if end, err = strconv.Atoi(m[2]); err != nil {
			return Range{}, ErrInvalidRange
		}
	}
	if start < 1 || end < 1 || start > totalFrames || end > totalFrames {
		return Range{}, fmt.Errorf("%w: valid frames are 1-%d", ErrRangeOutOfView, totalFrames)
	}
	if start > end {
		return Range{}, ErrRangeOrder
	}
	return Range{Start: start, End: end}, nil
}

type SideSelection string

const (
	SidesLeft  SideSelection = "left"
	SidesRight SideSelection = "right"
	SidesBoth  SideSelection = "both"
)

func (s SideSelection) sides() ([]models.Side, error) {
	switch s {
	case SidesLeft:
		return []models.Side{models.SideLeft}, nil
	case SidesRight:
		return []models.Side{models.SideRight}, nil
	case SidesBoth:
		return []models.Side{models.SideLeft, models.SideRight}, nil
	default:
		return nil, fmt.Errorf("unknown side selection %q", s)
	}
}

type BatchRequest struct {
	Range    string
	Category string
	Sides    SideSelection
}

// ConfirmFunc is asked before applying more than BatchConfirmThreshold edits.
// It runs with the session locked and must not call back into it.
type ConfirmFunc func(edits int) bool

// PlanBatch validates a batch request and returns the keys it would edit.
// Frames with no image on a selected side are skipped.
func (s *Session) PlanBatch(req BatchRequest) ([]Key, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.planBatch(req)
}

func (s *Session) planBatch(req BatchRequest) ([]Key, error) {
	if !models.IsValidCategory(req.Category) {
		return nil, fmt.Errorf("invalid category %q", req.Category)
	}
	sides, err := req.Sides.sides()
	if err != nil {
		return nil, err
	}
	if !s.unit.Paired() {
		sides = []models.Side{models.SideLeft}
	}
	r, err := ParseRange(req.Range, len(s.frames))
	if err != nil {
		return nil, err
	}

	keys := make([]Key, 0, r.Len()*len(sides))
	for n := r.Start; n <= r.End; n++ {
		for _, side := range sides {
			if k, ok := s.keyAt(n, side); ok {
				keys = append(keys, k)
			}
		}
	}
	return keys, nil
}

// ApplyBatch sets one category on every selected side of every frame in range.
// Only the category is overwritten; flags and notes keep their effective value.
func (s *Session) ApplyBatch(req BatchRequest, confirm ConfirmFunc) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saving {
		return 0, ErrSaveInFlight
	}
	keys, err := s.planBatch(req)
	if err != nil {
		return 0, err
	}
	if len(keys) > BatchConfirmThreshold && (confirm == nil || !confirm(len(keys))) {
		return 0, ErrBatchCancelled
	}

	for _, k := range keys {
		if err := s.store.SetCategory(k, req.Category); err != nil {
			return 0, err
		}
	}
	s.markDirty()
	return len(keys), nil
}
