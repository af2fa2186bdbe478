package workspace

import (
	"errors"
	"fmt"
	"sync"

	"github.com/framelab/annotation-service/internal/models"
)

var (
	ErrNoFrame      = errors.New("no frame on this side")
	ErrSaveInFlight = errors.New("a save is in progress")
)

// Session is one coder's view of a unit of work. Methods are safe for
// concurrent use; edits are refused while a save is in flight.
type Session struct {
	mu sync.Mutex

	unit    models.Unit
	frames  []models.FrameView
	store   *Store
	current int
	active  models.Side

	modalOpen bool
	saving    bool
	status    SaveStatus

	saver Saver
}

// NewSession builds a session from fetched frames and the server's
// categorizations, keyed by their wire form.
func NewSession(unit models.Unit, frames []models.FrameView, persisted map[string]Record, saver Saver) (*Session, error) {
	layer := make(map[Key]Record, len(persisted))
	for wire, rec := range persisted {
		k, err := models.ParseFrameKey(wire)
		if err != nil {
			return nil, fmt.Errorf("failed to load categorizations: %w", err)
		}
		layer[k] = rec
	}

	current := 1
	if len(frames) == 0 {
		current = 0
	}

	return &Session{
		unit:    unit,
		frames:  frames,
		store:   NewStore(layer),
		current: current,
		active:  models.SideLeft,
		status:  SaveStatus{State: StateSaved},
		saver:   saver,
	}, nil
}

func (s *Session) Unit() models.Unit {
	return s.unit
}

func (s *Session) TotalFrames() int {
	return len(s.frames)
}

// Current returns the 1-based index of the frame being coded.
func (s *Session) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Session) ActiveSide() models.Side {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Session) SetModalOpen(open bool) {
	s.mu.Lock()
	s.modalOpen = open
	s.mu.Unlock()
}

func (s *Session) Saving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saving
}

// Effective returns the record for a key with unsaved edits applied.
func (s *Session) Effective(k Key) Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Effective(k)
}

func (s *Session) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.PendingCount()
}

// MoveTo jumps to frame n, clamped to [1, TotalFrames].
func (s *Session) MoveTo(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moveTo(n)
}

func (s *Session) moveTo(n int) {
	if len(s.frames) == 0 {
		return
	}
	s.current = min(max(n, 1), len(s.frames))
}

func (s *Session) ToggleSide() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toggleSide()
}

func (s *Session) toggleSide() {
	if !s.unit.Paired() {
		return
	}
	s.active = s.active.Other()
}

func (s *Session) frameAt(n int) (models.FrameView, bool) {
	if n < 1 || n > len(s.frames) {
		return models.FrameView{}, false
	}
	return s.frames[n-1], true
}

func (s *Session) keyAt(n int, side models.Side) (Key, bool) {
	f, ok := s.frameAt(n)
	if !ok {
		return Key{}, false
	}
	id := f.FrameIDFor(side)
	if id == nil {
		return Key{}, false
	}
	return Key{FrameID: *id, Side: side}, true
}

// SetCategory sets the active side's category on the current frame.
func (s *Session) SetCategory(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setCategory(code)
}

func (s *Session) setCategory(code string) error {
	if s.saving {
		return ErrSaveInFlight
	}
	k, ok := s.keyAt(s.current, s.active)
	if !ok {
		return ErrNoFrame
	}
	if err := s.store.SetCategory(k, code); err != nil {
		return err
	}
	s.markDirty()
	return nil
}

// ToggleFlag flags both sides of the current frame unless either side is
// already flagged, in which case both are cleared.
func (s *Session) ToggleFlag() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saving {
		return ErrSaveInFlight
	}

	keys := s.currentKeys()
	if len(keys) == 0 {
		return ErrNoFrame
	}
	flagged := false
	for _, k := range keys {
		flagged = flagged || s.store.Effective(k).Flagged
	}
	for _, k := range keys {
		s.store.SetFlagged(k, !flagged)
	}
	s.markDirty()
	return nil
}

// SetNote writes the note on both sides of the current frame. A nil or empty
// note clears it.
func (s *Session) SetNote(note *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saving {
		return ErrSaveInFlight
	}
	if note != nil && *note == "" {
		note = nil
	}

	keys := s.currentKeys()
	if len(keys) == 0 {
		return ErrNoFrame
	}
	for _, k := range keys {
		s.store.SetNote(k, note)
	}
	s.markDirty()
	return nil
}

func (s *Session) currentKeys() []Key {
	var keys []Key
	for _, side := range []models.Side{models.SideLeft, models.SideRight} {
		if k, ok := s.keyAt(s.current, side); ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// View is what the workspace renders for the current frame.
type View struct {
	FrameNumber   int
	Frame         models.FrameView
	ActiveSide    models.Side
	Left          *Record
	Right         *Record
	Category      string
	CategoryLabel string
	Flagged       bool
	HasNote       bool
	Status        SaveStatus
}

// Derived recomputes the current-frame view from the store.
func (s *Session) Derived() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{FrameNumber: s.current, ActiveSide: s.active, Status: s.statusLocked()}
	f, ok := s.frameAt(s.current)
	if !ok {
		return v
	}
	v.Frame = f

	if k, ok := s.keyAt(s.current, models.SideLeft); ok {
		r := s.store.Effective(k)
		v.Left = &r
	}
	if k, ok := s.keyAt(s.current, models.SideRight); ok {
		r := s.store.Effective(k)
		v.Right = &r
	}

	active := v.Left
	if s.active == models.SideRight {
		active = v.Right
	}
	if active != nil {
		v.Category = active.Category
		v.CategoryLabel = models.CategoryLabels[active.Category]
	}
	for _, r := range []*Record{v.Left, v.Right} {
		if r == nil {
			continue
		}
		v.Flagged = v.Flagged || r.Flagged
		v.HasNote = v.HasNote || (r.Note != nil && *r.Note != "")
	}
	return v
}
