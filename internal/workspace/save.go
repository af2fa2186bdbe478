package workspace

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/framelab/annotation-service/internal/models"
)

type SaveState string

const (
	StateSaved   SaveState = "saved"
	StateSaving  SaveState = "saving"
	StateUnsaved SaveState = "unsaved"
	StateError   SaveState = "error"
)

type SaveStatus struct {
	State   SaveState
	Message string
}

const (
	minSaveTimeout    = 30 * time.Second
	saveTimeoutPerKey = 100 * time.Millisecond
)

// Saver sends unsaved edits for a unit to the server.
type Saver interface {
	SaveCategorizations(ctx context.Context, unit models.Unit, changes map[string]Record) (*models.SaveResult, error)
}

// SaveTimeout bounds one save request: 30s, or 100ms per change for large batches.
func SaveTimeout(changes int) time.Duration {
	return max(minSaveTimeout, time.Duration(changes)*saveTimeoutPerKey)
}

func (s *Session) Status() SaveStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Session) statusLocked() SaveStatus {
	return s.status
}

func (s *Session) markDirty() {
	n := s.store.PendingCount()
	if n == 0 {
		return
	}
	s.status = SaveStatus{
		State:   StateUnsaved,
		Message: fmt.Sprintf("%s unsaved %s", humanize.Comma(int64(n)), plural(n, "change", "changes")),
	}
}

// Save flushes every unsaved edit in one request. It is a no-op when nothing is
// pending or a save is already running. On success the edits move into the
// persisted layer; on any failure the unsaved layer is left untouched.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.saving || s.store.PendingCount() == 0 {
		s.mu.Unlock()
		return nil
	}
	snapshot := s.store.Pending()
	s.saving = true
	s.status = SaveStatus{State: StateSaving, Message: "Saving..."}
	s.mu.Unlock()

	changes := make(map[string]Record, len(snapshot))
	for k, r := range snapshot {
		changes[k.Wire(s.unit.Paired())] = r
	}

	ctx, cancel := context.WithTimeout(ctx, SaveTimeout(len(changes)))
	defer cancel()

	result, err := s.saver.SaveCategorizations(ctx, s.unit, changes)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saving = false

	if err != nil {
		s.status = SaveStatus{State: StateError, Message: "Save failed - network error"}
		return fmt.Errorf("failed to save categorizations: %w", err)
	}
	if result == nil {
		result = &models.SaveResult{}
	}
	if !result.Success || result.Saved != len(changes) {
		s.status = SaveStatus{
			State:   StateError,
			Message: fmt.Sprintf("Save failed: %d/%d saved", result.Saved, len(changes)),
		}
		return fmt.Errorf("save incomplete: %d/%d saved", result.Saved, len(changes))
	}

	s.store.Commit(snapshot)
	n := len(snapshot)
	s.status = SaveStatus{
		State:   StateSaved,
		Message: fmt.Sprintf("Saved %s %s successfully", humanize.Comma(int64(n)), plural(n, "change", "changes")),
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
