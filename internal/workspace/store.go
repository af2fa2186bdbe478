// Package workspace implements the annotation workspace state: persisted and
// unsaved categorizations, single-frame edits, batch edits, manual save and
// keyboard dispatch. It has no UI dependencies and talks to the server through
// the Saver and Fetcher interfaces.
package workspace

import (
	"fmt"
	"maps"

	"github.com/framelab/annotation-service/internal/models"
)

type Key = models.FrameKey
type Record = models.CategorizationRecord

// DefaultRecord is the effective value of a key that has never been edited.
func DefaultRecord() Record {
	return Record{Category: models.DefaultCategory}
}

// Resolve returns unsaved[k], else persisted[k], else the default record.
func Resolve(unsaved, persisted map[Key]Record, k Key) Record {
	if r, ok := unsaved[k]; ok {
		return r
	}
	if r, ok := persisted[k]; ok {
		return r
	}
	return DefaultRecord()
}

// Store overlays unsaved edits on the last fetched server state.
// The persisted layer only changes through Replace and Commit.
type Store struct {
	persisted map[Key]Record
	unsaved   map[Key]Record
}

func NewStore(persisted map[Key]Record) *Store {
	s := &Store{unsaved: make(map[Key]Record)}
	s.Replace(persisted)
	return s
}

// Replace swaps in freshly fetched server state.
func (s *Store) Replace(persisted map[Key]Record) {
	s.persisted = make(map[Key]Record, len(persisted))
	maps.Copy(s.persisted, persisted)
}

func (s *Store) Effective(k Key) Record {
	return Resolve(s.unsaved, s.persisted, k)
}

func (s *Store) Persisted(k Key) (Record, bool) {
	r, ok := s.persisted[k]
	return r, ok
}

func (s *Store) Unsaved(k Key) (Record, bool) {
	r, ok := s.unsaved[k]
	return r, ok
}

func (s *Store) SetCategory(k Key, code string) error {
	if !models.IsValidCategory(code) {
		return fmt.Errorf("invalid category %q", code)
	}
	r := s.Effective(k)
	r.Category = code
	s.unsaved[k] = r
	return nil
}

func (s *Store) SetFlagged(k Key, flagged bool) {
	r := s.Effective(k)
	r.Flagged = flagged
	s.unsaved[k] = r
}

func (s *Store) SetNote(k Key, note *string) {
	r := s.Effective(k)
	if note != nil {
		v := *note
		note = &v
	}
	r.Note = note
	s.unsaved[k] = r
}

// Pending returns a copy of the unsaved layer.
func (s *Store) Pending() map[Key]Record {
	out := make(map[Key]Record, len(s.unsaved))
	maps.Copy(out, s.unsaved)
	return out
}

func (s *Store) PendingCount() int {
	return len(s.unsaved)
}

// Commit moves a saved snapshot into the persisted layer and drops the matching
// unsaved entries. Entries edited again after the snapshot was taken stay unsaved.
func (s *Store) Commit(snapshot map[Key]Record) {
	for k, v := range snapshot {
		s.persisted[k] = v
		if cur, ok := s.unsaved[k]; ok && sameRecord(cur, v) {
			delete(s.unsaved, k)
		}
	}
}

func sameRecord(a, b Record) bool {
	if a.Category != b.Category || a.Flagged != b.Flagged {
		return false
	}
	if a.Note == nil || b.Note == nil {
		return a.Note == nil && b.Note == nil
	}
	return *a.Note == *b.Note
}
