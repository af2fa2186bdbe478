package workspace

import (
	"context"
	"errors"
	"strings"
)

// KeyEvent is a key press as reported by the host UI.
type KeyEvent struct {
	Key  string
	Ctrl bool
	Meta bool
}

type KeyResult int

const (
	// PassThrough leaves the event to the host untouched.
	PassThrough KeyResult = iota
	// Handled means the host should suppress its default behaviour.
	Handled
)

// HandleKey dispatches a workspace shortcut. While a modal is open or a save
// is running every key passes through.
func (s *Session) HandleKey(ctx context.Context, ev KeyEvent) (KeyResult, error) {
	s.mu.Lock()
	if s.modalOpen || s.saving {
		s.mu.Unlock()
		return PassThrough, nil
	}

	if (ev.Ctrl || ev.Meta) && strings.EqualFold(ev.Key, "s") {
		s.mu.Unlock()
		return Handled, s.Save(ctx)
	}
	defer s.mu.Unlock()

	if ev.Ctrl || ev.Meta {
		return PassThrough, nil
	}

	switch ev.Key {
	case "ArrowLeft":
		s.moveTo(s.current - 1)
		return Handled, nil
	case "ArrowRight":
		s.moveTo(s.current + 1)
		return Handled, nil
	case "Tab":
		s.toggleSide()
		return Handled, nil
	}

	if len(ev.Key) == 1 && ev.Key[0] >= '0' && ev.Key[0] <= '9' {
		err := s.setCategory(ev.Key)
		if errors.Is(err, ErrNoFrame) {
			err = nil
		}
		return Handled, err
	}

	return PassThrough, nil
}
