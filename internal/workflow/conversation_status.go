// Package workflow holds the review-pass rules for conversations. The server
// applies them on every status update and the workspace client uses the same
// rules to decide which controls are actionable.
package workflow

import (
	"errors"

	"github.com/framelab/annotation-service/internal/models"
)

type State string

const (
	StateNotStarted State = "not_started"
	StateFirstPass  State = "first_pass"
	StateSecondPass State = "second_pass"
	StateLocked     State = "locked"
)

var (
	ErrForbidden         = errors.New("action requires admin role")
	ErrNotHolder         = errors.New("conversation is claimed by another user")
	ErrAlreadyClaimed    = errors.New("conversation is already in progress by another user")
	ErrLocked            = errors.New("conversation is locked")
	ErrInvalidTransition = errors.New("passes must be completed in order")
)

// Status is the mutable part of a conversation.
type Status struct {
	FirstPassCompleted  bool
	FirstPassBy         *uint
	SecondPassCompleted bool
	SecondPassBy        *uint
	FinalPassLocked     bool
	InProgressBy        *uint
}

// Actor is the user applying an update.
type Actor struct {
	ID   uint
	Role models.UserRole
}

func (a Actor) isAdmin() bool {
	return a.Role == models.RoleAdmin
}

// Update holds the requested changes; nil fields are left alone.
// InProgress true claims the conversation, false releases it.
type Update struct {
	FirstPassCompleted  *bool
	SecondPassCompleted *bool
	FinalPassLocked     *bool
	InProgress          *bool
}

func (u Update) touchesPasses() bool {
	return u.FirstPassCompleted != nil || u.SecondPassCompleted != nil || u.FinalPassLocked != nil
}

func (u Update) Empty() bool {
	return !u.touchesPasses() && u.InProgress == nil
}

func FromConversation(c *models.Conversation) Status {
	return Status{
		FirstPassCompleted:  c.FirstPassCompleted,
		FirstPassBy:         c.FirstPassBy,
		SecondPassCompleted: c.SecondPassCompleted,
		SecondPassBy:        c.SecondPassBy,
		FinalPassLocked:     c.FinalPassLocked,
		InProgressBy:        c.InProgressBy,
	}
}

// ApplyTo copies the status onto the conversation row.
func (s Status) ApplyTo(c *models.Conversation) {
	c.FirstPassCompleted = s.FirstPassCompleted
	c.FirstPassBy = s.FirstPassBy
	c.SecondPassCompleted = s.SecondPassCompleted
	c.SecondPassBy = s.SecondPassBy
	c.FinalPassLocked = s.FinalPassLocked
	c.InProgressBy = s.InProgressBy
}

// State derives the furthest pass reached.
func (s Status) State() State {
	switch {
	case s.FinalPassLocked:
		return StateLocked
	case s.SecondPassCompleted:
		return StateSecondPass
	case s.FirstPassCompleted:
		return StateFirstPass
	default:
		return StateNotStarted
	}
}

func (s Status) ordered() bool {
	if s.FinalPassLocked && !s.SecondPassCompleted {
		return false
	}
	if s.SecondPassCompleted && !s.FirstPassCompleted {
		return false
	}
	return true
}

// Target returns the flag combination selected by the status dropdown for a state.
func Target(state State) Update {
	t, f := true, false
	switch state {
	case StateFirstPass:
		return Update{FirstPassCompleted: &t, SecondPassCompleted: &f, FinalPassLocked: &f}
	case StateSecondPass:
		return Update{FirstPassCompleted: &t, SecondPassCompleted: &t, FinalPassLocked: &f}
	case StateLocked:
		return Update{FirstPassCompleted: &t, SecondPassCompleted: &t, FinalPassLocked: &t}
	default:
		return Update{FirstPassCompleted: &f, SecondPassCompleted: &f, FinalPassLocked: &f}
	}
}

// Apply returns the status after actor applies u. The input is never modified.
func Apply(current Status, u Update, actor Actor) (Status, error) {
	next := current
	admin := actor.isAdmin()

	if current.FinalPassLocked && !admin && !u.Empty() {
		return current, ErrLocked
	}

	if u.FinalPassLocked != nil && *u.FinalPassLocked != current.FinalPassLocked && !admin {
		return current, ErrForbidden
	}

	if u.FirstPassCompleted != nil {
		next.FirstPassCompleted = *u.FirstPassCompleted
		next.FirstPassBy = stamp(current.FirstPassCompleted, current.FirstPassBy, *u.FirstPassCompleted, actor.ID)
	}
	if u.SecondPassCompleted != nil {
		next.SecondPassCompleted = *u.SecondPassCompleted
		next.SecondPassBy = stamp(current.SecondPassCompleted, current.SecondPassBy, *u.SecondPassCompleted, actor.ID)
	}
	if u.FinalPassLocked != nil {
		next.FinalPassLocked = *u.FinalPassLocked
	}

	if !admin && !next.ordered() {
		return current, ErrInvalidTransition
	}

	if u.InProgress != nil {
		holder, err := claim(current.InProgressBy, *u.InProgress, actor)
		if err != nil {
			return current, err
		}
		next.InProgressBy = holder
	}

	return next, nil
}

// stamp keeps the original stamp when a completed pass is re-marked complete.
func stamp(wasSet bool, by *uint, set bool, actorID uint) *uint {
	if !set {
		return nil
	}
	if wasSet && by != nil {
		return by
	}
	id := actorID
	return &id
}

func claim(holder *uint, want bool, actor Actor) (*uint, error) {
	if want {
		if holder != nil && *holder != actor.ID {
			return holder, ErrAlreadyClaimed
		}
		id := actor.ID
		return &id, nil
	}
	if holder == nil {
		return nil, nil
	}
	if *holder != actor.ID {
		return holder, ErrNotHolder
	}
	return nil, nil
}

// CanToggleInProgress mirrors the checkbox rules: a conversation held by another
// user cannot be toggled, and locked conversations are read-only for coders.
func CanToggleInProgress(s Status, actor Actor) bool {
	if s.FinalPassLocked && !actor.isAdmin() {
		return false
	}
	return s.InProgressBy == nil || *s.InProgressBy == actor.ID
}
