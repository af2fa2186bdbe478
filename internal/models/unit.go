package models

import "fmt"

// UnitKind names the scope a coder works through.
type UnitKind string

const (
	UnitGroup        UnitKind = "group"
	UnitConversation UnitKind = "conversation"
	UnitSegment      UnitKind = "segment"
)

func (k UnitKind) Valid() bool {
	switch k {
	case UnitGroup, UnitConversation, UnitSegment:
		return true
	}
	return false
}

// Unit is a unit of work: every frame of a group, a conversation or a single segment.
type Unit struct {
	Kind UnitKind `json:"kind"`
	ID   uint     `json:"id"`
}

// Paired reports whether frames in the unit are presented as left/right pairs.
func (u Unit) Paired() bool {
	return u.Kind != UnitSegment
}

func (u Unit) String() string {
	return fmt.Sprintf("%s:%d", u.Kind, u.ID)
}

// SegmentColumn is the segments column that links segments to the unit.
func (u Unit) SegmentColumn() string {
	switch u.Kind {
	case UnitGroup:
		return "group_id"
	case UnitConversation:
		return "conversation_id"
	default:
		return "id"
	}
}

// UnitSelector carries the unit of work as request parameters; exactly one id is set.
type UnitSelector struct {
	SegmentID      uint `json:"segment_id,omitempty" form:"segment_id"`
	GroupID        uint `json:"group_id,omitempty" form:"group_id"`
	ConversationID uint `json:"conversation_id,omitempty" form:"conversation_id"`
}

// Unit returns the selected unit, or false unless exactly one id is set.
func (s UnitSelector) Unit() (Unit, bool) {
	var units []Unit
	if s.GroupID != 0 {
		units = append(units, Unit{Kind: UnitGroup, ID: s.GroupID})
	}
	if s.ConversationID != 0 {
		units = append(units, Unit{Kind: UnitConversation, ID: s.ConversationID})
	}
	if s.SegmentID != 0 {
		units = append(units, Unit{Kind: UnitSegment, ID: s.SegmentID})
	}
	if len(units) != 1 {
		return Unit{}, false
	}
	return units[0], true
}

// SelectorFor is the inverse of UnitSelector.Unit.
func SelectorFor(u Unit) UnitSelector {
	switch u.Kind {
	case UnitGroup:
		return UnitSelector{GroupID: u.ID}
	case UnitConversation:
		return UnitSelector{ConversationID: u.ID}
	default:
		return UnitSelector{SegmentID: u.ID}
	}
}
