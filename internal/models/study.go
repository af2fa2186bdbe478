package models

import "time"

type Study struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"not null;size:200"`

	CreatedAt time.Time `json:"created_at"`
}

func (Study) TableName() string {
	return "studies"
}

type Group struct {
	ID          uint  `json:"id" gorm:"primaryKey"`
	GroupNumber int   `json:"group_number" gorm:"not null;index"`
	StudyID     *uint `json:"study_id,omitempty" gorm:"index"`

	Segments []Segment `json:"segments,omitempty" gorm:"foreignKey:GroupID"`
}

func (Group) TableName() string {
	return "groups"
}

// GroupCompletion records whether a user has finished coding a group.
type GroupCompletion struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	GroupID     uint       `json:"group_id" gorm:"not null;uniqueIndex:idx_group_completion_user"`
	UserID      uint       `json:"user_id" gorm:"not null;uniqueIndex:idx_group_completion_user"`
	Completed   bool       `json:"completed" gorm:"default:false"`
	CompletedAt *time.Time `json:"completed_at"`

	UpdatedAt time.Time `json:"updated_at"`
}

func (GroupCompletion) TableName() string {
	return "group_completions"
}

// Segment is an ordered subdivision of either a group or a conversation.
type Segment struct {
	ID             uint  `json:"id" gorm:"primaryKey"`
	OrderPresented int   `json:"order_presented" gorm:"not null"`
	GroupID        *uint `json:"group_id,omitempty" gorm:"index"`
	ConversationID *uint `json:"conversation_id,omitempty" gorm:"index"`

	Frames []Frame `json:"frames,omitempty" gorm:"foreignKey:SegmentID"`
}

func (Segment) TableName() string {
	return "segments"
}
