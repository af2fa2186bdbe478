package models

import "time"

type Timepoint struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Code string `json:"code" gorm:"not null;uniqueIndex;size:20"`
}

func (Timepoint) TableName() string {
	return "timepoints"
}

type Couple struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	TimepointID uint   `json:"timepoint_id" gorm:"not null;uniqueIndex:idx_couple_timepoint_code"`
	Code        string `json:"code" gorm:"not null;uniqueIndex:idx_couple_timepoint_code;size:50"`

	Timepoint *Timepoint `json:"-" gorm:"foreignKey:TimepointID"`
}

func (Couple) TableName() string {
	return "couples"
}

// Conversation carries the pass flags of the review workflow.
type Conversation struct {
	ID          uint `json:"id" gorm:"primaryKey"`
	CoupleID    uint `json:"couple_id" gorm:"not null;uniqueIndex:idx_conversation_couple_number"`
	ConvoNumber int  `json:"convo_number" gorm:"not null;uniqueIndex:idx_conversation_couple_number"`

	FirstPassCompleted  bool    `json:"first_pass_completed" gorm:"default:false"`
	FirstPassBy         *uint   `json:"first_pass_by"`
	SecondPassCompleted bool    `json:"second_pass_completed" gorm:"default:false"`
	SecondPassBy        *uint   `json:"second_pass_by"`
	FinalPassLocked     bool    `json:"final_pass_locked" gorm:"default:false"`
	InProgressBy        *uint   `json:"in_progress_by"`
	Note                *string `json:"note"`

	UpdatedAt time.Time `json:"updated_at"`

	Couple         *Couple `json:"-" gorm:"foreignKey:CoupleID"`
	InProgressUser *User   `json:"-" gorm:"foreignKey:InProgressBy"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// AllModels lists every table for migrations.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Study{},
		&Group{},
		&GroupCompletion{},
		&Timepoint{},
		&Couple{},
		&Conversation{},
		&Segment{},
		&Frame{},
		&Categorization{},
		&SaveReceipt{},
	}
}
