package models

import (
	"time"

	"gorm.io/datatypes"
)

const DefaultCategory = "0"

// CategoryLabels maps every valid category code to its legend label.
var CategoryLabels = map[string]string{
	"0": "All Good",
	"1": "Partial Frame",
	"2": "Full Cover",
	"3": "Partial Cover",
	"4": "Tilt",
	"5": "Drinking",
	"6": "Eating",
	"7": "Yawning",
	"8": "Weird Face",
	"9": "End",
}

func IsValidCategory(code string) bool {
	_, ok := CategoryLabels[code]
	return ok
}

// Categorization is one user's label on one frame.
type Categorization struct {
	ID       uint    `json:"id" gorm:"primaryKey"`
	FrameID  uint    `json:"frame_id" gorm:"not null;uniqueIndex:idx_categorization_frame_user"`
	UserID   uint    `json:"user_id" gorm:"not null;uniqueIndex:idx_categorization_frame_user;index"`
	Category string  `json:"category" gorm:"not null;size:2;default:0"`
	Flagged  bool    `json:"flagged" gorm:"default:false"`
	Note     *string `json:"note"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Frame *Frame `json:"-" gorm:"foreignKey:FrameID"`
}

func (Categorization) TableName() string {
	return "categorizations"
}

// SaveReceipt is an audit row written after every bulk save.
type SaveReceipt struct {
	ID       uint           `json:"id" gorm:"primaryKey"`
	UserID   uint           `json:"user_id" gorm:"not null;index"`
	UnitKind UnitKind       `json:"unit_kind" gorm:"not null;size:20"`
	UnitID   uint           `json:"unit_id" gorm:"not null"`
	Saved    int            `json:"saved"`
	Total    int            `json:"total"`
	Results  datatypes.JSON `json:"results"`

	CreatedAt time.Time `json:"created_at"`
}

func (SaveReceipt) TableName() string {
	return "save_receipts"
}
