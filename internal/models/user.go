package models

import (
	"time"

	"gorm.io/datatypes"
)

type UserRole string

const (
	RoleCoder UserRole = "coder"
	RoleAdmin UserRole = "admin"
)

// User is a coder or admin who can sign in with the shared password.
type User struct {
	ID          uint     `json:"id" gorm:"primaryKey"`
	DisplayName string   `json:"display_name" gorm:"not null;size:100"`
	Role        UserRole `json:"role" gorm:"not null;size:20;default:coder"`

	// Set for users mirrored from the external directory
	ExternalID *string        `json:"-" gorm:"uniqueIndex;size:255"`
	Attributes datatypes.JSON `json:"attributes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// SessionUser is the payload stored in the session cookie.
type SessionUser struct {
	ID          uint   `json:"id"`
	DisplayName string `json:"display_name"`
}
