package models

import (
	"time"

	"gorm.io/datatypes"
)

// SignupSession holds the state of an in-progress registration between
// wizard requests.
type SignupSession struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	Step      string         `gorm:"size:20;index" json:"step"`
	Data      datatypes.JSON `json:"-"`
	ExpiresAt time.Time      `gorm:"index" json:"expires_at"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
