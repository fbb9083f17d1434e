package models

import "time"

type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index" json:"user_id"`
	Title     string    `gorm:"size:150" json:"title"`
	Message   string    `gorm:"size:1000" json:"message"`
	Type      string    `gorm:"size:30;default:'info'" json:"type"`
	Link      string    `gorm:"size:255" json:"link,omitempty"`
	IsRead    bool      `gorm:"default:false;index" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
