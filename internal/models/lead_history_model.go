package models

import "time"

// LeadHistory records one status change of a lead.
type LeadHistory struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	LeadID     uint      `gorm:"index" json:"lead_id"`
	FromStatus string    `gorm:"size:20" json:"from_status"`
	ToStatus   string    `gorm:"size:20" json:"to_status"`
	ChangedBy  uint      `json:"changed_by"`
	Comment    string    `gorm:"type:text" json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
