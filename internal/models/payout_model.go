package models

import (
	"time"

	"gorm.io/gorm"
)

type Payout struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       uint           `gorm:"index" json:"user_id"`
	LeadID       *uint          `json:"lead_id,omitempty"`
	CustomerName string         `gorm:"size:150" json:"customer_name"`
	ProductName  string         `gorm:"size:150" json:"product_name"`
	BankName     string         `gorm:"size:100" json:"bank_name"`
	Commission   float64        `json:"commission"`
	Deduction    float64        `json:"deduction"`
	NetPayout    float64        `json:"net_payout"`
	TeamEarning  float64        `json:"team_earning"`
	PayoutStatus string         `gorm:"size:20;default:'pending';index" json:"payout_status"`
	PayoutDate   *time.Time     `json:"payout_date,omitempty"`
	Remark       string         `gorm:"size:500" json:"remark"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeSave keeps net payout derived from commission and deduction.
func (p *Payout) BeforeSave(tx *gorm.DB) error {
	p.NetPayout = p.Commission - p.Deduction
	return nil
}
