package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CreditCard struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	Name                string         `gorm:"size:150;index" json:"name"`
	Bank                string         `gorm:"size:100;index" json:"bank"`
	Type                string         `gorm:"size:50" json:"type"`
	Category            string         `gorm:"size:50" json:"category"`
	AnnualFee           float64        `json:"annual_fee"`
	JoiningFee          float64        `json:"joining_fee"`
	DSACommission       float64        `json:"dsa_commission"`
	RewardPoints        string         `gorm:"size:255" json:"reward_points"`
	Features            datatypes.JSON `json:"features"`
	ServiceablePincodes datatypes.JSON `json:"serviceable_pincodes"`
	Highlights          string         `gorm:"type:text" json:"highlights"`
	Terms               string         `gorm:"type:text" json:"terms"`
	RedirectURL         string         `gorm:"size:500" json:"redirect_url"`
	UTMLink             string         `gorm:"size:500" json:"utm_link"`
	PayoutSource        string         `gorm:"size:100" json:"payout_source"`
	CardImageURL        string         `gorm:"size:500" json:"card_image_url,omitempty"`
	Status              string         `gorm:"size:20;default:'active';index" json:"status"`
	CreatedBy           uint           `gorm:"index" json:"created_by,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}
