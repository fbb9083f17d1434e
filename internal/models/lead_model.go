package models

import (
	"time"

	"gorm.io/gorm"
)

type LeadKind string

const (
	CardLead LeadKind = "credit_card"
	LoanLead LeadKind = "loan"
)

type Lead struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Reference      string         `gorm:"size:40;uniqueIndex" json:"reference"`
	Kind           LeadKind       `gorm:"size:20;index" json:"kind"`
	ApplicantName  string         `gorm:"size:150" json:"applicant_name"`
	ApplicantEmail string         `gorm:"size:100" json:"applicant_email"`
	ApplicantPhone string         `gorm:"size:10" json:"applicant_phone"`
	CreditCardID   *uint          `json:"credit_card_id,omitempty"`
	CardName       string         `gorm:"size:150" json:"card_name,omitempty"`
	BankName       string         `gorm:"size:100" json:"bank_name,omitempty"`
	LoanType       LoanCategory   `gorm:"size:30" json:"loan_type,omitempty"`
	LoanAmount     float64        `json:"loan_amount,omitempty"`
	Status         string         `gorm:"size:20;default:'new';index" json:"status"`
	Notes          string         `gorm:"type:text" json:"notes"`
	SubmittedBy    uint           `gorm:"index" json:"submitted_by"`
	AssignedTo     *uint          `json:"assigned_to,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}
