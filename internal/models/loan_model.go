package models

import (
	"time"

	"gorm.io/gorm"
)

type LoanCategory string

const (
	CarLoan      LoanCategory = "car_loan"
	UsedCarLoan  LoanCategory = "used_car_loan"
	PersonalLoan LoanCategory = "personal_loan"
	BusinessLoan LoanCategory = "business_loan"
	HomeLoan     LoanCategory = "home_loan"
	OtherLoan    LoanCategory = "other"
)

var LoanCategoryLabels = map[LoanCategory]string{
	CarLoan:      "Car Loan",
	UsedCarLoan:  "Used Car Loan",
	PersonalLoan: "Personal Loan",
	BusinessLoan: "Business Loan",
	HomeLoan:     "Home Loan",
	OtherLoan:    "Other",
}

const (
	LoanPending   = "pending"
	LoanApproved  = "approved"
	LoanDisbursed = "disbursed"
	LoanRejected  = "rejected"
)

type LoanDisbursement struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	ApplicantName    string         `gorm:"size:150;index" json:"applicant_name"`
	MobileNumber     string         `gorm:"size:10" json:"mobile_number"`
	Category         LoanCategory   `gorm:"size:30;index" json:"category"`
	RCNumber         string         `gorm:"size:20" json:"rc_number"`
	EngineNumber     string         `gorm:"size:50" json:"engine_number"`
	ChassisNumber    string         `gorm:"size:50" json:"chassis_number"`
	ExistingLender   string         `gorm:"size:100" json:"existing_lender"`
	CaseType         string         `gorm:"size:50" json:"case_type"`
	Financier        string         `gorm:"size:100" json:"financier"`
	Amount           float64        `json:"amount"`
	InterestRate     float64        `json:"interest_rate"`
	Tenure           int            `json:"tenure"`
	RCCollection     string         `gorm:"size:50" json:"rc_collection"`
	ChannelName      string         `gorm:"size:100" json:"channel_name"`
	ChannelCode      string         `gorm:"size:20;index" json:"channel_code"`
	DealingPerson    string         `gorm:"size:100" json:"dealing_person"`
	PDDStatus        string         `gorm:"size:20;default:'Pending'" json:"pdd_status"`
	Status           string         `gorm:"size:20;default:'pending';index" json:"status"`
	EmployeeName     string         `gorm:"size:100" json:"employee_name"`
	ManagerName      string         `gorm:"size:100" json:"manager_name"`
	DSAPartner       string         `gorm:"size:100" json:"dsa_partner"`
	WhoWeAre         string         `gorm:"size:30" json:"who_we_are"`
	DisbursementDate *time.Time     `json:"disbursement_date,omitempty"`
	CreatedBy        uint           `gorm:"index" json:"created_by,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}
