package models

import (
	"time"

	"github.com/Kyz7/fincore/internal/access"
	"gorm.io/gorm"
)

type User struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	Name              string         `gorm:"size:100" json:"name"`
	Mobile            string         `gorm:"size:10;uniqueIndex" json:"mobile"`
	Email             string         `gorm:"size:100;index" json:"email,omitempty"`
	MPIN              string         `gorm:"size:255" json:"-"`
	Role              access.Role    `gorm:"size:30;index;default:'employee'" json:"role"`
	EmployeeType      string         `gorm:"size:20" json:"employee_type"`
	ChannelCode       string         `gorm:"size:20;index" json:"channel_code"`
	PAN               string         `gorm:"size:10" json:"pan,omitempty"`
	DOB               string         `gorm:"size:20" json:"dob,omitempty"`
	Aadhaar           string         `gorm:"size:12" json:"-"`
	AadhaarName       string         `gorm:"size:100" json:"aadhaar_name,omitempty"`
	AadhaarAddress    string         `gorm:"size:500" json:"aadhaar_address,omitempty"`
	AadhaarFatherName string         `gorm:"size:100" json:"aadhaar_father_name,omitempty"`
	BankAccount       string         `gorm:"size:30" json:"-"`
	IFSC              string         `gorm:"size:11" json:"ifsc,omitempty"`
	Status            string         `gorm:"size:20;default:'active'" json:"status"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) RoleLabel() string {
	return u.Role.Label()
}

func (u *User) Active() bool {
	return u.Status == "" || u.Status == "active"
}
