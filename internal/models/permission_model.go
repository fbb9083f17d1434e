package models

import (
	"time"

	"github.com/Kyz7/fincore/internal/access"
)

// RolePermission is one cell row of the role permission matrix.
type RolePermission struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	Role      access.Role   `gorm:"size:30;uniqueIndex:idx_role_module" json:"role"`
	Module    access.Module `gorm:"size:30;uniqueIndex:idx_role_module" json:"module"`
	View      bool          `json:"view"`
	Edit      bool          `json:"edit"`
	Add       bool          `json:"add"`
	Delete    bool          `json:"delete"`
	UpdatedBy uint          `json:"updated_by,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (rp RolePermission) Permission() access.Permission {
	return access.Permission{View: rp.View, Edit: rp.Edit, Add: rp.Add, Delete: rp.Delete}
}

type ModuleAccess struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"uniqueIndex" json:"user_id"`
	CreditCards      bool      `json:"credit_cards"`
	LoanDisbursement bool      `json:"loan_disbursement"`
	UpdatedBy        uint      `json:"updated_by,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (m ModuleAccess) Access() access.ModuleAccess {
	return access.ModuleAccess{CreditCards: m.CreditCards, LoanDisbursement: m.LoanDisbursement}
}

type FieldPermission struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_user_field" json:"user_id"`
	Field     string    `gorm:"size:50;uniqueIndex:idx_user_field" json:"field"`
	View      bool      `json:"view"`
	Edit      bool      `json:"edit"`
	UpdatedBy uint      `json:"updated_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
