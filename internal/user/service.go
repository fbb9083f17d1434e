package user

import (
	"errors"
	"regexp"
	"strings"

	"github.com/Kyz7/fincore/internal/access"
	"github.com/Kyz7/fincore/internal/models"
	"github.com/Kyz7/fincore/internal/permission"
	"github.com/Kyz7/fincore/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrProtectedUser = errors.New("only a super admin can change a super admin")
	ErrInvalidMPIN   = errors.New("MPIN must be 4 digits")
)

var mpinPattern = regexp.MustCompile(`^[0-9]{4}$`)

type Filter struct {
	Role   string
	Status string
	Query  string
}

func ListUsers(db *gorm.DB, f Filter, page, limit int) ([]models.User, int64, error) {
	var users []models.User
	var total int64

	q := db.Model(&models.User{})
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Query != "" {
		like := "%" + strings.ToLower(f.Query) + "%"
		q = q.Where("LOWER(name) LIKE ? OR mobile LIKE ? OR LOWER(email) LIKE ? OR LOWER(channel_code) LIKE ?",
			like, like, like, like)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Offset((page - 1) * limit).
		Limit(limit).
		Order("created_at DESC").
		Find(&users).Error
	return users, total, err
}

// canManage reports whether actor may change target's role or status.
func canManage(actor access.Role, target, newRole access.Role) bool {
	if actor == access.SuperAdmin {
		return true
	}
	return target != access.SuperAdmin && newRole != access.SuperAdmin
}

func AssignRole(db *gorm.DB, actor access.Role, userID uint, role access.Role) (*models.User, error) {
	var u models.User
	if err := db.First(&u, userID).Error; err != nil {
		return nil, err
	}
	if !canManage(actor, u.Role, role) {
		return nil, ErrProtectedUser
	}

	u.Role = role
	if err := db.Model(&u).Update("role", role).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// SetStatus activates or deactivates a user. Deactivation revokes the
// user's refresh tokens.
func SetStatus(db *gorm.DB, actor access.Role, userID uint, active bool) (*models.User, error) {
	var u models.User
	if err := db.First(&u, userID).Error; err != nil {
		return nil, err
	}
	if !canManage(actor, u.Role, u.Role) {
		return nil, ErrProtectedUser
	}

	u.Status = "active"
	if !active {
		u.Status = "inactive"
	}
	if err := db.Model(&u).Update("status", u.Status).Error; err != nil {
		return nil, err
	}
	if !active {
		if err := utils.RevokeRefreshTokens(u.ID); err != nil {
			return nil, err
		}
	}
	return &u, nil
}

// EnsureSuperAdmin provisions the first super admin with the ADMIN
// employee type. It does nothing when a super admin already exists or when
// mobile is empty. The created flag reports whether an account was made.
func EnsureSuperAdmin(db *gorm.DB, name, mobile, mpin string) (bool, error) {
	if mobile == "" {
		return false, nil
	}

	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", access.SuperAdmin).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if !mpinPattern.MatchString(mpin) {
		return false, ErrInvalidMPIN
	}

	hash, err := utils.HashMPIN(mpin)
	if err != nil {
		return false, err
	}

	u := models.User{
		Name:         name,
		Mobile:       mobile,
		MPIN:         hash,
		Role:         access.RoleFromEmployeeType("ADMIN"),
		EmployeeType: "ADMIN",
		Status:       "active",
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		all := access.ModuleAccess{CreditCards: true, LoanDisbursement: true}
		return permission.SaveModuleAccess(tx, u.ID, all, u.ID)
	})
	return err == nil, err
}
