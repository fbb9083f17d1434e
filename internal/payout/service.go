package payout

import (
	"github.com/Kyz7/fincore/internal/access"
	"github.com/Kyz7/fincore/internal/models"
	"gorm.io/gorm"
)

// Scope limits non-administrators to their own payouts.
func Scope(q *gorm.DB, u *models.User) *gorm.DB {
	if u == nil {
		return q.Where("1 = 0")
	}
	if access.IsAdministrator(u.Role) {
		return q
	}
	return q.Where("user_id = ?", u.ID)
}

type Filter struct {
	UserID uint
	Status string
}

func List(db *gorm.DB, u *models.User, f Filter, page, limit int) ([]models.Payout, int64, error) {
	var payouts []models.Payout
	var total int64

	q := Scope(db.Model(&models.Payout{}), u)
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("payout_status = ?", f.Status)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Offset((page - 1) * limit).
		Limit(limit).
		Order("created_at DESC").
		Find(&payouts).Error
	return payouts, total, err
}

type Totals struct {
	Commission  float64 `json:"commission"`
	Deduction   float64 `json:"deduction"`
	NetPayout   float64 `json:"net_payout"`
	TeamEarning float64 `json:"team_earning"`
	Count       int64   `json:"count"`
}

func Summarize(db *gorm.DB, u *models.User) (Totals, error) {
	var t Totals
	err := Scope(db.Model(&models.Payout{}), u).
		Select("COALESCE(SUM(commission), 0) AS commission, " +
			"COALESCE(SUM(deduction), 0) AS deduction, " +
			"COALESCE(SUM(net_payout), 0) AS net_payout, " +
			"COALESCE(SUM(team_earning), 0) AS team_earning, " +
			"COUNT(*) AS count").
		Scan(&t).Error
	return t, err
}
