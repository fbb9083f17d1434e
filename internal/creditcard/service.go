package creditcard

import (
	"encoding/json"
	"strings"

	"github.com/Kyz7/fincore/internal/models"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var termsPolicy = bluemonday.UGCPolicy()

// SanitizeTerms strips scripts and unsafe attributes from card terms while
// keeping basic formatting.
func SanitizeTerms(html string) string {
	return strings.TrimSpace(termsPolicy.Sanitize(html))
}

func jsonList(items []string) datatypes.JSON {
	clean := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			clean = append(clean, it)
		}
	}
	b, _ := json.Marshal(clean)
	return datatypes.JSON(b)
}

type Filter struct {
	Status string
	Bank   string
	Query  string
}

func (f Filter) apply(q *gorm.DB) *gorm.DB {
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Bank != "" {
		q = q.Where("bank = ?", f.Bank)
	}
	if f.Query != "" {
		like := "%" + strings.ToLower(f.Query) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(bank) LIKE ? OR LOWER(category) LIKE ?", like, like, like)
	}
	return q
}

func List(db *gorm.DB, f Filter, page, limit int) ([]models.CreditCard, int64, error) {
	var cards []models.CreditCard
	var total int64

	q := f.apply(db.Model(&models.CreditCard{}))
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Offset((page - 1) * limit).
		Limit(limit).
		Order("created_at DESC").
		Find(&cards).Error
	return cards, total, err
}

// Banks lists the distinct banks that have at least one card.
func Banks(db *gorm.DB) ([]string, error) {
	var banks []string
	err := db.Model(&models.CreditCard{}).Distinct("bank").Order("bank ASC").Pluck("bank", &banks).Error
	return banks, err
}
