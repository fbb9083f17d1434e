package lead

import (
	"fmt"
	"strings"
	"time"

	"github.com/Kyz7/fincore/internal/access"
	"github.com/Kyz7/fincore/internal/models"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

var notesPolicy = bluemonday.StrictPolicy()

// SanitizeNotes removes all markup from free-text notes.
func SanitizeNotes(s string) string {
	return strings.TrimSpace(notesPolicy.Sanitize(s))
}

func newReference(kind models.LeadKind, now time.Time) string {
	prefix := "CC"
	if kind == models.LoanLead {
		prefix = "LN"
	}
	return fmt.Sprintf("%s%s%s", prefix, now.Format("060102"), strings.ToUpper(uuid.NewString()[:6]))
}

// ModuleFor is the module that gates leads of kind.
func ModuleFor(kind models.LeadKind) access.Module {
	if kind == models.LoanLead {
		return access.LoanDisbursement
	}
	return access.CreditCards
}

// VisibleKinds lists the lead kinds the session may see.
func VisibleKinds(s *access.Session) []models.LeadKind {
	var kinds []models.LeadKind
	for _, k := range []models.LeadKind{models.CardLead, models.LoanLead} {
		if s.Can(ModuleFor(k), access.View) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Scope restricts q to the leads the session may see. DSA partners only
// see leads they submitted.
func Scope(q *gorm.DB, s *access.Session) *gorm.DB {
	if s == nil {
		return q.Where("1 = 0")
	}
	q = q.Where("kind IN ?", VisibleKinds(s))
	if s.Role == access.DSAPartner {
		q = q.Where("submitted_by = ?", s.UserID)
	}
	return q
}

type Filter struct {
	Kind   string
	Status string
	Query  string
}

func List(db *gorm.DB, s *access.Session, f Filter, page, limit int) ([]models.Lead, int64, error) {
	var leads []models.Lead
	var total int64

	q := Scope(db.Model(&models.Lead{}), s)
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Query != "" {
		like := "%" + strings.ToLower(f.Query) + "%"
		q = q.Where("LOWER(applicant_name) LIKE ? OR applicant_phone LIKE ? OR LOWER(reference) LIKE ?", like, like, like)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Offset((page - 1) * limit).
		Limit(limit).
		Order("created_at DESC").
		Find(&leads).Error
	return leads, total, err
}

func Get(db *gorm.DB, s *access.Session, id int) (*models.Lead, error) {
	var l models.Lead
	if err := Scope(db, s).First(&l, id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}
