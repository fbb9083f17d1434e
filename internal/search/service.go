package search

import (
	"strings"
	"time"

	"github.com/Kyz7/fincore/internal/access"
	"github.com/Kyz7/fincore/internal/lead"
	"github.com/Kyz7/fincore/internal/loan"
	"github.com/Kyz7/fincore/internal/models"
	"gorm.io/gorm"
)

const (
	KindCards = "credit_cards"
	KindLoans = "loans"
	KindLeads = "leads"
)

var Kinds = []string{KindCards, KindLoans, KindLeads}

type Params struct {
	Query    string
	Kinds    []string
	FromDate string
	ToDate   string
	Limit    int
}

type Result struct {
	Query       string                   `json:"query"`
	CreditCards []models.CreditCard      `json:"credit_cards"`
	Loans       []map[string]interface{} `json:"loans"`
	Leads       []models.Lead            `json:"leads"`
	Facets      map[string]int64         `json:"facets"`
}

// loanColumns maps searchable loan columns to their managed field.
var loanColumns = []struct {
	column, field string
}{
	{"applicant_name", "Customer Name"},
	{"mobile_number", "Mobile Number"},
	{"rc_number", "RC Number"},
	{"chassis_number", "Chassis Number"},
	{"channel_code", "Channel Code"},
	{"financier", "Financier"},
}

// Search runs q across every module the session can view. Loan columns the
// session cannot view are not searched.
func Search(db *gorm.DB, s *access.Session, p Params) (*Result, error) {
	if p.Limit <= 0 {
		p.Limit = 10
	}
	if p.Limit > 50 {
		p.Limit = 50
	}
	want := wanted(p.Kinds)

	res := &Result{
		Query:       p.Query,
		CreditCards: []models.CreditCard{},
		Loans:       []map[string]interface{}{},
		Leads:       []models.Lead{},
		Facets:      map[string]int64{},
	}

	if want[KindCards] && s.Can(access.CreditCards, access.View) {
		q := match(db.Model(&models.CreditCard{}), p.Query, "name", "bank", "category")
		q = dateRange(q, p)
		if err := run(q, p.Limit, &res.CreditCards, res.Facets, KindCards); err != nil {
			return nil, err
		}
	}

	if want[KindLoans] && s.Can(access.LoanDisbursement, access.View) {
		var columns []string
		for _, c := range loanColumns {
			if s.CanViewField(c.field) {
				columns = append(columns, c.column)
			}
		}
		if len(columns) > 0 {
			var loans []models.LoanDisbursement
			q := dateRange(match(db.Model(&models.LoanDisbursement{}), p.Query, columns...), p)
			if err := run(q, p.Limit, &loans, res.Facets, KindLoans); err != nil {
				return nil, err
			}
			for i := range loans {
				v, err := loan.View(s, &loans[i])
				if err != nil {
					return nil, err
				}
				res.Loans = append(res.Loans, v)
			}
		}
	}

	if want[KindLeads] && len(lead.VisibleKinds(s)) > 0 {
		q := lead.Scope(db.Model(&models.Lead{}), s)
		q = dateRange(match(q, p.Query, "applicant_name", "applicant_phone", "reference", "card_name"), p)
		if err := run(q, p.Limit, &res.Leads, res.Facets, KindLeads); err != nil {
			return nil, err
		}
	}

	return res, nil
}

func wanted(kinds []string) map[string]bool {
	out := make(map[string]bool, len(Kinds))
	if len(kinds) == 0 {
		kinds = Kinds
	}
	for _, k := range kinds {
		out[strings.TrimSpace(k)] = true
	}
	return out
}

func run(q *gorm.DB, limit int, dest interface{}, facets map[string]int64, kind string) error {
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return err
	}
	facets[kind] = total
	if total == 0 {
		return nil
	}
	return q.Order("created_at DESC").Limit(limit).Find(dest).Error
}

// match ORs a substring match over columns. Postgres uses ILIKE; other
// dialects compare lower-cased values.
func match(q *gorm.DB, term string, columns ...string) *gorm.DB {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return q
	}

	pattern := "%" + strings.ToLower(term) + "%"
	op := "LOWER(%s) LIKE ?"
	if q.Dialector.Name() == "postgres" {
		op = "%s ILIKE ?"
	}

	conds := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, c := range columns {
		conds[i] = strings.Replace(op, "%s", c, 1)
		args[i] = pattern
	}
	return q.Where("("+strings.Join(conds, " OR ")+")", args...)
}

func dateRange(q *gorm.DB, p Params) *gorm.DB {
	if p.FromDate != "" {
		if from, err := time.Parse("2006-01-02", p.FromDate); err == nil {
			q = q.Where("created_at >= ?", from)
		}
	}
	if p.ToDate != "" {
		if to, err := time.Parse("2006-01-02", p.ToDate); err == nil {
			q = q.Where("created_at < ?", to.Add(24*time.Hour))
		}
	}
	return q
}
