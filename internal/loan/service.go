package loan

import (
	"strings"
	"time"

	"github.com/Kyz7/fincore/internal/access"
	"github.com/Kyz7/fincore/internal/models"
	"gorm.io/gorm"
)

type request struct {
	ApplicantName    string              `json:"applicant_name" validate:"required,max=150"`
	MobileNumber     string              `json:"mobile_number" validate:"omitempty,len=10,numeric"`
	Category         models.LoanCategory `json:"category" validate:"required,oneof=car_loan used_car_loan personal_loan business_loan home_loan other"`
	RCNumber         string              `json:"rc_number" validate:"max=20"`
	EngineNumber     string              `json:"engine_number" validate:"max=50"`
	ChassisNumber    string              `json:"chassis_number" validate:"max=50"`
	ExistingLender   string              `json:"existing_lender"`
	CaseType         string              `json:"case_type"`
	Financier        string              `json:"financier"`
	Amount           float64             `json:"amount" validate:"min=0"`
	InterestRate     float64             `json:"interest_rate" validate:"min=0,max=100"`
	Tenure           int                 `json:"tenure" validate:"min=0,max=480"`
	RCCollection     string              `json:"rc_collection"`
	ChannelName      string              `json:"channel_name"`
	ChannelCode      string              `json:"channel_code"`
	DealingPerson    string              `json:"dealing_person"`
	PDDStatus        string              `json:"pdd_status" validate:"omitempty,oneof=Pending Completed N/A"`
	Status           string              `json:"status" validate:"omitempty,oneof=pending approved disbursed rejected"`
	EmployeeName     string              `json:"employee_name"`
	ManagerName      string              `json:"manager_name"`
	DSAPartner       string              `json:"dsa_partner"`
	WhoWeAre         string              `json:"who_we_are"`
	DisbursementDate *time.Time          `json:"disbursement_date"`
}

func fromModel(l *models.LoanDisbursement) request {
	return request{
		ApplicantName:    l.ApplicantName,
		MobileNumber:     l.MobileNumber,
		Category:         l.Category,
		RCNumber:         l.RCNumber,
		EngineNumber:     l.EngineNumber,
		ChassisNumber:    l.ChassisNumber,
		ExistingLender:   l.ExistingLender,
		CaseType:         l.CaseType,
		Financier:        l.Financier,
		Amount:           l.Amount,
		InterestRate:     l.InterestRate,
		Tenure:           l.Tenure,
		RCCollection:     l.RCCollection,
		ChannelName:      l.ChannelName,
		ChannelCode:      l.ChannelCode,
		DealingPerson:    l.DealingPerson,
		PDDStatus:        l.PDDStatus,
		Status:           l.Status,
		EmployeeName:     l.EmployeeName,
		ManagerName:      l.ManagerName,
		DSAPartner:       l.DSAPartner,
		WhoWeAre:         l.WhoWeAre,
		DisbursementDate: l.DisbursementDate,
	}
}

func (r request) apply(l *models.LoanDisbursement) {
	l.ApplicantName = strings.TrimSpace(r.ApplicantName)
	l.MobileNumber = r.MobileNumber
	l.Category = r.Category
	l.RCNumber = strings.ToUpper(strings.ReplaceAll(r.RCNumber, " ", ""))
	l.EngineNumber = r.EngineNumber
	l.ChassisNumber = r.ChassisNumber
	l.ExistingLender = r.ExistingLender
	l.CaseType = r.CaseType
	l.Financier = r.Financier
	l.Amount = r.Amount
	l.InterestRate = r.InterestRate
	l.Tenure = r.Tenure
	l.RCCollection = r.RCCollection
	l.ChannelName = r.ChannelName
	l.ChannelCode = r.ChannelCode
	l.DealingPerson = r.DealingPerson
	l.PDDStatus = r.PDDStatus
	if l.PDDStatus == "" {
		l.PDDStatus = "Pending"
	}
	l.Status = r.Status
	if l.Status == "" {
		l.Status = models.LoanPending
	}
	l.EmployeeName = r.EmployeeName
	l.ManagerName = r.ManagerName
	l.DSAPartner = r.DSAPartner
	l.WhoWeAre = r.WhoWeAre
	l.DisbursementDate = r.DisbursementDate
}

type Filter struct {
	Status   string
	Category string
	Query    string
	// Columns limits which SearchColumns Query matches. Nil matches all.
	Columns []string
}

func (f Filter) apply(q *gorm.DB) *gorm.DB {
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Query != "" {
		columns := f.Columns
		if columns == nil {
			columns = SearchColumns
		}
		if len(columns) == 0 {
			return q.Where("1 = 0")
		}

		like := "%" + strings.ToLower(f.Query) + "%"
		clauses := make([]string, 0, len(columns))
		args := make([]interface{}, 0, len(columns))
		for _, col := range columns {
			clauses = append(clauses, "LOWER("+col+") LIKE ?")
			args = append(args, like)
		}
		q = q.Where(strings.Join(clauses, " OR "), args...)
	}
	return q
}

// SearchableColumns returns the SearchColumns whose field the session may
// view.
func SearchableColumns(s *access.Session) []string {
	out := make([]string, 0, len(SearchColumns))
	for _, col := range SearchColumns {
		if s.CanViewField(FieldNames[col]) {
			out = append(out, col)
		}
	}
	return out
}

func List(db *gorm.DB, f Filter, page, limit int) ([]models.LoanDisbursement, int64, error) {
	var loans []models.LoanDisbursement
	var total int64

	q := f.apply(db.Model(&models.LoanDisbursement{}))
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Offset((page - 1) * limit).
		Limit(limit).
		Order("created_at DESC").
		Find(&loans).Error
	return loans, total, err
}

type Summary struct {
	Status string   `json:"status"`
	Count  int64    `json:"count"`
	Amount *float64 `json:"amount,omitempty"`
}

// Summarize totals loan count per status, and the amount when withAmount
// is set.
func Summarize(db *gorm.DB, withAmount bool) ([]Summary, error) {
	cols := "status, COUNT(*) AS count"
	if withAmount {
		cols += ", COALESCE(SUM(amount), 0) AS amount"
	}

	var out []Summary
	err := db.Model(&models.LoanDisbursement{}).
		Select(cols).
		Group("status").
		Order("status ASC").
		Scan(&out).Error
	return out, err
}
