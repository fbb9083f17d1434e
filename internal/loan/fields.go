package loan

import (
	"encoding/json"
	"reflect"

	"github.com/Kyz7/fincore/internal/models"
)

// FieldNames maps loan JSON keys to the field names used by field
// permissions.
var FieldNames = map[string]string{
	"applicant_name":    "Customer Name",
	"mobile_number":     "Mobile Number",
	"rc_number":         "RC Number",
	"engine_number":     "Engine Number",
	"chassis_number":    "Chassis Number",
	"existing_lender":   "Existing Lender",
	"case_type":         "Case Type",
	"financier":         "Financier",
	"amount":            "Loan Amount",
	"interest_rate":     "Interest Rate",
	"tenure":            "Tenure (Months)",
	"rc_collection":     "RC Collection",
	"channel_name":      "Channel Name",
	"disbursement_date": "Disbursed Date",
	"dealing_person":    "Dealing Person",
	"channel_code":      "Channel Code",
	"pdd_status":        "PDD Status",
}

// SearchColumns are the columns matched by the list query filter.
var SearchColumns = []string{"applicant_name", "rc_number", "mobile_number", "channel_code"}

// Changes returns the managed keys whose encoded value differs between
// before and after, mapped to the new value.
func Changes(before, after *models.LoanDisbursement) (map[string]interface{}, error) {
	old, err := toMap(before)
	if err != nil {
		return nil, err
	}
	updated, err := toMap(after)
	if err != nil {
		return nil, err
	}

	out := make(map[string]interface{})
	for key := range FieldNames {
		if !reflect.DeepEqual(old[key], updated[key]) {
			out[key] = updated[key]
		}
	}
	return out, nil
}

func toMap(l *models.LoanDisbursement) (map[string]interface{}, error) {
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
