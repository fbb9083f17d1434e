package lead_test

import (
	"fmt"
	"testing"

	"github.com/Kyz7/fincore/internal/access"
	"github.com/Kyz7/fincore/internal/lead"
	"github.com/Kyz7/fincore/internal/models"
	"github.com/Kyz7/fincore/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createLead(t *testing.T, app *testutils.TestApp, token string, body map[string]interface{}) models.Lead {
	resp, err := testutils.MakeRequest(app.App, "POST", "/leads", body, token)
	require.NoError(t, err)
	require.Equal(t, 201, resp.Code)

	var result testutils.StandardResponse
	testutils.ParseResponse(t, resp, &result)
	id := uint(result.Data.(map[string]interface{})["id"].(float64))

	var l models.Lead
	require.NoError(t, app.DB.First(&l, id).Error)
	return l
}

func listLeads(t *testing.T, app *testutils.TestApp, url, token string) (int, int64) {
	resp, err := testutils.MakeRequest(app.App, "GET", url, nil, token)
	require.NoError(t, err)

	var result testutils.StandardResponse
	testutils.ParseResponse(t, resp, &result)
	if result.Meta == nil {
		return resp.Code, 0
	}
	return resp.Code, result.Meta.Total
}

func TestSanitizeNotes(t *testing.T) {
	assert.Equal(t, "call after 5", lead.SanitizeNotes(" <b>call</b> after 5<script>x()</script> "))
}

func TestLeadHandlers(t *testing.T) {
	app := testutils.SetupTestApp(t)

	admin := testutils.CreateTestUser(t, app.DB, "9820000001", "1234", access.SuperAdmin, testutils.AllModules)
	partnerA := testutils.CreateTestUser(t, app.DB, "9820000002", "1234", access.DSAPartner, testutils.AllModules)
	partnerB := testutils.CreateTestUser(t, app.DB, "9820000003", "1234", access.DSAPartner, testutils.AllModules)
	cardsOnly := testutils.CreateTestUser(t, app.DB, "9820000004", "1234", access.Employee,
		access.ModuleAccess{CreditCards: true})
	loansOnly := testutils.CreateTestUser(t, app.DB, "9820000005", "1234", access.Employee,
		access.ModuleAccess{LoanDisbursement: true})
	nothing := testutils.CreateTestUser(t, app.DB, "9820000006", "1234", access.Employee, access.ModuleAccess{})

	partnerAToken := testutils.GetAuthToken(t, partnerA.ID, partnerA.Role)
	partnerBToken := testutils.GetAuthToken(t, partnerB.ID, partnerB.Role)
	cardsOnlyToken := testutils.GetAuthToken(t, cardsOnly.ID, cardsOnly.Role)
	loansOnlyToken := testutils.GetAuthToken(t, loansOnly.ID, loansOnly.Role)
	nothingToken := testutils.GetAuthToken(t, nothing.ID, nothing.Role)

	card := models.CreditCard{Name: "Regalia Gold", Bank: "HDFC Bank", Status: "active", CreatedBy: admin.ID}
	require.NoError(t, app.DB.Create(&card).Error)

	var cardLead, loanLead models.Lead

	t.Run("Success - Card lead copies card details", func(t *testing.T) {
		cardLead = createLead(t, app, partnerAToken, map[string]interface{}{
			"kind":            "credit_card",
			"applicant_name":  "Neha Kulkarni",
			"applicant_email": "Neha@Example.com",
			"applicant_phone": "9000000001",
			"credit_card_id":  card.ID,
			"notes":           "<b>Prefers</b> evening calls",
		})

		assert.Equal(t, "Regalia Gold", cardLead.CardName)
		assert.Equal(t, "HDFC Bank", cardLead.BankName)
		assert.Equal(t, "neha@example.com", cardLead.ApplicantEmail)
		assert.Equal(t, "Prefers evening calls", cardLead.Notes)
		assert.Equal(t, "new", cardLead.Status)
		assert.Equal(t, partnerA.ID, cardLead.SubmittedBy)
		assert.Regexp(t, `^CC\d{6}[0-9A-F]{6}$`, cardLead.Reference)

		var count int64
		app.DB.Model(&models.Notification{}).Where("user_id = ?", admin.ID).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("Success - Loan lead", func(t *testing.T) {
		loanLead = createLead(t, app, partnerAToken, map[string]interface{}{
			"kind":            "loan",
			"applicant_name":  "Arjun Menon",
			"applicant_phone": "9000000002",
			"loan_type":       "personal_loan",
			"loan_amount":     250000,
		})

		assert.Equal(t, models.PersonalLoan, loanLead.LoanType)
		assert.Regexp(t, `^LN`, loanLead.Reference)
	})

	t.Run("Error - Missing card for card lead", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "POST", "/leads", map[string]interface{}{
			"kind":            "credit_card",
			"applicant_name":  "No Card",
			"applicant_phone": "9000000003",
		}, partnerAToken)
		assert.NoError(t, err)
		assert.Equal(t, 422, resp.Code)
	})

	t.Run("Error - Missing loan type for loan lead", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "POST", "/leads", map[string]interface{}{
			"kind":            "loan",
			"applicant_name":  "No Type",
			"applicant_phone": "9000000004",
		}, partnerAToken)
		assert.NoError(t, err)
		assert.Equal(t, 422, resp.Code)
	})

	t.Run("Success - Partners only see their own leads", func(t *testing.T) {
		code, total := listLeads(t, app, "/leads", partnerAToken)
		assert.Equal(t, 200, code)
		assert.Equal(t, int64(2), total)

		code, total = listLeads(t, app, "/leads", partnerBToken)
		assert.Equal(t, 200, code)
		assert.Equal(t, int64(0), total)

		resp, err := testutils.MakeRequest(app.App, "GET", fmt.Sprintf("/leads/%d", cardLead.ID), nil, partnerBToken)
		assert.NoError(t, err)
		assert.Equal(t, 404, resp.Code)
	})

	t.Run("Success - Leads follow module access", func(t *testing.T) {
		_, total := listLeads(t, app, "/leads", cardsOnlyToken)
		assert.Equal(t, int64(1), total)

		_, total = listLeads(t, app, "/leads?q=arjun", loansOnlyToken)
		assert.Equal(t, int64(1), total)

		resp, err := testutils.MakeRequest(app.App, "GET", fmt.Sprintf("/leads/%d", loanLead.ID), nil, cardsOnlyToken)
		assert.NoError(t, err)
		assert.Equal(t, 404, resp.Code)
	})

	t.Run("Error - No module access", func(t *testing.T) {
		code, _ := listLeads(t, app, "/leads", nothingToken)
		assert.Equal(t, 403, code)

		resp, err := testutils.MakeRequest(app.App, "POST", "/leads", map[string]interface{}{
			"kind":            "loan",
			"applicant_name":  "Blocked",
			"applicant_phone": "9000000005",
			"loan_type":       "car_loan",
		}, nothingToken)
		assert.NoError(t, err)
		assert.Equal(t, 403, resp.Code)
	})

	t.Run("Success - Update status notifies the submitter", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "PUT", fmt.Sprintf("/leads/%d/status", loanLead.ID),
			map[string]string{"status": "contacted", "notes": "<i>Called</i> once"}, loansOnlyToken)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		var l models.Lead
		require.NoError(t, app.DB.First(&l, loanLead.ID).Error)
		assert.Equal(t, "contacted", l.Status)
		assert.Equal(t, "Called once", l.Notes)

		var count int64
		app.DB.Model(&models.Notification{}).Where("user_id = ?", partnerA.ID).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("Error - View only partner cannot update status", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "PUT", fmt.Sprintf("/leads/%d/status", cardLead.ID),
			map[string]string{"status": "approved"}, partnerAToken)
		assert.NoError(t, err)
		assert.Equal(t, 403, resp.Code)
	})

	t.Run("Error - Skipping a status is refused", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "PUT", fmt.Sprintf("/leads/%d/status", loanLead.ID),
			map[string]string{"status": "approved"}, loansOnlyToken)
		assert.NoError(t, err)
		assert.Equal(t, 409, resp.Code)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		require.NotNil(t, result.Error)
		assert.Equal(t, "INVALID_TRANSITION", result.Error.Code)
		assert.Equal(t, []interface{}{"submitted", "rejected"},
			result.Error.Details.(map[string]interface{})["allowed"])
	})

	t.Run("Success - History records each change", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "GET", fmt.Sprintf("/leads/%d/history", loanLead.ID), nil, partnerAToken)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		data := result.Data.(map[string]interface{})
		assert.Equal(t, "contacted", data["status"])

		history := data["history"].([]interface{})
		require.Len(t, history, 1)
		entry := history[0].(map[string]interface{})
		assert.Equal(t, "new", entry["from_status"])
		assert.Equal(t, "contacted", entry["to_status"])
		assert.Equal(t, float64(loansOnly.ID), entry["changed_by"])
	})

	t.Run("Success - Stats are scoped", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "GET", "/leads/stats", nil, partnerAToken)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		stats := result.Data.(map[string]interface{})
		assert.Equal(t, float64(2), stats["total"])
		assert.Equal(t, float64(1), stats["new"])
		assert.Equal(t, float64(1), stats["contacted"])
		assert.Equal(t, float64(0), stats["approved"])

		resp, err = testutils.MakeRequest(app.App, "GET", "/leads/stats", nil, partnerBToken)
		assert.NoError(t, err)
		testutils.ParseResponse(t, resp, &result)
		assert.Equal(t, float64(0), result.Data.(map[string]interface{})["total"])
	})

	t.Run("Error - Unknown status", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "PUT", fmt.Sprintf("/leads/%d/status", loanLead.ID),
			map[string]string{"status": "closed"}, loansOnlyToken)
		assert.NoError(t, err)
		assert.Equal(t, 422, resp.Code)
	})
}
