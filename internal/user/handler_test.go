package user_test

import (
	"fmt"
	"testing"

	"github.com/Kyz7/fincore/internal/access"
	"github.com/Kyz7/fincore/internal/models"
	"github.com/Kyz7/fincore/internal/testutils"
	"github.com/Kyz7/fincore/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ========== USER TESTS ==========

func TestListUsersHandler(t *testing.T) {
	app := testutils.SetupTestApp(t)

	admin := testutils.CreateTestUser(t, app.DB, "9840000001", "1234", access.Admin, testutils.AllModules)
	token := testutils.GetAuthToken(t, admin.ID, admin.Role)
	testutils.CreateTestUser(t, app.DB, "9840000002", "1234", access.DSAPartner, testutils.AllModules)
	testutils.CreateTestUser(t, app.DB, "9840000003", "1234", access.DSAPartner, access.ModuleAccess{})

	t.Run("Success - List all users", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "GET", "/users", nil, token)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		assert.Equal(t, int64(3), result.Meta.Total)
	})

	t.Run("Success - Filter by role", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "GET", "/users?role=dsa_partner", nil, token)
		assert.NoError(t, err)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		assert.Equal(t, int64(2), result.Meta.Total)

		first := result.Data.([]interface{})[0].(map[string]interface{})
		assert.Equal(t, "DSA Partner", first["role_label"])
		assert.NotContains(t, first, "mpin")
	})

	t.Run("Success - Search by mobile", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "GET", "/users?q=9840000003", nil, token)
		assert.NoError(t, err)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		assert.Equal(t, int64(1), result.Meta.Total)
	})
}

func TestGetUserHandler(t *testing.T) {
	app := testutils.SetupTestApp(t)

	admin := testutils.CreateTestUser(t, app.DB, "9840000011", "1234", access.SuperAdmin, testutils.AllModules)
	token := testutils.GetAuthToken(t, admin.ID, admin.Role)
	target := testutils.CreateTestUser(t, app.DB, "9840000012", "1234", access.Employee,
		access.ModuleAccess{LoanDisbursement: true})

	t.Run("Success - User with modules", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "GET", fmt.Sprintf("/users/%d", target.ID), nil, token)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		data := result.Data.(map[string]interface{})
		modules := data["modules"].(map[string]interface{})
		assert.Equal(t, false, modules["creditCards"])
		assert.Equal(t, true, modules["loanDisbursement"])
		assert.Equal(t, "Employee", data["user"].(map[string]interface{})["role_label"])
	})

	t.Run("Error - User not found", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "GET", "/users/99999", nil, token)
		assert.NoError(t, err)
		assert.Equal(t, 404, resp.Code)
		testutils.AssertError(t, resp, "NOT_FOUND")
	})
}

func TestUpdateRoleHandler(t *testing.T) {
	app := testutils.SetupTestApp(t)

	owner := testutils.CreateTestUser(t, app.DB, "9840000021", "1234", access.SuperAdmin, testutils.AllModules)
	ownerToken := testutils.GetAuthToken(t, owner.ID, owner.Role)
	admin := testutils.CreateTestUser(t, app.DB, "9840000022", "1234", access.Admin, testutils.AllModules)
	adminToken := testutils.GetAuthToken(t, admin.ID, admin.Role)
	target := testutils.CreateTestUser(t, app.DB, "9840000023", "1234", access.Employee, testutils.AllModules)
	targetToken := testutils.GetAuthToken(t, target.ID, target.Role)

	t.Run("Success - Admin promotes employee", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "PUT", fmt.Sprintf("/users/%d/role", target.ID),
			map[string]string{"role": "team_leader"}, adminToken)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		var u models.User
		require.NoError(t, app.DB.First(&u, target.ID).Error)
		assert.Equal(t, access.TeamLeader, u.Role)

		var n models.Notification
		require.NoError(t, app.DB.Where("user_id = ?", target.ID).First(&n).Error)
		assert.Equal(t, "Role updated", n.Title)
	})

	t.Run("Success - New role applies to the next request", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "GET", "/me/access", nil, targetToken)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		session := result.Data.(map[string]interface{})["session"].(map[string]interface{})
		assert.Equal(t, "team_leader", session["role"])
	})

	t.Run("Error - Admin cannot grant super admin", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "PUT", fmt.Sprintf("/users/%d/role", target.ID),
			map[string]string{"role": "super_admin"}, adminToken)
		assert.NoError(t, err)
		assert.Equal(t, 403, resp.Code)
	})

	t.Run("Error - Admin cannot demote super admin", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "PUT", fmt.Sprintf("/users/%d/role", owner.ID),
			map[string]string{"role": "employee"}, adminToken)
		assert.NoError(t, err)
		assert.Equal(t, 403, resp.Code)
	})

	t.Run("Success - Super admin grants admin", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "PUT", fmt.Sprintf("/users/%d/role", target.ID),
			map[string]string{"role": "admin"}, ownerToken)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)
	})

	t.Run("Error - Unknown role", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "PUT", fmt.Sprintf("/users/%d/role", target.ID),
			map[string]string{"role": "editor"}, ownerToken)
		assert.NoError(t, err)
		assert.Equal(t, 422, resp.Code)
		testutils.AssertError(t, resp, "VALIDATION_ERROR")
	})
}

func TestUserStatusHandlers(t *testing.T) {
	app := testutils.SetupTestApp(t)

	admin := testutils.CreateTestUser(t, app.DB, "9840000031", "1234", access.Admin, testutils.AllModules)
	adminToken := testutils.GetAuthToken(t, admin.ID, admin.Role)
	owner := testutils.CreateTestUser(t, app.DB, "9840000032", "1234", access.SuperAdmin, testutils.AllModules)
	target := testutils.CreateTestUser(t, app.DB, "9840000033", "1234", access.DSAPartner, testutils.AllModules)

	t.Run("Success - Deactivate revokes sessions", func(t *testing.T) {
		refresh, err := utils.GenerateRefreshToken(target.ID)
		require.NoError(t, err)

		resp, err := testutils.MakeRequest(app.App, "POST", fmt.Sprintf("/users/%d/deactivate", target.ID), nil, adminToken)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		resp, err = testutils.MakeRequest(app.App, "POST", "/auth/refresh",
			map[string]interface{}{"user_id": target.ID, "refresh_token": refresh}, "")
		assert.NoError(t, err)
		assert.Equal(t, 401, resp.Code)

		resp, err = testutils.MakeRequest(app.App, "POST", "/auth/signin",
			map[string]string{"identifier": target.Mobile, "mpin": "1234"}, "")
		assert.NoError(t, err)
		assert.Equal(t, 403, resp.Code)
	})

	t.Run("Success - Activate", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "POST", fmt.Sprintf("/users/%d/activate", target.ID), nil, adminToken)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		resp, err = testutils.MakeRequest(app.App, "POST", "/auth/signin",
			map[string]string{"identifier": target.Mobile, "mpin": "1234"}, "")
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)
	})

	t.Run("Error - Cannot deactivate self", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "POST", fmt.Sprintf("/users/%d/deactivate", admin.ID), nil, adminToken)
		assert.NoError(t, err)
		assert.Equal(t, 400, resp.Code)
	})

	t.Run("Error - Admin cannot deactivate super admin", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "POST", fmt.Sprintf("/users/%d/deactivate", owner.ID), nil, adminToken)
		assert.NoError(t, err)
		assert.Equal(t, 403, resp.Code)
	})

	t.Run("Error - Non administrators are refused", func(t *testing.T) {
		token := testutils.GetAuthToken(t, target.ID, target.Role)
		resp, err := testutils.MakeRequest(app.App, "GET", "/users", nil, token)
		assert.NoError(t, err)
		assert.Equal(t, 403, resp.Code)
	})
}
