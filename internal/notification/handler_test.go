package notification_test

import (
	"fmt"
	"testing"

	"github.com/Kyz7/fincore/internal/access"
	"github.com/Kyz7/fincore/internal/models"
	"github.com/Kyz7/fincore/internal/notification"
	"github.com/Kyz7/fincore/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unread(t *testing.T, app *testutils.TestApp, token string) float64 {
	resp, err := testutils.MakeRequest(app.App, "GET", "/notifications/unread-count", nil, token)
	require.NoError(t, err)
	require.Equal(t, 200, resp.Code)

	var result testutils.StandardResponse
	testutils.ParseResponse(t, resp, &result)
	return result.Data.(map[string]interface{})["unread"].(float64)
}

func TestNotificationHandlers(t *testing.T) {
	app := testutils.SetupTestApp(t)

	owner := testutils.CreateTestUser(t, app.DB, "9850000001", "1234", access.SuperAdmin, testutils.AllModules)
	admin := testutils.CreateTestUser(t, app.DB, "9850000002", "1234", access.Admin, testutils.AllModules)
	partner := testutils.CreateTestUser(t, app.DB, "9850000003", "1234", access.DSAPartner, testutils.AllModules)
	ownerToken := testutils.GetAuthToken(t, owner.ID, owner.Role)
	partnerToken := testutils.GetAuthToken(t, partner.ID, partner.Role)

	notification.NotifyAdministrators(app.DB, notification.TypeInfo, "New signup", "A partner joined.", "/users")
	notification.Notify(app.DB, owner.ID, notification.TypeWarning, "Heads up", "Check payouts.", "/payouts")
	notification.Notify(app.DB, partner.ID, notification.TypeSuccess, "Payout recorded", "Paid.", "/payouts")

	t.Run("Success - Administrators are notified", func(t *testing.T) {
		var count int64
		app.DB.Model(&models.Notification{}).Where("user_id = ?", admin.ID).Count(&count)
		assert.Equal(t, int64(1), count)
		assert.Equal(t, float64(2), unread(t, app, ownerToken))
	})

	t.Run("Success - List own notifications", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "GET", "/notifications", nil, partnerToken)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		items := result.Data.([]interface{})
		require.Len(t, items, 1)
		assert.Equal(t, "Payout recorded", items[0].(map[string]interface{})["title"])
	})

	t.Run("Success - Mark one as read", func(t *testing.T) {
		var n models.Notification
		require.NoError(t, app.DB.Where("user_id = ?", partner.ID).First(&n).Error)

		resp, err := testutils.MakeRequest(app.App, "PUT", fmt.Sprintf("/notifications/%d/read", n.ID), nil, partnerToken)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)
		assert.Equal(t, float64(0), unread(t, app, partnerToken))
	})

	t.Run("Error - Cannot read someone else's notification", func(t *testing.T) {
		var n models.Notification
		require.NoError(t, app.DB.Where("user_id = ?", owner.ID).First(&n).Error)

		resp, err := testutils.MakeRequest(app.App, "PUT", fmt.Sprintf("/notifications/%d/read", n.ID), nil, partnerToken)
		assert.NoError(t, err)
		assert.Equal(t, 404, resp.Code)
	})

	t.Run("Success - Mark all as read", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "PUT", "/notifications/read-all", nil, ownerToken)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		assert.Equal(t, float64(2), result.Data.(map[string]interface{})["updated"])
		assert.Equal(t, float64(0), unread(t, app, ownerToken))
	})

	t.Run("Error - Requires authentication", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "GET", "/notifications", nil, "")
		assert.NoError(t, err)
		assert.Equal(t, 401, resp.Code)
	})

	t.Run("Error - Deactivated account cannot read notifications", func(t *testing.T) {
		inactive := testutils.CreateTestUser(t, app.DB, "9850000004", "1234", access.Employee, testutils.AllModules)
		token := testutils.GetAuthToken(t, inactive.ID, inactive.Role)
		require.NoError(t, app.DB.Model(inactive).Update("status", "inactive").Error)

		resp, err := testutils.MakeRequest(app.App, "GET", "/notifications", nil, token)
		assert.NoError(t, err)
		assert.Equal(t, 403, resp.Code)
	})
}
