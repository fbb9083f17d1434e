package event_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Kyz7/fincore/internal/event"
	"github.com/Kyz7/fincore/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestDisabledPublisherRecordsEvent(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Event{}))

	p, err := event.NewPublisher("", db)
	require.NoError(t, err)
	defer p.Close()

	err = p.Publish(context.Background(), event.PermissionsChanged, event.PermissionsChangedData{
		Table:   "module_access",
		ActorID: 1,
		UserID:  7,
		Module:  "creditCards",
	})
	require.NoError(t, err)

	var rows []models.Event
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "permissions.changed", rows[0].Name)
	assert.False(t, rows[0].Published)

	var env struct {
		Type string                       `json:"type"`
		Data event.PermissionsChangedData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rows[0].Payload, &env))
	assert.Equal(t, "permissions.changed", env.Type)
	assert.Equal(t, uint(7), env.Data.UserID)
}

func TestDisabledPublisherWithoutDatabase(t *testing.T) {
	p, err := event.NewPublisher("", nil)
	require.NoError(t, err)
	assert.NoError(t, p.Publish(context.Background(), event.UserSignedUp, event.UserSignedUpData{UserID: 1}))
	assert.NoError(t, p.Close())
}
