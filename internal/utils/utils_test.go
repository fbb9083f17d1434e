package utils_test

import (
	"testing"
	"time"

	"github.com/Kyz7/fincore/internal/access"
	"github.com/Kyz7/fincore/internal/database"
	"github.com/Kyz7/fincore/internal/models"
	"github.com/Kyz7/fincore/internal/testutils"
	"github.com/Kyz7/fincore/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWT(t *testing.T) {
	t.Run("Success - Round trip", func(t *testing.T) {
		token, err := utils.GenerateJWT(42, access.TeamLeader)
		require.NoError(t, err)

		claims, err := utils.ParseJWT(token)
		require.NoError(t, err)
		assert.Equal(t, access.TeamLeader, claims.Role)

		id, err := claims.UserID()
		require.NoError(t, err)
		assert.Equal(t, uint(42), id)
		assert.WithinDuration(t, time.Now().Add(utils.AccessTokenTTL), claims.ExpiresAt.Time, 5*time.Second)
	})

	t.Run("Error - Tampered token", func(t *testing.T) {
		token, err := utils.GenerateJWT(1, access.Employee)
		require.NoError(t, err)

		_, err = utils.ParseJWT(token + "x")
		assert.Error(t, err)
	})

	t.Run("Error - Weak secrets", func(t *testing.T) {
		assert.Error(t, utils.ValidateJWTSecret(""))
		assert.Error(t, utils.ValidateJWTSecret("short"))
		assert.Error(t, utils.ValidateJWTSecret("test_secret_key_minimum_32_characters_long_for_testing_only"))
		assert.NoError(t, utils.ValidateJWTSecret("a-production-secret-that-is-long-enough-123"))
	})
}

func TestMPIN(t *testing.T) {
	hash, err := utils.HashMPIN("4821")
	require.NoError(t, err)

	assert.NotEqual(t, "4821", hash)
	assert.True(t, utils.CheckMPIN("4821", hash))
	assert.False(t, utils.CheckMPIN("4822", hash))
}

func TestRefreshTokens(t *testing.T) {
	database.DB = testutils.TestDB(t)
	user := testutils.CreateTestUser(t, database.DB, "9860000001", "1234", access.Employee, testutils.AllModules)

	t.Run("Success - Rotate", func(t *testing.T) {
		token, err := utils.GenerateRefreshToken(user.ID)
		require.NoError(t, err)

		accessToken, refresh, err := utils.RefreshTokenPair(user.ID, token)
		require.NoError(t, err)
		assert.NotEmpty(t, accessToken)
		assert.NotEqual(t, token, refresh)

		_, _, err = utils.RefreshTokenPair(user.ID, token)
		assert.Error(t, err)
	})

	t.Run("Error - Token of another user", func(t *testing.T) {
		token, err := utils.GenerateRefreshToken(user.ID)
		require.NoError(t, err)

		assert.False(t, utils.ConsumeRefreshToken(user.ID+1, token))
		assert.True(t, utils.ConsumeRefreshToken(user.ID, token))
	})

	t.Run("Success - Cleanup drops revoked tokens", func(t *testing.T) {
		_, err := utils.GenerateRefreshToken(user.ID)
		require.NoError(t, err)
		require.NoError(t, utils.RevokeRefreshTokens(user.ID))

		n, err := utils.CleanupExpiredRefreshTokens()
		require.NoError(t, err)
		assert.Greater(t, n, int64(0))

		var left int64
		database.DB.Model(&models.RefreshToken{}).Count(&left)
		assert.Equal(t, int64(0), left)
	})
}

func TestRandomInt(t *testing.T) {
	for i := 0; i < 100; i++ {
		n, err := utils.RandomInt(1000, 9999)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, int64(1000))
		assert.LessOrEqual(t, n, int64(9999))
	}
	assert.Len(t, utils.RandomString(64), 64)
}
