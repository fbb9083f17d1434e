package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/Kyz7/fincore/internal/database"
	"github.com/Kyz7/fincore/internal/models"
	"golang.org/x/crypto/bcrypt"
)

func GenerateRefreshToken(userID uint) (string, error) {
	rawToken := RandomString(64)

	rt := models.RefreshToken{
		UserID:    userID,
		TokenHash: HashToken(rawToken),
		ExpiresAt: time.Now().Add(RefreshTokenTTL),
	}

	if err := database.DB.Create(&rt).Error; err != nil {
		return "", err
	}

	return rawToken, nil
}

// ConsumeRefreshToken revokes the token and reports whether it was live.
func ConsumeRefreshToken(userID uint, token string) bool {
	result := database.DB.Model(&models.RefreshToken{}).
		Where("user_id = ? AND token_hash = ? AND revoked = ? AND expires_at > ?",
			userID, HashToken(token), false, time.Now()).
		Update("revoked", true)

	return result.Error == nil && result.RowsAffected == 1
}

func RevokeRefreshTokens(userID uint) error {
	return database.DB.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true).Error
}

func RefreshTokenPair(userID uint, oldToken string) (string, string, error) {
	if !ConsumeRefreshToken(userID, oldToken) {
		return "", "", fmt.Errorf("invalid or expired refresh token")
	}

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		return "", "", fmt.Errorf("user not found")
	}
	if !user.Active() {
		return "", "", fmt.Errorf("account is not active")
	}

	accessToken, err := GenerateJWT(user.ID, user.Role)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate access token: %w", err)
	}

	newRefreshToken, err := GenerateRefreshToken(userID)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return accessToken, newRefreshToken, nil
}

func CleanupExpiredRefreshTokens() (int64, error) {
	result := database.DB.Unscoped().
		Where("expires_at < ? OR revoked = ?", time.Now(), true).
		Delete(&models.RefreshToken{})
	return result.RowsAffected, result.Error
}

func RandomString(length int) string {
	const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		num, _ := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
		result[i] = chars[num.Int64()]
	}
	return string(result)
}

// RandomInt returns a uniformly random integer in [lo, hi].
func RandomInt(lo, hi int64) (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(hi-lo+1))
	if err != nil {
		return 0, err
	}
	return lo + n.Int64(), nil
}

func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func HashMPIN(mpin string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(mpin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func CheckMPIN(mpin, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(mpin)) == nil
}
