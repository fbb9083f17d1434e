package auth

import (
	"errors"
	"regexp"
	"strings"

	"github.com/Kyz7/fincore/internal/database"
	"github.com/Kyz7/fincore/internal/models"
	"github.com/Kyz7/fincore/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveAccount    = errors.New("account is not active")
)

var mobilePattern = regexp.MustCompile(`^[0-9]{10}$`)

// FindByIdentifier looks a user up by 10-digit mobile number or by email.
func FindByIdentifier(identifier string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)

	q := database.DB
	if mobilePattern.MatchString(identifier) {
		q = q.Where("mobile = ?", identifier)
	} else {
		q = q.Where("LOWER(email) = ?", strings.ToLower(identifier))
	}

	var user models.User
	if err := q.First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// SigninUser checks the MPIN and issues an access and refresh token pair.
func SigninUser(identifier, mpin string) (*models.User, string, string, error) {
	user, err := FindByIdentifier(identifier)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", "", err
	}

	if !utils.CheckMPIN(mpin, user.MPIN) {
		return nil, "", "", ErrInvalidCredentials
	}
	if !user.Active() {
		return nil, "", "", ErrInactiveAccount
	}

	accessToken, refreshToken, err := IssueTokens(user)
	if err != nil {
		return nil, "", "", err
	}
	return user, accessToken, refreshToken, nil
}

func IssueTokens(user *models.User) (string, string, error) {
	accessToken, err := utils.GenerateJWT(user.ID, user.Role)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := utils.GenerateRefreshToken(user.ID)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}
