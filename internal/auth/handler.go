package auth

import (
	"errors"

	"github.com/Kyz7/fincore/internal/database"
	"github.com/Kyz7/fincore/internal/metrics"
	"github.com/Kyz7/fincore/internal/models"
	"github.com/Kyz7/fincore/internal/response"
	"github.com/Kyz7/fincore/internal/utils"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var expiresIn = int(utils.AccessTokenTTL.Seconds())

type signinRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	MPIN       string `json:"mpin" validate:"required,len=4,numeric"`
}

func SigninHandler(c *fiber.Ctx) error {
	var body signinRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if errs := response.Validate(body); errs != nil {
		return response.ValidationError(c, errs)
	}

	user, accessToken, refreshToken, err := SigninUser(body.Identifier, body.MPIN)
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		metrics.SigninAttempts.WithLabelValues("invalid").Inc()
		return response.Unauthorized(c, "Invalid mobile/email or MPIN")
	case errors.Is(err, ErrInactiveAccount):
		metrics.SigninAttempts.WithLabelValues("inactive").Inc()
		return response.Forbidden(c, "Account is not active")
	case err != nil:
		zap.L().Error("signin failed", zap.Error(err))
		return response.InternalError(c, "Failed to sign in")
	}

	metrics.SigninAttempts.WithLabelValues("success").Inc()
	return response.Success(c, fiber.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    expiresIn,
		"user":          user,
	}, "Login successful")
}

func RefreshHandler(c *fiber.Ctx) error {
	var body struct {
		UserID       uint   `json:"user_id" validate:"required"`
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if errs := response.Validate(body); errs != nil {
		return response.ValidationError(c, errs)
	}

	accessToken, newRefreshToken, err := utils.RefreshTokenPair(body.UserID, body.RefreshToken)
	if err != nil {
		return response.Unauthorized(c, err.Error())
	}

	return response.Success(c, fiber.Map{
		"access_token":  accessToken,
		"refresh_token": newRefreshToken,
		"expires_in":    expiresIn,
	}, "Token refreshed successfully")
}

// LogoutHandler revokes every refresh token of the caller.
func LogoutHandler(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	if err := utils.RevokeRefreshTokens(userID); err != nil {
		zap.L().Error("failed to revoke refresh tokens", zap.Uint("user_id", userID), zap.Error(err))
		return response.InternalError(c, "Failed to log out")
	}

	zap.L().Info("user logged out", zap.Uint("user_id", userID))
	return response.Success(c, fiber.Map{"user_id": userID}, "Logout successful")
}

func ProfileHandler(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		return response.NotFound(c, "User")
	}

	return response.Success(c, fiber.Map{
		"user":          user,
		"role_label":    user.RoleLabel(),
		"employee_type": user.EmployeeType,
	}, "Profile retrieved successfully")
}
