package auth

import (
	"strings"

	"github.com/Kyz7/fincore/internal/response"
	"github.com/Kyz7/fincore/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// JWTProtected accepts "Authorization: Bearer <access token>" and stores
// the subject under "user_id" and the token role under "role". Refresh
// tokens are opaque and never pass here.
func JWTProtected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return response.Unauthorized(c, "Missing authorization token")
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" || strings.Contains(token, " ") {
			return response.Error(c, fiber.StatusUnauthorized, "INVALID_TOKEN_FORMAT", "Invalid token format", nil)
		}

		claims, err := utils.ParseJWT(token)
		if err != nil {
			return invalidToken(c)
		}
		userID, err := claims.UserID()
		if err != nil || userID == 0 {
			return invalidToken(c)
		}

		c.Locals("user_id", userID)
		c.Locals("role", claims.Role)
		return c.Next()
	}
}

func invalidToken(c *fiber.Ctx) error {
	return response.Error(c, fiber.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token", nil)
}
