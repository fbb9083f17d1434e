package middleware

import (
	"sort"

	"github.com/Kyz7/fincore/internal/access"
	"github.com/Kyz7/fincore/internal/database"
	"github.com/Kyz7/fincore/internal/metrics"
	"github.com/Kyz7/fincore/internal/models"
	"github.com/Kyz7/fincore/internal/permission"
	"github.com/Kyz7/fincore/internal/response"
	"github.com/gofiber/fiber/v2"
)

const (
	userKey    = "user"
	sessionKey = "session"
)

// LoadAccess resolves the caller's access session. It must run after
// auth.JWTProtected.
func LoadAccess(svc *permission.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("user_id").(uint)
		if !ok {
			return response.Unauthorized(c, "User not authenticated")
		}

		var user models.User
		if err := database.DB.First(&user, userID).Error; err != nil {
			return response.Unauthorized(c, "User not found")
		}
		if !user.Active() {
			return response.Forbidden(c, "Account is not active")
		}

		c.Locals(userKey, &user)
		c.Locals(sessionKey, svc.LoadSession(c.UserContext(), &user))
		return c.Next()
	}
}

func CurrentUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(userKey).(*models.User)
	return u
}

// SessionFrom returns the session stored by LoadAccess, or nil. A nil
// session denies everything.
func SessionFrom(c *fiber.Ctx) *access.Session {
	s, _ := c.Locals(sessionKey).(*access.Session)
	return s
}

func Actor(c *fiber.Ctx) permission.Actor {
	if u := CurrentUser(c); u != nil {
		return permission.Actor{ID: u.ID, Role: u.Role}
	}
	return permission.Actor{}
}

// ModuleProtected allows the request only when the module is visible to the
// caller and the caller's role grants action in it.
func ModuleProtected(module access.Module, action access.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		allowed := SessionFrom(c).Can(module, action)
		metrics.AccessDecisions.WithLabelValues(string(module), string(action), metrics.Outcome(allowed)).Inc()

		if !allowed {
			return response.Forbidden(c, "You don't have permission to perform this action")
		}
		return c.Next()
	}
}

func RoleProtected(roles ...access.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := CurrentUser(c)
		if u == nil {
			return response.Unauthorized(c, "User not authenticated")
		}
		for _, r := range roles {
			if u.Role == r {
				return c.Next()
			}
		}
		return response.Forbidden(c, "You don't have permission to access this resource")
	}
}

func AdministratorOnly() fiber.Handler {
	return RoleProtected(access.SuperAdmin, access.Admin)
}

// FilterViewableFields drops every key of data whose managed field the
// session may not view. fields maps data keys to managed field names; keys
// not in fields are always kept.
func FilterViewableFields(s *access.Session, data map[string]interface{}, fields map[string]string) map[string]interface{} {
	if !s.FieldRestricted() {
		return data
	}

	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		if name, managed := fields[k]; managed && !s.CanViewField(name) {
			continue
		}
		out[k] = v
	}
	return out
}

// NonEditableFields lists the keys of data the session is not allowed to
// change, sorted.
func NonEditableFields(s *access.Session, data map[string]interface{}, fields map[string]string) []string {
	if !s.FieldRestricted() {
		return nil
	}

	var denied []string
	for k := range data {
		if name, managed := fields[k]; managed && !s.CanEditField(name) {
			denied = append(denied, k)
		}
	}
	sort.Strings(denied)
	return denied
}
