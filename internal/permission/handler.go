package permission

import (
	"errors"
	"strconv"

	"github.com/Kyz7/fincore/internal/access"
	"github.com/Kyz7/fincore/internal/response"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler serves the permission administration endpoints. actor and
// session read what the access middleware stored on the request.
type Handler struct {
	svc     *Service
	actor   func(*fiber.Ctx) Actor
	session func(*fiber.Ctx) *access.Session
}

func NewHandler(svc *Service, actor func(*fiber.Ctx) Actor, session func(*fiber.Ctx) *access.Session) *Handler {
	return &Handler{svc: svc, actor: actor, session: session}
}

func (h *Handler) RolePermissions(c *fiber.Ctx) error {
	rp, err := h.svc.LoadRolePermissions(c.UserContext())
	if err != nil {
		zap.L().Error("failed to load role permissions", zap.Error(err))
		return response.InternalError(c, "Failed to load role permissions")
	}
	return response.Success(c, rp, "Role permissions retrieved successfully")
}

func (h *Handler) UpdateRolePermission(c *fiber.Ctx) error {
	role, err := access.ParseRole(c.Params("role"))
	if err != nil {
		return response.BadRequest(c, "Invalid role", err.Error())
	}
	module, err := access.ParseModule(c.Params("module"))
	if err != nil {
		return response.BadRequest(c, "Invalid module", err.Error())
	}
	action, err := access.ParseAction(c.Params("action"))
	if err != nil {
		return response.BadRequest(c, "Invalid action", err.Error())
	}

	var body struct {
		Value *bool `json:"value" validate:"required"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if errs := response.Validate(body); errs != nil {
		return response.ValidationError(c, errs)
	}

	perms, err := h.svc.UpdateRolePermission(c.UserContext(), h.actor(c), role, module, action, *body.Value)
	if err != nil {
		return fail(c, err, "Failed to update role permission")
	}

	return response.Success(c, fiber.Map{
		"role":        role,
		"role_label":  role.Label(),
		"permissions": perms,
	}, "Role permission updated successfully")
}

func (h *Handler) ListUserAccess(c *fiber.Ctx) error {
	users, err := h.svc.ListUserAccess(c.UserContext())
	if err != nil {
		zap.L().Error("failed to list user access", zap.Error(err))
		return response.InternalError(c, "Failed to list user access")
	}
	return response.Success(c, users, "User access retrieved successfully")
}

func (h *Handler) ToggleModuleAccess(c *fiber.Ctx) error {
	userID, err := userIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID", nil)
	}
	module, err := access.ParseModule(c.Params("module"))
	if err != nil {
		return response.BadRequest(c, "Invalid module", err.Error())
	}

	updated, err := h.svc.ToggleModuleAccess(c.UserContext(), h.actor(c), userID, module)
	if err != nil {
		return fail(c, err, "Failed to update module access")
	}

	return response.Success(c, fiber.Map{
		"user_id": userID,
		"access":  updated,
	}, "Module access updated successfully")
}

func (h *Handler) FieldPermissions(c *fiber.Ctx) error {
	userID, err := userIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID", nil)
	}

	perms, synthesized, err := h.svc.FieldPermissions(c.UserContext(), userID)
	if err != nil {
		return fail(c, err, "Failed to load field permissions")
	}

	return response.Success(c, fiber.Map{
		"user_id":     userID,
		"fields":      perms,
		"is_default":  synthesized,
		"field_names": access.ManagedFields,
	}, "Field permissions retrieved successfully")
}

func (h *Handler) SaveFieldPermissions(c *fiber.Ctx) error {
	userID, err := userIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID", nil)
	}

	var body struct {
		Fields map[string]access.FieldPermission `json:"fields" validate:"required"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if errs := response.Validate(body); errs != nil {
		return response.ValidationError(c, errs)
	}

	perms, err := h.svc.SaveFieldPermissions(c.UserContext(), h.actor(c), userID, body.Fields)
	if err != nil {
		return fail(c, err, "Failed to save field permissions")
	}

	return response.Success(c, fiber.Map{
		"user_id": userID,
		"fields":  perms,
	}, "Field permissions saved successfully")
}

func (h *Handler) ToggleFieldPermission(c *fiber.Ctx) error {
	userID, err := userIDParam(c)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID", nil)
	}

	var body struct {
		Field string `json:"field" validate:"required"`
		Type  string `json:"type" validate:"required,oneof=view edit"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if errs := response.Validate(body); errs != nil {
		return response.ValidationError(c, errs)
	}

	updated, err := h.svc.ToggleFieldPermission(c.UserContext(), h.actor(c), userID, body.Field, access.FieldKind(body.Type))
	if err != nil {
		return fail(c, err, "Failed to update field permission")
	}

	return response.Success(c, fiber.Map{
		"user_id":    userID,
		"field":      body.Field,
		"permission": updated,
	}, "Field permission updated successfully")
}

// MyAccess returns the caller's resolved session and navigation.
func (h *Handler) MyAccess(c *fiber.Ctx) error {
	s := h.session(c)
	if s == nil {
		return response.Unauthorized(c, "User not authenticated")
	}
	return response.Success(c, fiber.Map{
		"session": s,
		"nav":     s.NavItems(),
	}, "Access retrieved successfully")
}

func userIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("user_id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid user id")
	}
	return uint(id), nil
}

func fail(c *fiber.Ctx, err error, msg string) error {
	switch {
	case errors.Is(err, access.ErrForbidden):
		return response.Forbidden(c, "You don't have permission to change these permissions")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return response.NotFound(c, "User")
	case errors.Is(err, ErrNotManagerTier):
		return response.BadRequest(c, err.Error(), nil)
	case errors.Is(err, access.ErrUnknownRole), errors.Is(err, access.ErrUnknownModule),
		errors.Is(err, access.ErrUnknownAction), errors.Is(err, access.ErrUnknownField):
		return response.BadRequest(c, err.Error(), nil)
	}

	zap.L().Error(msg, zap.Error(err))
	return response.InternalError(c, msg)
}
