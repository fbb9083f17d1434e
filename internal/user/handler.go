package user

import (
	"errors"

	"github.com/Kyz7/fincore/internal/access"
	"github.com/Kyz7/fincore/internal/database"
	"github.com/Kyz7/fincore/internal/middleware"
	"github.com/Kyz7/fincore/internal/models"
	"github.com/Kyz7/fincore/internal/notification"
	"github.com/Kyz7/fincore/internal/response"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type userView struct {
	models.User
	RoleLabel string `json:"role_label"`
}

func viewOf(u models.User) userView {
	return userView{User: u, RoleLabel: u.RoleLabel()}
}

func ListUsersHandler(c *fiber.Ctx) error {
	page, limit := response.Pagination(c)

	users, total, err := ListUsers(database.DB, Filter{
		Role:   c.Query("role"),
		Status: c.Query("status"),
		Query:  c.Query("q"),
	}, page, limit)
	if err != nil {
		zap.L().Error("failed to list users", zap.Error(err))
		return response.InternalError(c, "Failed to fetch users")
	}

	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, viewOf(u))
	}

	meta := response.CalculateMeta(page, limit, total)
	return response.SuccessWithMeta(c, out, meta, "Users retrieved successfully")
}

func GetUserHandler(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID", nil)
	}

	var u models.User
	if err := database.DB.First(&u, id).Error; err != nil {
		return response.NotFound(c, "User")
	}

	var ma models.ModuleAccess
	modules := access.ModuleAccess{}
	if err := database.DB.Where("user_id = ?", u.ID).First(&ma).Error; err == nil {
		modules = ma.Access()
	}

	return response.Success(c, fiber.Map{
		"user":    viewOf(u),
		"modules": modules,
	}, "User retrieved successfully")
}

func UpdateRoleHandler(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID", nil)
	}

	var body struct {
		Role string `json:"role" validate:"required"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if errs := response.Validate(body); errs != nil {
		return response.ValidationError(c, errs)
	}

	role, err := access.ParseRole(body.Role)
	if err != nil {
		return response.ValidationError(c, map[string]string{"role": err.Error()})
	}

	actor := middleware.CurrentUser(c)
	u, err := AssignRole(database.DB, actor.Role, uint(id), role)
	if err != nil {
		return fail(c, err, "Failed to update role")
	}

	zap.L().Info("user role changed", zap.Uint("user_id", u.ID), zap.String("role", string(role)), zap.Uint("by", actor.ID))
	notification.Notify(database.DB, u.ID, notification.TypeInfo, "Role updated",
		"Your role is now "+role.Label()+".", "/")

	return response.Success(c, viewOf(*u), "User role updated successfully")
}

func DeactivateUserHandler(c *fiber.Ctx) error {
	return setStatus(c, false)
}

func ActivateUserHandler(c *fiber.Ctx) error {
	return setStatus(c, true)
}

func setStatus(c *fiber.Ctx, active bool) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID", nil)
	}

	actor := middleware.CurrentUser(c)
	if uint(id) == actor.ID {
		return response.BadRequest(c, "You cannot change your own status", nil)
	}

	u, err := SetStatus(database.DB, actor.Role, uint(id), active)
	if err != nil {
		return fail(c, err, "Failed to update user status")
	}

	msg := "User activated successfully"
	if !active {
		msg = "User deactivated successfully"
	}
	return response.Success(c, viewOf(*u), msg)
}

func fail(c *fiber.Ctx, err error, msg string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return response.NotFound(c, "User")
	case errors.Is(err, ErrProtectedUser):
		return response.Forbidden(c, err.Error())
	}
	zap.L().Error(msg, zap.Error(err))
	return response.InternalError(c, msg)
}
