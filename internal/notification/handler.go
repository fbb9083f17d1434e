package notification

import (
	"strconv"

	"github.com/Kyz7/fincore/internal/database"
	"github.com/Kyz7/fincore/internal/response"
	"github.com/gofiber/fiber/v2"
)

func ListHandler(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	page, limit := response.Pagination(c)

	items, total, err := List(database.DB, userID, c.QueryBool("unread", false), page, limit)
	if err != nil {
		return response.InternalError(c, "Failed to fetch notifications")
	}

	return response.SuccessWithMeta(c, items, response.CalculateMeta(page, limit, total), "Notifications retrieved successfully")
}

func UnreadCountHandler(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	n, err := UnreadCount(database.DB, userID)
	if err != nil {
		return response.InternalError(c, "Failed to count notifications")
	}
	return response.Success(c, fiber.Map{"unread": n}, "Unread count retrieved successfully")
}

func MarkReadHandler(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid notification ID", nil)
	}

	ok, err := MarkRead(database.DB, userID, uint(id))
	if err != nil {
		return response.InternalError(c, "Failed to update notification")
	}
	if !ok {
		return response.NotFound(c, "Notification")
	}
	return response.Success(c, nil, "Notification marked as read")
}

func MarkAllReadHandler(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	n, err := MarkAllRead(database.DB, userID)
	if err != nil {
		return response.InternalError(c, "Failed to update notifications")
	}
	return response.Success(c, fiber.Map{"updated": n}, "All notifications marked as read")
}
