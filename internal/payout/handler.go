package payout

import (
	"fmt"
	"time"

	"github.com/Kyz7/fincore/internal/database"
	"github.com/Kyz7/fincore/internal/middleware"
	"github.com/Kyz7/fincore/internal/models"
	"github.com/Kyz7/fincore/internal/notification"
	"github.com/Kyz7/fincore/internal/response"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func ListHandler(c *fiber.Ctx) error {
	page, limit := response.Pagination(c)

	payouts, total, err := List(database.DB, middleware.CurrentUser(c), Filter{
		UserID: uint(c.QueryInt("user_id", 0)),
		Status: c.Query("status"),
	}, page, limit)
	if err != nil {
		zap.L().Error("failed to list payouts", zap.Error(err))
		return response.InternalError(c, "Failed to fetch payouts")
	}

	meta := response.CalculateMeta(page, limit, total)
	return response.SuccessWithMeta(c, payouts, meta, "Payouts retrieved successfully")
}

func SummaryHandler(c *fiber.Ctx) error {
	totals, err := Summarize(database.DB, middleware.CurrentUser(c))
	if err != nil {
		zap.L().Error("failed to summarize payouts", zap.Error(err))
		return response.InternalError(c, "Failed to summarize payouts")
	}
	return response.Success(c, totals, "Payout summary retrieved successfully")
}

func CreateHandler(c *fiber.Ctx) error {
	var body struct {
		UserID       uint       `json:"user_id" validate:"required"`
		LeadID       *uint      `json:"lead_id"`
		CustomerName string     `json:"customer_name" validate:"required,max=150"`
		ProductName  string     `json:"product_name" validate:"max=150"`
		BankName     string     `json:"bank_name" validate:"max=100"`
		Commission   float64    `json:"commission" validate:"min=0"`
		Deduction    float64    `json:"deduction" validate:"min=0"`
		TeamEarning  float64    `json:"team_earning" validate:"min=0"`
		PayoutStatus string     `json:"payout_status" validate:"omitempty,oneof=pending processing paid"`
		PayoutDate   *time.Time `json:"payout_date"`
		Remark       string     `json:"remark" validate:"max=500"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if errs := response.Validate(body); errs != nil {
		return response.ValidationError(c, errs)
	}

	if err := database.DB.First(&models.User{}, body.UserID).Error; err != nil {
		return response.NotFound(c, "User")
	}

	p := models.Payout{
		UserID:       body.UserID,
		LeadID:       body.LeadID,
		CustomerName: body.CustomerName,
		ProductName:  body.ProductName,
		BankName:     body.BankName,
		Commission:   body.Commission,
		Deduction:    body.Deduction,
		TeamEarning:  body.TeamEarning,
		PayoutStatus: body.PayoutStatus,
		PayoutDate:   body.PayoutDate,
		Remark:       body.Remark,
	}
	if p.PayoutStatus == "" {
		p.PayoutStatus = "pending"
	}

	if err := database.DB.Create(&p).Error; err != nil {
		zap.L().Error("failed to create payout", zap.Error(err))
		return response.InternalError(c, "Failed to create payout")
	}

	notification.Notify(database.DB, p.UserID, notification.TypeSuccess, "Payout recorded",
		fmt.Sprintf("A payout of %.2f for %s was recorded.", p.NetPayout, p.CustomerName), "/payouts")

	return response.Created(c, p, "Payout created successfully")
}

func UpdateStatusHandler(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid payout ID", nil)
	}

	var body struct {
		PayoutStatus string `json:"payout_status" validate:"required,oneof=pending processing paid"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if errs := response.Validate(body); errs != nil {
		return response.ValidationError(c, errs)
	}

	var p models.Payout
	if err := database.DB.First(&p, id).Error; err != nil {
		return response.NotFound(c, "Payout")
	}

	p.PayoutStatus = body.PayoutStatus
	if body.PayoutStatus == "paid" && p.PayoutDate == nil {
		now := time.Now()
		p.PayoutDate = &now
	}
	if err := database.DB.Save(&p).Error; err != nil {
		return response.InternalError(c, "Failed to update payout")
	}

	return response.Success(c, p, "Payout updated successfully")
}
