package lead

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Kyz7/fincore/internal/access"
	"github.com/Kyz7/fincore/internal/database"
	"github.com/Kyz7/fincore/internal/event"
	"github.com/Kyz7/fincore/internal/middleware"
	"github.com/Kyz7/fincore/internal/models"
	"github.com/Kyz7/fincore/internal/notification"
	"github.com/Kyz7/fincore/internal/response"
	"github.com/Kyz7/fincore/internal/workflow"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Handler struct {
	events event.Publisher
}

func NewHandler(events event.Publisher) *Handler {
	if events == nil {
		events = event.Nop{}
	}
	return &Handler{events: events}
}

type createRequest struct {
	Kind           models.LeadKind     `json:"kind" validate:"required,oneof=credit_card loan"`
	ApplicantName  string              `json:"applicant_name" validate:"required,max=150"`
	ApplicantEmail string              `json:"applicant_email" validate:"omitempty,email"`
	ApplicantPhone string              `json:"applicant_phone" validate:"required,len=10,numeric"`
	CreditCardID   *uint               `json:"credit_card_id"`
	LoanType       models.LoanCategory `json:"loan_type" validate:"omitempty,oneof=car_loan used_car_loan personal_loan business_loan home_loan other"`
	LoanAmount     float64             `json:"loan_amount" validate:"min=0"`
	Notes          string              `json:"notes" validate:"max=2000"`
}

func (h *Handler) List(c *fiber.Ctx) error {
	page, limit := response.Pagination(c)

	s := middleware.SessionFrom(c)
	if len(VisibleKinds(s)) == 0 {
		return response.Forbidden(c, "You don't have access to leads")
	}

	leads, total, err := List(database.DB, s, Filter{
		Kind:   c.Query("kind"),
		Status: c.Query("status"),
		Query:  c.Query("q"),
	}, page, limit)
	if err != nil {
		zap.L().Error("failed to list leads", zap.Error(err))
		return response.InternalError(c, "Failed to fetch leads")
	}

	meta := response.CalculateMeta(page, limit, total)
	return response.SuccessWithMeta(c, leads, meta, "Leads retrieved successfully")
}

func (h *Handler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid lead ID", nil)
	}

	l, err := Get(database.DB, middleware.SessionFrom(c), id)
	if err != nil {
		return response.NotFound(c, "Lead")
	}
	return response.Success(c, l, "Lead retrieved successfully")
}

func (h *Handler) Create(c *fiber.Ctx) error {
	var body createRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if errs := response.Validate(body); errs != nil {
		return response.ValidationError(c, errs)
	}

	s := middleware.SessionFrom(c)
	if !s.Can(ModuleFor(body.Kind), access.View) {
		return response.Forbidden(c, "You don't have permission to submit this lead")
	}

	l := models.Lead{
		Reference:      newReference(body.Kind, time.Now()),
		Kind:           body.Kind,
		ApplicantName:  strings.TrimSpace(body.ApplicantName),
		ApplicantEmail: strings.ToLower(strings.TrimSpace(body.ApplicantEmail)),
		ApplicantPhone: body.ApplicantPhone,
		Status:         workflow.StatusNew,
		Notes:          SanitizeNotes(body.Notes),
		SubmittedBy:    s.UserID,
	}

	switch body.Kind {
	case models.CardLead:
		if body.CreditCardID == nil {
			return response.ValidationError(c, map[string]string{"credit_card_id": "This field is required"})
		}
		var card models.CreditCard
		if err := database.DB.First(&card, *body.CreditCardID).Error; err != nil {
			return response.NotFound(c, "Credit card")
		}
		l.CreditCardID = &card.ID
		l.CardName = card.Name
		l.BankName = card.Bank
	case models.LoanLead:
		if body.LoanType == "" {
			return response.ValidationError(c, map[string]string{"loan_type": "This field is required"})
		}
		l.LoanType = body.LoanType
		l.LoanAmount = body.LoanAmount
	}

	if err := database.DB.Create(&l).Error; err != nil {
		zap.L().Error("failed to create lead", zap.Error(err))
		return response.InternalError(c, "Failed to create lead")
	}

	if err := h.events.Publish(c.UserContext(), event.LeadCreated, event.LeadCreatedData{
		LeadID:      l.ID,
		Kind:        string(l.Kind),
		SubmittedBy: l.SubmittedBy,
	}); err != nil {
		zap.L().Error("failed to publish lead event", zap.Uint("lead_id", l.ID), zap.Error(err))
	}
	notification.NotifyAdministrators(database.DB, notification.TypeInfo, "New lead",
		fmt.Sprintf("Lead %s submitted for %s.", l.Reference, l.ApplicantName), "/leads")

	return response.Created(c, l, "Lead created successfully")
}

func (h *Handler) UpdateStatus(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid lead ID", nil)
	}

	var body struct {
		Status string `json:"status" validate:"required,oneof=new contacted submitted approved rejected"`
		Notes  string `json:"notes" validate:"max=2000"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if errs := response.Validate(body); errs != nil {
		return response.ValidationError(c, errs)
	}

	s := middleware.SessionFrom(c)
	l, err := Get(database.DB, s, id)
	if err != nil {
		return response.NotFound(c, "Lead")
	}
	if !s.Can(ModuleFor(l.Kind), access.Edit) {
		return response.Forbidden(c, "You don't have permission to update this lead")
	}

	err = workflow.ChangeLeadStatus(database.DB, l, s.UserID, s.Role, body.Status, SanitizeNotes(body.Notes))
	if errors.Is(err, workflow.ErrInvalidTransition) {
		return response.Error(c, fiber.StatusConflict, "INVALID_TRANSITION", err.Error(), fiber.Map{
			"allowed": workflow.Next(l.Status, s.Role),
		})
	}
	if err != nil {
		zap.L().Error("failed to update lead status", zap.Int("id", id), zap.Error(err))
		return response.InternalError(c, "Failed to update lead")
	}

	if l.SubmittedBy != s.UserID {
		notification.Notify(database.DB, l.SubmittedBy, notification.TypeInfo, "Lead updated",
			fmt.Sprintf("Lead %s is now %s.", l.Reference, body.Status), "/leads")
	}

	return response.Success(c, l, "Lead updated successfully")
}

func (h *Handler) History(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid lead ID", nil)
	}

	s := middleware.SessionFrom(c)
	l, err := Get(database.DB, s, id)
	if err != nil {
		return response.NotFound(c, "Lead")
	}

	history, err := workflow.History(database.DB, l.ID)
	if err != nil {
		return response.InternalError(c, "Failed to fetch lead history")
	}
	return response.Success(c, fiber.Map{
		"lead_id": l.ID,
		"status":  l.Status,
		"next":    workflow.Next(l.Status, s.Role),
		"history": history,
	}, "Lead history retrieved successfully")
}

// Stats counts the visible leads per status.
func (h *Handler) Stats(c *fiber.Ctx) error {
	s := middleware.SessionFrom(c)
	if len(VisibleKinds(s)) == 0 {
		return response.Forbidden(c, "You don't have access to leads")
	}

	q := Scope(database.DB.Model(&models.Lead{}), s)
	if kind := c.Query("kind"); kind != "" {
		q = q.Where("kind = ?", kind)
	}
	stats, err := workflow.StatusCounts(q)
	if err != nil {
		zap.L().Error("failed to count leads", zap.Error(err))
		return response.InternalError(c, "Failed to fetch lead statistics")
	}
	return response.Success(c, stats, "Lead statistics retrieved successfully")
}
