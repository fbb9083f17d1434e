package loan

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/Kyz7/fincore/internal/access"
	"github.com/Kyz7/fincore/internal/database"
	"github.com/Kyz7/fincore/internal/middleware"
	"github.com/Kyz7/fincore/internal/models"
	"github.com/Kyz7/fincore/internal/response"
	"github.com/Kyz7/fincore/internal/verification"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RCLookup fetches vehicle registration details.
type RCLookup interface {
	LookupRC(ctx context.Context, rcNumber string) (*verification.RCDetails, error)
}

// View encodes l with the fields the session may not view removed.
func View(s *access.Session, l *models.LoanDisbursement) (map[string]interface{}, error) {
	data, err := toMap(l)
	if err != nil {
		return nil, err
	}
	return middleware.FilterViewableFields(s, data, FieldNames), nil
}

func ListHandler(c *fiber.Ctx) error {
	page, limit := response.Pagination(c)
	s := middleware.SessionFrom(c)

	loans, total, err := List(database.DB, Filter{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Query:    c.Query("q"),
		Columns:  SearchableColumns(s),
	}, page, limit)
	if err != nil {
		zap.L().Error("failed to list loans", zap.Error(err))
		return response.InternalError(c, "Failed to fetch loan disbursements")
	}

	out := make([]map[string]interface{}, 0, len(loans))
	for i := range loans {
		v, err := View(s, &loans[i])
		if err != nil {
			return response.InternalError(c, "Failed to encode loan disbursement")
		}
		out = append(out, v)
	}

	meta := response.CalculateMeta(page, limit, total)
	return response.SuccessWithMeta(c, out, meta, "Loan disbursements retrieved successfully")
}

func SummaryHandler(c *fiber.Ctx) error {
	s := middleware.SessionFrom(c)
	summary, err := Summarize(database.DB, s.CanViewField(FieldNames["amount"]))
	if err != nil {
		zap.L().Error("failed to summarize loans", zap.Error(err))
		return response.InternalError(c, "Failed to summarize loan disbursements")
	}
	return response.Success(c, summary, "Loan summary retrieved successfully")
}

func GetHandler(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID", nil)
	}

	var loan models.LoanDisbursement
	if err := database.DB.First(&loan, id).Error; err != nil {
		return response.NotFound(c, "Loan disbursement")
	}

	v, err := View(middleware.SessionFrom(c), &loan)
	if err != nil {
		return response.InternalError(c, "Failed to encode loan disbursement")
	}
	return response.Success(c, v, "Loan disbursement retrieved successfully")
}

func CreateHandler(c *fiber.Ctx) error {
	var body request
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if errs := response.Validate(body); errs != nil {
		return response.ValidationError(c, errs)
	}

	loan := models.LoanDisbursement{CreatedBy: c.Locals("user_id").(uint)}
	body.apply(&loan)

	if err := database.DB.Create(&loan).Error; err != nil {
		zap.L().Error("failed to create loan", zap.Error(err))
		return response.InternalError(c, "Failed to create loan disbursement")
	}

	v, err := View(middleware.SessionFrom(c), &loan)
	if err != nil {
		return response.InternalError(c, "Failed to encode loan disbursement")
	}
	return response.Created(c, v, "Loan disbursement created successfully")
}

// UpdateHandler applies a partial update. Manager-tier callers may only
// send fields they are allowed to edit.
func UpdateHandler(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID", nil)
	}

	var loan models.LoanDisbursement
	if err := database.DB.First(&loan, id).Error; err != nil {
		return response.NotFound(c, "Loan disbursement")
	}

	var patch map[string]interface{}
	if err := json.Unmarshal(c.Body(), &patch); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	s := middleware.SessionFrom(c)
	if denied := middleware.NonEditableFields(s, patch, FieldNames); len(denied) > 0 {
		return fieldNotEditable(c, denied)
	}

	body := fromModel(&loan)
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if errs := response.Validate(body); errs != nil {
		return response.ValidationError(c, errs)
	}

	// encoding/json matches keys case-insensitively; check the decoded record
	updated := loan
	body.apply(&updated)
	if s.FieldRestricted() {
		changes, err := Changes(&loan, &updated)
		if err != nil {
			return response.InternalError(c, "Failed to encode loan disbursement")
		}
		if denied := middleware.NonEditableFields(s, changes, FieldNames); len(denied) > 0 {
			return fieldNotEditable(c, denied)
		}
	}

	loan = updated
	if err := database.DB.Save(&loan).Error; err != nil {
		zap.L().Error("failed to update loan", zap.Int("id", id), zap.Error(err))
		return response.InternalError(c, "Failed to update loan disbursement")
	}

	v, err := View(s, &loan)
	if err != nil {
		return response.InternalError(c, "Failed to encode loan disbursement")
	}
	return response.Success(c, v, "Loan disbursement updated successfully")
}

func fieldNotEditable(c *fiber.Ctx, denied []string) error {
	return response.Error(c, fiber.StatusForbidden, "FIELD_NOT_EDITABLE",
		"You are not allowed to edit: "+strings.Join(denied, ", "), denied)
}

func DeleteHandler(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID", nil)
	}

	result := database.DB.Delete(&models.LoanDisbursement{}, id)
	if result.Error != nil {
		return response.InternalError(c, "Failed to delete loan disbursement")
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "Loan disbursement")
	}

	return response.NoContent(c)
}

func RCLookupHandler(rc RCLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			RCNumber string `json:"rc_number" validate:"required,min=6,max=20"`
		}
		if err := c.BodyParser(&body); err != nil {
			return response.BadRequest(c, "Invalid request body", err.Error())
		}
		if errs := response.Validate(body); errs != nil {
			return response.ValidationError(c, errs)
		}
		if rc == nil {
			return response.ServiceUnavailable(c, "RC lookup is not configured")
		}

		number := strings.ToUpper(strings.ReplaceAll(body.RCNumber, " ", ""))
		details, err := rc.LookupRC(c.UserContext(), number)
		if errors.Is(err, verification.ErrVerificationFailed) {
			return response.UpstreamFailed(c, err.Error())
		}
		if err != nil {
			zap.L().Error("rc lookup failed", zap.String("rc_number", number), zap.Error(err))
			return response.InternalError(c, "RC lookup failed")
		}

		return response.Success(c, details, "RC details retrieved successfully")
	}
}
