package creditcard

import (
	"github.com/Kyz7/fincore/internal/database"
	"github.com/Kyz7/fincore/internal/models"
	"github.com/Kyz7/fincore/internal/response"
	"github.com/Kyz7/fincore/internal/utils"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type cardRequest struct {
	Name                string   `json:"name" validate:"required,max=150"`
	Bank                string   `json:"bank" validate:"required,max=100"`
	Type                string   `json:"type" validate:"max=50"`
	Category            string   `json:"category" validate:"max=50"`
	AnnualFee           float64  `json:"annual_fee" validate:"min=0"`
	JoiningFee          float64  `json:"joining_fee" validate:"min=0"`
	DSACommission       float64  `json:"dsa_commission" validate:"min=0"`
	RewardPoints        string   `json:"reward_points"`
	Features            []string `json:"features"`
	ServiceablePincodes []string `json:"serviceable_pincodes" validate:"dive,len=6,numeric"`
	Highlights          string   `json:"highlights"`
	Terms               string   `json:"terms"`
	RedirectURL         string   `json:"redirect_url" validate:"omitempty,url"`
	UTMLink             string   `json:"utm_link" validate:"omitempty,url"`
	PayoutSource        string   `json:"payout_source"`
	Status              string   `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (r cardRequest) apply(card *models.CreditCard) {
	card.Name = r.Name
	card.Bank = r.Bank
	card.Type = r.Type
	card.Category = r.Category
	card.AnnualFee = r.AnnualFee
	card.JoiningFee = r.JoiningFee
	card.DSACommission = r.DSACommission
	card.RewardPoints = r.RewardPoints
	card.Features = jsonList(r.Features)
	card.ServiceablePincodes = jsonList(r.ServiceablePincodes)
	card.Highlights = r.Highlights
	card.Terms = SanitizeTerms(r.Terms)
	card.RedirectURL = r.RedirectURL
	card.UTMLink = r.UTMLink
	card.PayoutSource = r.PayoutSource
	card.Status = r.Status
	if card.Status == "" {
		card.Status = "active"
	}
}

func ListHandler(c *fiber.Ctx) error {
	page, limit := response.Pagination(c)

	cards, total, err := List(database.DB, Filter{
		Status: c.Query("status"),
		Bank:   c.Query("bank"),
		Query:  c.Query("q"),
	}, page, limit)
	if err != nil {
		zap.L().Error("failed to list credit cards", zap.Error(err))
		return response.InternalError(c, "Failed to fetch credit cards")
	}

	meta := response.CalculateMeta(page, limit, total)
	return response.SuccessWithMeta(c, cards, meta, "Credit cards retrieved successfully")
}

func BanksHandler(c *fiber.Ctx) error {
	banks, err := Banks(database.DB)
	if err != nil {
		return response.InternalError(c, "Failed to fetch banks")
	}
	return response.Success(c, banks, "Banks retrieved successfully")
}

func GetHandler(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid credit card ID", nil)
	}

	var card models.CreditCard
	if err := database.DB.First(&card, id).Error; err != nil {
		return response.NotFound(c, "Credit card")
	}

	return response.Success(c, card, "Credit card retrieved successfully")
}

func CreateHandler(c *fiber.Ctx) error {
	var body cardRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if errs := response.Validate(body); errs != nil {
		return response.ValidationError(c, errs)
	}

	card := models.CreditCard{CreatedBy: c.Locals("user_id").(uint)}
	body.apply(&card)

	if err := database.DB.Create(&card).Error; err != nil {
		zap.L().Error("failed to create credit card", zap.Error(err))
		return response.InternalError(c, "Failed to create credit card")
	}

	return response.Created(c, card, "Credit card created successfully")
}

func UpdateHandler(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid credit card ID", nil)
	}

	var card models.CreditCard
	if err := database.DB.First(&card, id).Error; err != nil {
		return response.NotFound(c, "Credit card")
	}

	var body cardRequest
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if errs := response.Validate(body); errs != nil {
		return response.ValidationError(c, errs)
	}

	body.apply(&card)
	if err := database.DB.Save(&card).Error; err != nil {
		zap.L().Error("failed to update credit card", zap.Int("id", id), zap.Error(err))
		return response.InternalError(c, "Failed to update credit card")
	}

	return response.Success(c, card, "Credit card updated successfully")
}

func DeleteHandler(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid credit card ID", nil)
	}

	var card models.CreditCard
	if err := database.DB.First(&card, id).Error; err != nil {
		return response.NotFound(c, "Credit card")
	}

	if err := database.DB.Delete(&card).Error; err != nil {
		return response.InternalError(c, "Failed to delete credit card")
	}

	if card.CardImageURL != "" {
		if err := utils.DeleteFile(card.CardImageURL); err != nil {
			zap.L().Warn("failed to delete card image", zap.String("url", card.CardImageURL), zap.Error(err))
		}
	}

	return response.NoContent(c)
}

// UploadImageHandler stores the multipart "image" file and sets it as the
// card image, replacing any previous one.
func UploadImageHandler(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid credit card ID", nil)
	}

	var card models.CreditCard
	if err := database.DB.First(&card, id).Error; err != nil {
		return response.NotFound(c, "Credit card")
	}

	file, err := c.FormFile("image")
	if err != nil {
		return response.BadRequest(c, "Image file is required", nil)
	}
	if err := utils.ValidateImage(file); err != nil {
		return response.BadRequest(c, err.Error(), nil)
	}

	url, err := utils.UploadFile(file, "credit-cards")
	if err != nil {
		zap.L().Error("failed to upload card image", zap.Int("id", id), zap.Error(err))
		return response.InternalError(c, "Failed to upload image")
	}

	old := card.CardImageURL
	card.CardImageURL = url
	if err := database.DB.Model(&card).Update("card_image_url", url).Error; err != nil {
		return response.InternalError(c, "Failed to save image")
	}
	if old != "" {
		if err := utils.DeleteFile(old); err != nil {
			zap.L().Warn("failed to delete old card image", zap.String("url", old), zap.Error(err))
		}
	}

	return response.Success(c, card, "Card image uploaded successfully")
}
