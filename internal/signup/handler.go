package signup

import (
	"errors"

	"github.com/Kyz7/fincore/internal/otp"
	"github.com/Kyz7/fincore/internal/response"
	"github.com/Kyz7/fincore/internal/utils"
	"github.com/Kyz7/fincore/internal/verification"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r fiber.Router) {
	r.Post("/", h.Start)
	r.Get("/:id", h.Get)
	r.Post("/:id/pan", h.SubmitPAN)
	r.Post("/:id/otp/send", h.SendOTP)
	r.Post("/:id/otp/verify", h.VerifyOTP)
	r.Post("/:id/employee", h.SelectEmployee)
	r.Post("/:id/aadhaar/send", h.SendAadhaarOTP)
	r.Post("/:id/aadhaar/verify", h.VerifyAadhaarOTP)
	r.Post("/:id/bank", h.SubmitBank)
	r.Post("/:id/skip", h.Skip)
	r.Post("/:id/mpin", h.Complete)
}

func (h *Handler) Start(c *fiber.Ctx) error {
	sess, err := h.svc.Start(c.UserContext())
	if err != nil {
		zap.L().Error("failed to start signup", zap.Error(err))
		return response.InternalError(c, "Failed to start signup")
	}
	return response.Created(c, sess.View(), "Signup started")
}

func (h *Handler) Get(c *fiber.Ctx) error {
	sess, err := h.svc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, sess.View(), "Signup session retrieved")
}

func (h *Handler) SubmitPAN(c *fiber.Ctx) error {
	var body struct {
		PAN string `json:"pan" validate:"required"`
	}
	if ok, err := parse(c, &body); !ok {
		return err
	}

	sess, err := h.svc.SubmitPAN(c.UserContext(), c.Params("id"), body.PAN)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, sess.View(), "PAN verified")
}

func (h *Handler) SendOTP(c *fiber.Ctx) error {
	var body struct {
		Mobile string `json:"mobile" validate:"required,len=10,numeric"`
	}
	if ok, err := parse(c, &body); !ok {
		return err
	}

	sess, err := h.svc.SendMobileOTP(c.UserContext(), c.Params("id"), body.Mobile)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, sess.View(), "OTP sent")
}

func (h *Handler) VerifyOTP(c *fiber.Ctx) error {
	var body struct {
		Mobile string `json:"mobile"`
		OTP    string `json:"otp" validate:"required,len=6,numeric"`
	}
	if ok, err := parse(c, &body); !ok {
		return err
	}

	sess, err := h.svc.VerifyMobileOTP(c.UserContext(), c.Params("id"), body.Mobile, body.OTP)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, sess.View(), "Mobile number verified")
}

func (h *Handler) SelectEmployee(c *fiber.Ctx) error {
	var body EmployeeInput
	if ok, err := parse(c, &body); !ok {
		return err
	}

	sess, err := h.svc.SelectEmployee(c.UserContext(), c.Params("id"), body)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, sess.View(), "Employee details saved")
}

func (h *Handler) SendAadhaarOTP(c *fiber.Ctx) error {
	var body struct {
		Aadhaar string `json:"aadhaar" validate:"required"`
	}
	if ok, err := parse(c, &body); !ok {
		return err
	}

	sess, err := h.svc.SendAadhaarOTP(c.UserContext(), c.Params("id"), body.Aadhaar)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, sess.View(), "Aadhaar OTP sent")
}

func (h *Handler) VerifyAadhaarOTP(c *fiber.Ctx) error {
	var body struct {
		OTP string `json:"otp" validate:"required,len=6,numeric"`
	}
	if ok, err := parse(c, &body); !ok {
		return err
	}

	sess, err := h.svc.VerifyAadhaarOTP(c.UserContext(), c.Params("id"), body.OTP)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, sess.View(), "Aadhaar verified")
}

func (h *Handler) SubmitBank(c *fiber.Ctx) error {
	var body struct {
		AccountNumber string `json:"account_number" validate:"required"`
		IFSC          string `json:"ifsc" validate:"required"`
	}
	if ok, err := parse(c, &body); !ok {
		return err
	}

	sess, err := h.svc.SubmitBank(c.UserContext(), c.Params("id"), body.AccountNumber, body.IFSC)
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, sess.View(), "Bank details saved")
}

func (h *Handler) Skip(c *fiber.Ctx) error {
	sess, err := h.svc.Skip(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return response.Success(c, sess.View(), "Step skipped")
}

func (h *Handler) Complete(c *fiber.Ctx) error {
	var body struct {
		MPIN    string `json:"mpin" validate:"required,len=4,numeric"`
		Confirm string `json:"confirm_mpin" validate:"required,eqfield=MPIN"`
	}
	if ok, err := parse(c, &body); !ok {
		return err
	}

	res, err := h.svc.Complete(c.UserContext(), c.Params("id"), body.MPIN, body.Confirm)
	if err != nil {
		return fail(c, err)
	}

	return response.Created(c, fiber.Map{
		"access_token":  res.AccessToken,
		"refresh_token": res.RefreshToken,
		"expires_in":    int(utils.AccessTokenTTL.Seconds()),
		"user":          res.User,
		"role_label":    res.User.RoleLabel(),
	}, "Account created successfully")
}

// parse decodes and validates the body. When ok is false the error
// response has already been written.
func parse(c *fiber.Ctx, out interface{}) (ok bool, err error) {
	if err := c.BodyParser(out); err != nil {
		return false, response.BadRequest(c, "Invalid request body", err.Error())
	}
	if errs := response.Validate(out); errs != nil {
		return false, response.ValidationError(c, errs)
	}
	return true, nil
}

func fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return response.NotFound(c, "Signup session")
	case errors.Is(err, ErrInvalidStep), errors.Is(err, ErrNotSkippable), errors.Is(err, ErrCompleted):
		return response.Error(c, fiber.StatusConflict, "INVALID_STEP", err.Error(), nil)
	case errors.Is(err, ErrMobileTaken), errors.Is(err, ErrEmailTaken):
		return response.Conflict(c, err.Error())
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrPANNotValid),
		errors.Is(err, ErrMobileMismatch), errors.Is(err, ErrOTPNotSent):
		return response.BadRequest(c, err.Error(), nil)
	case errors.Is(err, otp.ErrInvalidCode), errors.Is(err, otp.ErrNotFound):
		return response.Error(c, fiber.StatusBadRequest, "INVALID_OTP", err.Error(), nil)
	case errors.Is(err, otp.ErrTooManyAttempts), errors.Is(err, otp.ErrCooldown):
		return response.Error(c, fiber.StatusTooManyRequests, "OTP_LIMITED", err.Error(), nil)
	case errors.Is(err, verification.ErrVerificationFailed):
		return response.UpstreamFailed(c, err.Error())
	}

	zap.L().Error("signup step failed", zap.Error(err))
	return response.InternalError(c, "Signup step failed")
}
