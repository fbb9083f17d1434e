package signup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Kyz7/fincore/internal/access"
	"github.com/Kyz7/fincore/internal/auth"
	"github.com/Kyz7/fincore/internal/event"
	"github.com/Kyz7/fincore/internal/metrics"
	"github.com/Kyz7/fincore/internal/models"
	"github.com/Kyz7/fincore/internal/notification"
	"github.com/Kyz7/fincore/internal/otp"
	"github.com/Kyz7/fincore/internal/permission"
	"github.com/Kyz7/fincore/internal/utils"
	"github.com/Kyz7/fincore/internal/verification"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const SessionTTL = 30 * time.Minute

var (
	ErrSessionNotFound = errors.New("signup session not found or expired")
	ErrInvalidInput    = errors.New("invalid signup input")
	ErrPANNotValid     = errors.New("PAN is not valid")
	ErrMobileTaken     = errors.New("mobile number is already registered")
	ErrEmailTaken      = errors.New("email is already registered")
	ErrMobileMismatch  = errors.New("otp was sent to a different mobile number")
	ErrOTPNotSent      = errors.New("request an otp first")
)

var (
	panPattern     = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	mobilePattern  = regexp.MustCompile(`^[0-9]{10}$`)
	otpPattern     = regexp.MustCompile(`^[0-9]{6}$`)
	aadhaarPattern = regexp.MustCompile(`^[0-9]{12}$`)
	ifscPattern    = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	accountPattern = regexp.MustCompile(`^[0-9]{9,18}$`)
	mpinPattern    = regexp.MustCompile(`^[0-9]{4}$`)
)

// EmployeeTypes are the types a self-service signup may choose. ADMIN
// accounts are provisioned by an administrator, never through the wizard.
var EmployeeTypes = []string{"DSA", "DST"}

// Verifier is the set of provider calls the wizard needs.
type Verifier interface {
	VerifyPAN(ctx context.Context, pan string) (*verification.PANResult, error)
	SendSMSOTP(ctx context.Context, mobile, code string) error
	SendAadhaarOTP(ctx context.Context, aadhaar string) (string, error)
	VerifyAadhaarOTP(ctx context.Context, sessionID, otp string) (*verification.AadhaarDetails, error)
}

// State is everything collected so far.
type State struct {
	PAN      string `json:"pan,omitempty"`
	FullName string `json:"full_name,omitempty"`
	DOB      string `json:"dob,omitempty"`

	Mobile         string `json:"mobile,omitempty"`
	MobileVerified bool   `json:"mobile_verified"`

	EmployeeType string              `json:"employee_type,omitempty"`
	Email        string              `json:"email,omitempty"`
	ChannelCode  string              `json:"channel_code,omitempty"`
	Modules      access.ModuleAccess `json:"modules"`

	Aadhaar           string `json:"aadhaar,omitempty"`
	AadhaarSessionID  string `json:"aadhaar_session_id,omitempty"`
	AadhaarName       string `json:"aadhaar_name,omitempty"`
	AadhaarAddress    string `json:"aadhaar_address,omitempty"`
	AadhaarFatherName string `json:"aadhaar_father_name,omitempty"`
	AadhaarVerified   bool   `json:"aadhaar_verified"`

	BankAccount string `json:"bank_account,omitempty"`
	IFSC        string `json:"ifsc,omitempty"`

	Skipped []Step `json:"skipped,omitempty"`
}

type Session struct {
	ID        string
	Step      Step
	State     State
	ExpiresAt time.Time
}

// View is the client-facing form of a session. Identity numbers are masked.
type View struct {
	ID          string              `json:"id"`
	Step        Step                `json:"step"`
	ExpiresAt   time.Time           `json:"expires_at"`
	Name        string              `json:"name,omitempty"`
	DOB         string              `json:"dob,omitempty"`
	PAN         string              `json:"pan,omitempty"`
	Mobile      string              `json:"mobile,omitempty"`
	ChannelCode string              `json:"channel_code,omitempty"`
	Role        access.Role         `json:"role,omitempty"`
	Modules     access.ModuleAccess `json:"modules"`
	Aadhaar     string              `json:"aadhaar,omitempty"`
	AadhaarName string              `json:"aadhaar_name,omitempty"`
	Skipped     []Step              `json:"skipped,omitempty"`
}

func (s *Session) View() View {
	v := View{
		ID:          s.ID,
		Step:        s.Step,
		ExpiresAt:   s.ExpiresAt,
		Name:        s.State.FullName,
		DOB:         s.State.DOB,
		PAN:         mask(s.State.PAN, 4),
		Mobile:      s.State.Mobile,
		ChannelCode: s.State.ChannelCode,
		Modules:     s.State.Modules,
		Aadhaar:     mask(s.State.Aadhaar, 4),
		AadhaarName: s.State.AadhaarName,
		Skipped:     s.State.Skipped,
	}
	if s.State.EmployeeType != "" {
		v.Role = access.RoleFromEmployeeType(s.State.EmployeeType)
	}
	return v
}

func mask(s string, keep int) string {
	if len(s) <= keep {
		return s
	}
	return strings.Repeat("X", len(s)-keep) + s[len(s)-keep:]
}

type Service struct {
	db       *gorm.DB
	otp      *otp.Service
	verifier Verifier
	events   event.Publisher
	now      func() time.Time
	random   func() (int64, error)
}

func NewService(db *gorm.DB, otps *otp.Service, verifier Verifier, events event.Publisher) *Service {
	if events == nil {
		events = event.Nop{}
	}
	return &Service{
		db:       db,
		otp:      otps,
		verifier: verifier,
		events:   events,
		now:      time.Now,
		random:   func() (int64, error) { return utils.RandomInt(1000, 9999) },
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithRandom replaces the source of the channel code digits.
func (s *Service) WithRandom(random func() (int64, error)) *Service {
	s.random = random
	return s
}

func emailTaken(db *gorm.DB, email string) (bool, error) {
	var count int64
	err := db.Model(&models.User{}).Where("LOWER(email) = ?", email).Count(&count).Error
	return count > 0, err
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func (s *Service) Start(ctx context.Context) (*Session, error) {
	sess := &Session{
		ID:        uuid.NewString(),
		Step:      StepPAN,
		ExpiresAt: s.now().Add(SessionTTL),
	}
	if err := s.save(ctx, sess, true); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	var row models.SignupSession
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load signup session: %w", err)
	}
	if !s.now().Before(row.ExpiresAt) {
		return nil, ErrSessionNotFound
	}

	sess := &Session{ID: row.ID, Step: Step(row.Step), ExpiresAt: row.ExpiresAt}
	if len(row.Data) > 0 {
		if err := json.Unmarshal(row.Data, &sess.State); err != nil {
			return nil, fmt.Errorf("decode signup session: %w", err)
		}
	}
	return sess, nil
}

func (s *Service) save(ctx context.Context, sess *Session, create bool) error {
	data, err := json.Marshal(sess.State)
	if err != nil {
		return err
	}
	sess.ExpiresAt = s.now().Add(SessionTTL)

	row := models.SignupSession{
		ID:        sess.ID,
		Step:      string(sess.Step),
		Data:      datatypes.JSON(data),
		ExpiresAt: sess.ExpiresAt,
	}

	db := s.db.WithContext(ctx)
	if create {
		err = db.Create(&row).Error
	} else {
		err = db.Model(&models.SignupSession{}).Where("id = ?", sess.ID).Updates(map[string]interface{}{
			"step":       row.Step,
			"data":       row.Data,
			"expires_at": row.ExpiresAt,
		}).Error
	}
	if err != nil {
		return fmt.Errorf("save signup session: %w", err)
	}
	return nil
}

// step loads the session, checks it is at want, runs fn and persists the
// result. fn reports whether the step is finished; only then does the
// session advance. Nothing is saved when fn fails.
func (s *Service) step(ctx context.Context, id string, want Step, fn func(*Session) (bool, error)) (sess *Session, err error) {
	defer func() {
		metrics.SignupSteps.WithLabelValues(string(want), outcome(err)).Inc()
	}()

	sess, err = s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Expect(sess.Step, want); err != nil {
		return sess, err
	}

	done, err := fn(sess)
	if err != nil {
		return sess, err
	}
	if done {
		if sess.Step, err = Advance(sess.Step, want); err != nil {
			return sess, err
		}
	}
	if err := s.save(ctx, sess, false); err != nil {
		return sess, err
	}
	return sess, nil
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	return "failure"
}

// SubmitPAN verifies the PAN and records the holder's name and birth date.
func (s *Service) SubmitPAN(ctx context.Context, id, pan string) (*Session, error) {
	pan = strings.ToUpper(strings.TrimSpace(pan))
	return s.step(ctx, id, StepPAN, func(sess *Session) (bool, error) {
		if len(pan) != 10 || !panPattern.MatchString(pan) {
			return false, invalid("PAN must be 10 characters (e.g. ABCDE1234F)")
		}

		res, err := s.verifier.VerifyPAN(ctx, pan)
		if err != nil {
			return false, err
		}
		if !res.Valid() {
			return false, ErrPANNotValid
		}

		sess.State.PAN = pan
		sess.State.FullName = res.FullName
		if sess.State.FullName == "" {
			sess.State.FullName = "User"
		}
		sess.State.DOB = res.DOB
		return true, nil
	})
}

// SendMobileOTP issues an SMS code for mobile. It does not advance.
func (s *Service) SendMobileOTP(ctx context.Context, id, mobile string) (*Session, error) {
	mobile = strings.TrimSpace(mobile)
	return s.step(ctx, id, StepOTP, func(sess *Session) (bool, error) {
		if !mobilePattern.MatchString(mobile) {
			return false, invalid("mobile number must be 10 digits")
		}

		var count int64
		if err := s.db.WithContext(ctx).Model(&models.User{}).Where("mobile = ?", mobile).Count(&count).Error; err != nil {
			return false, err
		}
		if count > 0 {
			return false, ErrMobileTaken
		}

		code, err := s.otp.Generate(ctx, "mobile:"+sess.ID)
		if err != nil {
			return false, err
		}
		if err := s.verifier.SendSMSOTP(ctx, mobile, code); err != nil {
			return false, err
		}

		sess.State.Mobile = mobile
		sess.State.MobileVerified = false
		return false, nil
	})
}

func (s *Service) VerifyMobileOTP(ctx context.Context, id, mobile, code string) (*Session, error) {
	return s.step(ctx, id, StepOTP, func(sess *Session) (bool, error) {
		if sess.State.Mobile == "" {
			return false, ErrOTPNotSent
		}
		if mobile != "" && mobile != sess.State.Mobile {
			return false, ErrMobileMismatch
		}
		if !otpPattern.MatchString(code) {
			return false, invalid("OTP must be 6 digits")
		}
		if err := s.otp.Verify(ctx, "mobile:"+sess.ID, code); err != nil {
			return false, err
		}

		sess.State.MobileVerified = true
		return true, nil
	})
}

type EmployeeInput struct {
	EmployeeType     string `json:"employee_type" validate:"required"`
	Email            string `json:"email" validate:"omitempty,email"`
	CreditCards      bool   `json:"credit_cards"`
	LoanDisbursement bool   `json:"loan_disbursement"`
}

// SelectEmployee records employee type and module selection and issues the
// channel code.
func (s *Service) SelectEmployee(ctx context.Context, id string, in EmployeeInput) (*Session, error) {
	return s.step(ctx, id, StepEmployee, func(sess *Session) (bool, error) {
		et := strings.ToUpper(strings.TrimSpace(in.EmployeeType))
		valid := false
		for _, t := range EmployeeTypes {
			if t == et {
				valid = true
			}
		}
		if !valid {
			return false, invalid("employee type must be one of %s", strings.Join(EmployeeTypes, ", "))
		}

		email := strings.ToLower(strings.TrimSpace(in.Email))
		if email != "" {
			taken, err := emailTaken(s.db.WithContext(ctx), email)
			if err != nil {
				return false, err
			}
			if taken {
				return false, ErrEmailTaken
			}
		}

		n, err := s.random()
		if err != nil {
			return false, err
		}

		sess.State.EmployeeType = et
		sess.State.Email = email
		sess.State.Modules = access.ModuleAccess{
			CreditCards:      in.CreditCards,
			LoanDisbursement: in.LoanDisbursement,
		}
		sess.State.ChannelCode = ChannelCode(sess.State.FullName, n)
		return true, nil
	})
}

// SendAadhaarOTP starts KYC for the Aadhaar number. It does not advance.
func (s *Service) SendAadhaarOTP(ctx context.Context, id, aadhaar string) (*Session, error) {
	aadhaar = strings.ReplaceAll(strings.TrimSpace(aadhaar), " ", "")
	return s.step(ctx, id, StepAadhaar, func(sess *Session) (bool, error) {
		if !aadhaarPattern.MatchString(aadhaar) {
			return false, invalid("Aadhaar number must be 12 digits")
		}

		sessionID, err := s.verifier.SendAadhaarOTP(ctx, aadhaar)
		if err != nil {
			return false, err
		}

		sess.State.Aadhaar = aadhaar
		sess.State.AadhaarSessionID = sessionID
		return false, nil
	})
}

func (s *Service) VerifyAadhaarOTP(ctx context.Context, id, code string) (*Session, error) {
	return s.step(ctx, id, StepAadhaar, func(sess *Session) (bool, error) {
		if sess.State.AadhaarSessionID == "" {
			return false, ErrOTPNotSent
		}
		if !otpPattern.MatchString(code) {
			return false, invalid("OTP must be 6 digits")
		}

		details, err := s.verifier.VerifyAadhaarOTP(ctx, sess.State.AadhaarSessionID, code)
		if err != nil {
			return false, err
		}

		sess.State.AadhaarName = details.Name
		sess.State.AadhaarAddress = details.Address()
		sess.State.AadhaarFatherName = details.CareOf
		sess.State.AadhaarVerified = true
		return true, nil
	})
}

func (s *Service) SubmitBank(ctx context.Context, id, account, ifsc string) (*Session, error) {
	account = strings.TrimSpace(account)
	ifsc = strings.ToUpper(strings.TrimSpace(ifsc))
	return s.step(ctx, id, StepBank, func(sess *Session) (bool, error) {
		if !accountPattern.MatchString(account) {
			return false, invalid("account number must be 9 to 18 digits")
		}
		if !ifscPattern.MatchString(ifsc) {
			return false, invalid("IFSC must look like ABCD0123456")
		}

		sess.State.BankAccount = account
		sess.State.IFSC = ifsc
		return true, nil
	})
}

// Skip bypasses the Aadhaar or bank step.
func (s *Service) Skip(ctx context.Context, id string) (sess *Session, err error) {
	sess, err = s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	skipped := sess.Step
	defer func() {
		metrics.SignupSteps.WithLabelValues(string(skipped), "skip_"+outcome(err)).Inc()
	}()

	next, err := Skip(sess.Step)
	if err != nil {
		return sess, err
	}

	if skipped == StepAadhaar {
		sess.State.Aadhaar = ""
		sess.State.AadhaarSessionID = ""
	}
	sess.State.Skipped = append(sess.State.Skipped, skipped)
	sess.Step = next
	if err := s.save(ctx, sess, false); err != nil {
		return sess, err
	}
	return sess, nil
}

type Result struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
}

// Complete sets the MPIN and creates the account.
func (s *Service) Complete(ctx context.Context, id, mpin, confirm string) (*Result, error) {
	var user *models.User
	sess, err := s.step(ctx, id, StepMPIN, func(sess *Session) (bool, error) {
		if !mpinPattern.MatchString(mpin) {
			return false, invalid("MPIN must be 4 digits")
		}
		if mpin != confirm {
			return false, invalid("MPIN and confirmation do not match")
		}
		if !sess.State.MobileVerified {
			return false, invalid("mobile number is not verified")
		}

		hash, err := utils.HashMPIN(mpin)
		if err != nil {
			return false, err
		}

		st := sess.State
		u := &models.User{
			Name:              st.FullName,
			Mobile:            st.Mobile,
			Email:             st.Email,
			MPIN:              hash,
			Role:              access.RoleFromEmployeeType(st.EmployeeType),
			EmployeeType:      st.EmployeeType,
			ChannelCode:       st.ChannelCode,
			PAN:               st.PAN,
			DOB:               st.DOB,
			Aadhaar:           st.Aadhaar,
			AadhaarName:       st.AadhaarName,
			AadhaarAddress:    st.AadhaarAddress,
			AadhaarFatherName: st.AadhaarFatherName,
			BankAccount:       st.BankAccount,
			IFSC:              st.IFSC,
			Status:            "active",
		}

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&models.User{}).Where("mobile = ?", u.Mobile).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return ErrMobileTaken
			}
			if u.Email != "" {
				taken, err := emailTaken(tx, u.Email)
				if err != nil {
					return err
				}
				if taken {
					return ErrEmailTaken
				}
			}
			if err := tx.Create(u).Error; err != nil {
				return err
			}
			return permission.SaveModuleAccess(tx, u.ID, st.Modules, u.ID)
		})
		if err != nil {
			return false, err
		}

		user = u
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Delete(&models.SignupSession{}, "id = ?", sess.ID).Error; err != nil {
		zap.L().Warn("failed to delete finished signup session", zap.String("id", sess.ID), zap.Error(err))
	}

	accessToken, refreshToken, err := auth.IssueTokens(user)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	if err := s.events.Publish(ctx, event.UserSignedUp, event.UserSignedUpData{
		UserID:       user.ID,
		Role:         string(user.Role),
		EmployeeType: user.EmployeeType,
		ChannelCode:  user.ChannelCode,
	}); err != nil {
		zap.L().Error("failed to publish signup event", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	notification.NotifyAdministrators(s.db, notification.TypeInfo, "New signup",
		fmt.Sprintf("%s (%s) joined as %s.", user.Name, user.ChannelCode, user.RoleLabel()), "/teams")

	zap.L().Info("signup completed", zap.Uint("user_id", user.ID), zap.String("role", string(user.Role)))
	return &Result{User: user, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// CleanupExpired removes abandoned signup sessions.
func CleanupExpired(db *gorm.DB, now time.Time) (int64, error) {
	res := db.Where("expires_at < ?", now).Delete(&models.SignupSession{})
	return res.RowsAffected, res.Error
}
