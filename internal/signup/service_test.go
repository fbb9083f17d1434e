package signup_test

import (
	"context"
	"testing"
	"time"

	"github.com/Kyz7/fincore/internal/access"
	"github.com/Kyz7/fincore/internal/cache"
	"github.com/Kyz7/fincore/internal/database"
	"github.com/Kyz7/fincore/internal/event"
	"github.com/Kyz7/fincore/internal/models"
	"github.com/Kyz7/fincore/internal/otp"
	"github.com/Kyz7/fincore/internal/signup"
	"github.com/Kyz7/fincore/internal/testutils"
	"github.com/Kyz7/fincore/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	svc      *signup.Service
	verifier *testutils.FakeVerifier
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	db := testutils.TestDB(t)
	database.DB = db

	f := &fixture{
		db:       db,
		verifier: testutils.NewFakeVerifier(),
		now:      time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }

	otps := otp.NewService(cache.NewMemory().WithClock(clock)).
		WithClock(clock).
		WithGenerator(func() (string, error) { return "246810", nil })
	f.svc = signup.NewService(db, otps, f.verifier, event.Nop{}).
		WithClock(clock).
		WithRandom(func() (int64, error) { return 4821, nil })
	return f
}

// toEmployee drives a new session through pan, otp and employee.
func (f *fixture) toEmployee(t *testing.T, mobile string) *signup.Session {
	ctx := context.Background()

	sess, err := f.svc.Start(ctx)
	require.NoError(t, err)
	_, err = f.svc.SubmitPAN(ctx, sess.ID, "abcde1234f")
	require.NoError(t, err)
	_, err = f.svc.SendMobileOTP(ctx, sess.ID, mobile)
	require.NoError(t, err)
	_, err = f.svc.VerifyMobileOTP(ctx, sess.ID, mobile, "246810")
	require.NoError(t, err)
	sess, err = f.svc.SelectEmployee(ctx, sess.ID, signup.EmployeeInput{
		EmployeeType: "dsa",
		CreditCards:  true,
	})
	require.NoError(t, err)
	return sess
}

func TestSignupService(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - Full signup with skips", func(t *testing.T) {
		f := newFixture(t)
		sess := f.toEmployee(t, "9811111111")

		assert.Equal(t, signup.StepAadhaar, sess.Step)
		assert.Equal(t, "ABCDE1234F", sess.State.PAN)
		assert.Equal(t, "Rahul Sharma", sess.State.FullName)
		assert.Equal(t, "RAHU4821", sess.State.ChannelCode)
		assert.True(t, sess.State.MobileVerified)

		sess, err := f.svc.Skip(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, signup.StepBank, sess.Step)

		sess, err = f.svc.Skip(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, signup.StepMPIN, sess.Step)
		assert.Equal(t, []signup.Step{signup.StepAadhaar, signup.StepBank}, sess.State.Skipped)

		res, err := f.svc.Complete(ctx, sess.ID, "4321", "4321")
		require.NoError(t, err)
		assert.NotEmpty(t, res.AccessToken)
		assert.NotEmpty(t, res.RefreshToken)
		assert.Equal(t, access.DSAPartner, res.User.Role)
		assert.True(t, utils.CheckMPIN("4321", res.User.MPIN))

		var ma models.ModuleAccess
		require.NoError(t, f.db.Where("user_id = ?", res.User.ID).First(&ma).Error)
		assert.True(t, ma.CreditCards)
		assert.False(t, ma.LoanDisbursement)

		_, err = f.svc.Get(ctx, sess.ID)
		assert.ErrorIs(t, err, signup.ErrSessionNotFound)
	})

	t.Run("Success - Aadhaar and bank are stored", func(t *testing.T) {
		f := newFixture(t)
		sess := f.toEmployee(t, "9822222222")

		sess, err := f.svc.SendAadhaarOTP(ctx, sess.ID, "1234 5678 9012")
		require.NoError(t, err)
		assert.Equal(t, signup.StepAadhaar, sess.Step)
		assert.Equal(t, "XXXXXXXX9012", sess.View().Aadhaar)

		_, err = f.svc.VerifyAadhaarOTP(ctx, sess.ID, "000000")
		assert.Error(t, err)

		sess, err = f.svc.VerifyAadhaarOTP(ctx, sess.ID, "123456")
		require.NoError(t, err)
		assert.Equal(t, signup.StepBank, sess.Step)
		assert.Contains(t, sess.State.AadhaarAddress, "Pune")

		sess, err = f.svc.SubmitBank(ctx, sess.ID, "123456789012", "hdfc0001234")
		require.NoError(t, err)
		assert.Equal(t, signup.StepMPIN, sess.Step)

		res, err := f.svc.Complete(ctx, sess.ID, "1111", "1111")
		require.NoError(t, err)
		assert.Equal(t, "HDFC0001234", res.User.IFSC)
		assert.Equal(t, "S/O Suresh Sharma", res.User.AadhaarFatherName)
	})

	t.Run("Error - Self signup cannot choose ADMIN", func(t *testing.T) {
		f := newFixture(t)
		sess, err := f.svc.Start(ctx)
		require.NoError(t, err)
		_, err = f.svc.SubmitPAN(ctx, sess.ID, "ABCDE1234F")
		require.NoError(t, err)
		_, err = f.svc.SendMobileOTP(ctx, sess.ID, "9811111112")
		require.NoError(t, err)
		_, err = f.svc.VerifyMobileOTP(ctx, sess.ID, "9811111112", "246810")
		require.NoError(t, err)

		_, err = f.svc.SelectEmployee(ctx, sess.ID, signup.EmployeeInput{EmployeeType: "ADMIN"})
		assert.ErrorIs(t, err, signup.ErrInvalidInput)

		got, err := f.svc.Get(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, signup.StepEmployee, got.Step)
	})

	t.Run("Error - Failures keep the current step", func(t *testing.T) {
		f := newFixture(t)
		sess, err := f.svc.Start(ctx)
		require.NoError(t, err)

		_, err = f.svc.SubmitPAN(ctx, sess.ID, "SHORT")
		assert.ErrorIs(t, err, signup.ErrInvalidInput)

		f.verifier.InvalidPANs["ZZZZZ9999Z"] = true
		_, err = f.svc.SubmitPAN(ctx, sess.ID, "ZZZZZ9999Z")
		assert.ErrorIs(t, err, signup.ErrPANNotValid)

		got, err := f.svc.Get(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, signup.StepPAN, got.Step)
		assert.Empty(t, got.State.PAN)
	})

	t.Run("Error - Actions for a later step are refused", func(t *testing.T) {
		f := newFixture(t)
		sess, err := f.svc.Start(ctx)
		require.NoError(t, err)

		_, err = f.svc.Complete(ctx, sess.ID, "1234", "1234")
		assert.ErrorIs(t, err, signup.ErrInvalidStep)

		_, err = f.svc.Skip(ctx, sess.ID)
		assert.ErrorIs(t, err, signup.ErrNotSkippable)
	})

	t.Run("Error - Wrong OTP does not verify", func(t *testing.T) {
		f := newFixture(t)
		sess, err := f.svc.Start(ctx)
		require.NoError(t, err)
		_, err = f.svc.SubmitPAN(ctx, sess.ID, "ABCDE1234F")
		require.NoError(t, err)

		_, err = f.svc.VerifyMobileOTP(ctx, sess.ID, "", "246810")
		assert.ErrorIs(t, err, signup.ErrOTPNotSent)

		_, err = f.svc.SendMobileOTP(ctx, sess.ID, "9833333333")
		require.NoError(t, err)
		assert.Equal(t, "246810", f.verifier.LastSMS("9833333333"))

		_, err = f.svc.VerifyMobileOTP(ctx, sess.ID, "9833333333", "111111")
		assert.ErrorIs(t, err, otp.ErrInvalidCode)

		_, err = f.svc.SendMobileOTP(ctx, sess.ID, "9833333333")
		assert.ErrorIs(t, err, otp.ErrCooldown)

		got, err := f.svc.Get(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, signup.StepOTP, got.Step)
		assert.False(t, got.State.MobileVerified)
	})

	t.Run("Error - Registered mobile is refused", func(t *testing.T) {
		f := newFixture(t)
		testutils.CreateTestUser(t, f.db, "9844444444", "1234", access.Employee, access.ModuleAccess{})

		sess, err := f.svc.Start(ctx)
		require.NoError(t, err)
		_, err = f.svc.SubmitPAN(ctx, sess.ID, "ABCDE1234F")
		require.NoError(t, err)

		_, err = f.svc.SendMobileOTP(ctx, sess.ID, "9844444444")
		assert.ErrorIs(t, err, signup.ErrMobileTaken)
	})

	t.Run("Error - MPIN confirmation must match", func(t *testing.T) {
		f := newFixture(t)
		sess := f.toEmployee(t, "9855555555")
		_, err := f.svc.Skip(ctx, sess.ID)
		require.NoError(t, err)
		_, err = f.svc.Skip(ctx, sess.ID)
		require.NoError(t, err)

		_, err = f.svc.Complete(ctx, sess.ID, "1234", "4321")
		assert.ErrorIs(t, err, signup.ErrInvalidInput)

		var count int64
		f.db.Model(&models.User{}).Count(&count)
		assert.Equal(t, int64(0), count)
	})

	t.Run("Error - Sessions expire after inactivity", func(t *testing.T) {
		f := newFixture(t)
		sess, err := f.svc.Start(ctx)
		require.NoError(t, err)

		f.now = f.now.Add(signup.SessionTTL - time.Minute)
		_, err = f.svc.SubmitPAN(ctx, sess.ID, "ABCDE1234F")
		require.NoError(t, err)

		f.now = f.now.Add(signup.SessionTTL - time.Minute)
		_, err = f.svc.Get(ctx, sess.ID)
		assert.NoError(t, err)

		f.now = f.now.Add(2 * time.Minute)
		_, err = f.svc.Get(ctx, sess.ID)
		assert.ErrorIs(t, err, signup.ErrSessionNotFound)

		n, err := signup.CleanupExpired(f.db, f.now)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}
