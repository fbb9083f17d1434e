package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/Kyz7/fincore/internal/verification"
)

// FakeVerifier is an in-process stand-in for the verification provider.
// PANs listed in InvalidPANs report status "invalid"; SMS codes are kept so
// tests can read them back.
type FakeVerifier struct {
	mu sync.Mutex

	PANName     string
	PANDOB      string
	InvalidPANs map[string]bool
	AadhaarOTP  string
	RC          map[string]verification.RCDetails
	Fail        error

	sms map[string]string
}

func NewFakeVerifier() *FakeVerifier {
	return &FakeVerifier{
		PANName:     "Rahul Sharma",
		PANDOB:      "1990-01-15",
		InvalidPANs: map[string]bool{},
		AadhaarOTP:  "123456",
		RC:          map[string]verification.RCDetails{},
		sms:         map[string]string{},
	}
}

func (f *FakeVerifier) VerifyPAN(_ context.Context, pan string) (*verification.PANResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Fail != nil {
		return nil, f.Fail
	}
	if f.InvalidPANs[pan] {
		return &verification.PANResult{Status: "invalid"}, nil
	}
	return &verification.PANResult{Status: "valid", FullName: f.PANName, DOB: f.PANDOB}, nil
}

func (f *FakeVerifier) SendSMSOTP(_ context.Context, mobile, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Fail != nil {
		return f.Fail
	}
	f.sms[mobile] = code
	return nil
}

// LastSMS returns the last code sent to mobile.
func (f *FakeVerifier) LastSMS(mobile string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sms[mobile]
}

func (f *FakeVerifier) SendAadhaarOTP(_ context.Context, aadhaar string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Fail != nil {
		return "", f.Fail
	}
	return "session-" + aadhaar[len(aadhaar)-4:], nil
}

func (f *FakeVerifier) VerifyAadhaarOTP(_ context.Context, sessionID, otp string) (*verification.AadhaarDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Fail != nil {
		return nil, f.Fail
	}
	if otp != f.AadhaarOTP {
		return nil, fmt.Errorf("%w: invalid OTP", verification.ErrVerificationFailed)
	}
	return &verification.AadhaarDetails{
		Name:     f.PANName,
		CareOf:   "S/O Suresh Sharma",
		House:    "12",
		Street:   "MG Road",
		District: "Pune",
		State:    "Maharashtra",
		Pincode:  "411001",
	}, nil
}

func (f *FakeVerifier) LookupRC(_ context.Context, rcNumber string) (*verification.RCDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Fail != nil {
		return nil, f.Fail
	}
	d, ok := f.RC[rcNumber]
	if !ok {
		return nil, fmt.Errorf("%w: RC not found", verification.ErrVerificationFailed)
	}
	return &d, nil
}
