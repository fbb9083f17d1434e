package verification

import (
	"context"
	"fmt"
	"strings"
)

type PANResult struct {
	Status   string `json:"status"`
	FullName string `json:"full_name"`
	DOB      string `json:"dob"`
}

func (r PANResult) Valid() bool {
	return r.Status == "valid"
}

func (c *Client) VerifyPAN(ctx context.Context, pan string) (*PANResult, error) {
	var out PANResult
	if err := c.post(ctx, "pan", "/api/pan/verify.php", map[string]string{"id_number": pan}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendAadhaarOTP starts an Aadhaar OTP verification and returns the
// provider's session id.
func (c *Client) SendAadhaarOTP(ctx context.Context, aadhaar string) (string, error) {
	var out struct {
		SessionID string `json:"sessionId"`
	}
	if err := c.post(ctx, "aadhaar_send", "/api/aadhaar/send-otp.php", map[string]string{"aadhaar_number": aadhaar}, &out); err != nil {
		return "", err
	}
	if out.SessionID == "" {
		return "", fmt.Errorf("%w: provider returned no session id", ErrVerificationFailed)
	}
	return out.SessionID, nil
}

type AadhaarDetails struct {
	Name        string `json:"name"`
	CareOf      string `json:"careof"`
	House       string `json:"house"`
	Street      string `json:"street"`
	Locality    string `json:"locality"`
	SubDistrict string `json:"subDistrict"`
	District    string `json:"district"`
	State       string `json:"state"`
	Pincode     string `json:"pincode"`
}

// Address joins the address parts the way they are printed on the card.
func (d AadhaarDetails) Address() string {
	line := strings.TrimSpace(strings.Join(nonEmpty(d.House, d.Street, d.Locality), " "))
	parts := nonEmpty(line, d.SubDistrict, d.District, d.State)
	addr := strings.Join(parts, ", ")
	if d.Pincode != "" {
		addr += " - " + d.Pincode
	}
	return addr
}

func (c *Client) VerifyAadhaarOTP(ctx context.Context, sessionID, otp string) (*AadhaarDetails, error) {
	var out AadhaarDetails
	in := map[string]string{"session_id": sessionID, "otp": otp}
	if err := c.post(ctx, "aadhaar_verify", "/api/aadhaar/verify-otp.php", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SendSMSOTP(ctx context.Context, mobile, code string) error {
	in := map[string]string{"mobile_number": mobile, "otp": code}
	return c.post(ctx, "sms", "/sms/send-otp.php", in, nil)
}

func nonEmpty(in ...string) []string {
	out := in[:0:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
