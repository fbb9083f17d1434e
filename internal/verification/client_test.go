package verification_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Kyz7/fincore/internal/verification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, body map[string]string)) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		handler(w, r, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVerifyPAN(t *testing.T) {
	t.Run("Success - bearer token and payload", func(t *testing.T) {
		srv := newServer(t, func(w http.ResponseWriter, r *http.Request, body map[string]string) {
			assert.Equal(t, "/api/pan/verify.php", r.URL.Path)
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
			assert.Equal(t, "ABCDE1234F", body["id_number"])
			w.Write([]byte(`{"success":true,"data":{"status":"valid","full_name":"RAVI KUMAR","dob":"1990-01-02"}}`))
		})

		c := verification.New(srv.URL, "secret", time.Second)
		res, err := c.VerifyPAN(context.Background(), "ABCDE1234F")
		require.NoError(t, err)
		assert.True(t, res.Valid())
		assert.Equal(t, "RAVI KUMAR", res.FullName)
		assert.Equal(t, "1990-01-02", res.DOB)
	})

	t.Run("Error - provider reports failure", func(t *testing.T) {
		srv := newServer(t, func(w http.ResponseWriter, r *http.Request, body map[string]string) {
			w.Write([]byte(`{"success":false,"message":"Invalid PAN"}`))
		})

		_, err := verification.New(srv.URL, "", time.Second).VerifyPAN(context.Background(), "ABCDE1234F")
		require.Error(t, err)
		assert.ErrorIs(t, err, verification.ErrVerificationFailed)
		assert.Contains(t, err.Error(), "Invalid PAN")
	})

	t.Run("Error - non 2xx without body", func(t *testing.T) {
		srv := newServer(t, func(w http.ResponseWriter, r *http.Request, body map[string]string) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := verification.New(srv.URL, "", time.Second).VerifyPAN(context.Background(), "ABCDE1234F")
		assert.ErrorIs(t, err, verification.ErrVerificationFailed)
	})
}

func TestAadhaar(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request, body map[string]string) {
		switch r.URL.Path {
		case "/api/aadhaar/send-otp.php":
			assert.Equal(t, "123412341234", body["aadhaar_number"])
			w.Write([]byte(`{"success":true,"data":{"sessionId":"sess-1"}}`))
		case "/api/aadhaar/verify-otp.php":
			assert.Equal(t, "sess-1", body["session_id"])
			assert.Equal(t, "654321", body["otp"])
			w.Write([]byte(`{"success":true,"data":{"name":"Ravi","careof":"S/O Mohan","house":"12","street":"MG Road","locality":"Indiranagar","subDistrict":"Bangalore North","district":"Bangalore","state":"Karnataka","pincode":"560038"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	c := verification.New(srv.URL, "", time.Second)

	sessionID, err := c.SendAadhaarOTP(context.Background(), "123412341234")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", sessionID)

	details, err := c.VerifyAadhaarOTP(context.Background(), sessionID, "654321")
	require.NoError(t, err)
	assert.Equal(t, "Ravi", details.Name)
	assert.Equal(t, "S/O Mohan", details.CareOf)
	assert.Equal(t, "12 MG Road Indiranagar, Bangalore North, Bangalore, Karnataka - 560038", details.Address())
}

func TestSendSMSOTP(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request, body map[string]string) {
		assert.Equal(t, "/sms/send-otp.php", r.URL.Path)
		assert.Equal(t, "9876543210", body["mobile_number"])
		assert.Equal(t, "111222", body["otp"])
		w.Write([]byte(`{"success":true}`))
	})

	err := verification.New(srv.URL, "", time.Second).SendSMSOTP(context.Background(), "9876543210", "111222")
	assert.NoError(t, err)
}

func TestLookupRC(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request, body map[string]string) {
		assert.Equal(t, "KA01AB1234", body["rc_number"])
		w.Write([]byte(`{"success":true,"data":{"owner_name":"Ravi","vehicle_chasi_number":"CH123","vehicle_engine_number":"EN456","financer":"HDFC","financed":true}}`))
	})

	rc, err := verification.New(srv.URL, "", time.Second).LookupRC(context.Background(), "KA01AB1234")
	require.NoError(t, err)
	assert.Equal(t, "Ravi", rc.OwnerName)
	assert.Equal(t, "CH123", rc.ChassisNumber)
	assert.Equal(t, "EN456", rc.EngineNumber)
	assert.Equal(t, "HDFC", rc.Financier)
	assert.True(t, rc.Financed)
}

func TestContextCancel(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request, body map[string]string) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"success":true}`))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := verification.New(srv.URL, "", time.Second).VerifyPAN(ctx, "ABCDE1234F")
	assert.Error(t, err)
}
