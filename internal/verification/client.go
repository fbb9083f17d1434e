package verification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Kyz7/fincore/internal/config"
	"github.com/Kyz7/fincore/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

var ErrVerificationFailed = errors.New("verification failed")

// Client talks to the KYC, SMS and vehicle registry provider.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return New(cfg.VerifyBaseURL, cfg.VerifyToken, cfg.VerifyTimeout)
}

// New builds a client for baseURL. When token is set every request carries
// it as a bearer token.
func New(baseURL, token string, timeout time.Duration) *Client {
	httpClient := &http.Client{Timeout: timeout}
	if token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: token,
			TokenType:   "Bearer",
		}))
		httpClient.Timeout = timeout
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) post(ctx context.Context, call, path string, in, out interface{}) (err error) {
	start := time.Now()
	defer func() {
		metrics.VerificationLatency.
			WithLabelValues(call, metrics.Outcome(err == nil)).
			Observe(time.Since(start).Seconds())
	}()

	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", call, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", call, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", call, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 300 {
			return fmt.Errorf("%w: %s returned %d", ErrVerificationFailed, call, resp.StatusCode)
		}
		return fmt.Errorf("decode %s response: %w", call, err)
	}

	if resp.StatusCode >= 300 || !env.Success {
		msg := env.Message
		if msg == "" {
			msg = fmt.Sprintf("%s returned %d", call, resp.StatusCode)
		}
		zap.L().Warn("verification rejected",
			zap.String("call", call),
			zap.Int("status", resp.StatusCode),
			zap.String("message", msg),
		)
		return fmt.Errorf("%w: %s", ErrVerificationFailed, msg)
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", call, err)
	}
	return nil
}
