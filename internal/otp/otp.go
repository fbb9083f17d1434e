package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/Kyz7/fincore/internal/cache"
)

const (
	CodeLength  = 6
	Expiry      = 5 * time.Minute
	MaxAttempts = 5
	Cooldown    = 60 * time.Second
)

var (
	ErrNotFound        = errors.New("otp not found or expired")
	ErrInvalidCode     = errors.New("invalid otp code")
	ErrTooManyAttempts = errors.New("maximum otp attempts exceeded")
	ErrCooldown        = errors.New("please wait before requesting a new otp")
)

type entry struct {
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
	Attempts  int       `json:"attempts"`
	LockedAt  time.Time `json:"locked_at,omitempty"`
}

// lastActivity is when the resend cooldown started: issue or lockout.
func (e entry) lastActivity() time.Time {
	if e.LockedAt.After(e.CreatedAt) {
		return e.LockedAt
	}
	return e.CreatedAt
}

// Service issues and checks one-time codes keyed by an arbitrary subject,
// typically "<purpose>:<session id>".
type Service struct {
	store cache.Cache
	now   func() time.Time
	gen   func() (string, error)
}

func NewService(store cache.Cache) *Service {
	return &Service{store: store, now: time.Now, gen: randomCode}
}

// WithGenerator replaces the code generator.
func (s *Service) WithGenerator(gen func() (string, error)) *Service {
	s.gen = gen
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func key(subject string) string {
	return "otp:" + subject
}

// Generate stores a fresh code for subject and returns it. A new code is
// refused within Cooldown of the previous issue or of an attempt lockout.
func (s *Service) Generate(ctx context.Context, subject string) (string, error) {
	var existing entry
	err := s.store.Get(ctx, key(subject), &existing)
	switch {
	case err == nil:
		if s.now().Sub(existing.lastActivity()) < Cooldown {
			return "", ErrCooldown
		}
	case !errors.Is(err, cache.ErrMiss):
		return "", fmt.Errorf("load otp: %w", err)
	}

	code, err := s.gen()
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}

	e := entry{Code: code, CreatedAt: s.now()}
	if err := s.store.Set(ctx, key(subject), e, Expiry); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}
	return code, nil
}

// Verify checks code against the stored one. A match consumes the code.
func (s *Service) Verify(ctx context.Context, subject, code string) error {
	k := key(subject)

	var e entry
	if err := s.store.Get(ctx, k, &e); err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return ErrNotFound
		}
		return fmt.Errorf("load otp: %w", err)
	}

	// exhausted entries stay until the cooldown runs out
	if e.Attempts >= MaxAttempts {
		return ErrTooManyAttempts
	}

	if s.now().Sub(e.CreatedAt) >= Expiry {
		_ = s.store.Delete(ctx, k)
		return ErrNotFound
	}

	e.Attempts++
	if e.Code != code {
		ttl := Expiry - s.now().Sub(e.CreatedAt)
		if e.Attempts >= MaxAttempts {
			e.LockedAt = s.now()
			if ttl < Cooldown {
				ttl = Cooldown
			}
		}
		if err := s.store.Set(ctx, k, e, ttl); err != nil {
			return fmt.Errorf("store otp: %w", err)
		}
		return ErrInvalidCode
	}

	return s.store.Delete(ctx, k)
}

func randomCode() (string, error) {
	code := make([]byte, CodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		code[i] = byte('0' + n.Int64())
	}
	return string(code), nil
}
