package services

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gorefurbish/backend/internal/models"
	"github.com/gorefurbish/backend/internal/storage"
	"github.com/gorefurbish/backend/internal/utils"
)

var (
	// ErrOTPNotFound covers both "never requested" and "already consumed":
	// the lookup only sees unused records, so a consumed code is
	// indistinguishable from an absent one. That also avoids confirming to
	// a guesser whether a reset was ever requested.
	ErrOTPNotFound = errors.New("invalid or expired OTP")

	ErrOTPAlreadyUsed      = errors.New("OTP has already been used")
	ErrOTPAttemptsExceeded = errors.New("maximum OTP attempts exceeded")
	ErrOTPExpired          = errors.New("OTP has expired")
)

// VerifyResult reports the outcome of a verification attempt that reached
// the code comparison.
type VerifyResult struct {
	Verified          bool
	RemainingAttempts int
}

// OTPService issues and verifies one-time codes bound to an email address
// and a purpose. At most one live code exists per (email, purpose) pair.
type OTPService struct {
	store storage.Store
	ttl   time.Duration
}

// NewOTPService creates a new OTP service. ttl is how long an issued code
// stays valid; the canonical deployment value is 10 minutes.
func NewOTPService(store storage.Store, ttl time.Duration) *OTPService {
	return &OTPService{store: store, ttl: ttl}
}

// TTL returns the configured code lifetime.
func (s *OTPService) TTL() time.Duration {
	return s.ttl
}

// NormalizeEmail lowercases and trims an address the way OTP records key it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Issue invalidates any previously issued codes for (email, purpose) and
// persists a fresh 6-digit code. The plaintext code is returned on the
// record for the caller to deliver.
func (s *OTPService) Issue(email, purpose string) (*models.OTP, error) {
	email = NormalizeEmail(email)

	if err := s.store.DeleteOTPs(email, purpose); err != nil {
		return nil, fmt.Errorf("failed to invalidate previous OTPs: %w", err)
	}

	code, err := utils.GenerateSecureOTP()
	if err != nil {
		return nil, fmt.Errorf("failed to generate OTP: %w", err)
	}

	otp := &models.OTP{
		Email:     email,
		Code:      code,
		Purpose:   purpose,
		Attempts:  0,
		IsUsed:    false,
		ExpiresAt: time.Now().Add(s.ttl),
	}
	return s.store.CreateOTP(otp)
}

// Verify checks a candidate code against the most recent unused record for
// (email, purpose) and consumes the code on a match. Every attempt that
// reaches the comparison is persisted, so the cap of three tries survives
// restarts and retries.
func (s *OTPService) Verify(email, purpose, candidate string) (*VerifyResult, error) {
	return s.verify(email, purpose, candidate, true)
}

// Validate runs the same checks as Verify but leaves a matching code
// unconsumed, so a subsequent Verify with the same code still succeeds. Used
// to confirm a code before the caller collects the rest of their input.
func (s *OTPService) Validate(email, purpose, candidate string) (*VerifyResult, error) {
	return s.verify(email, purpose, candidate, false)
}

func (s *OTPService) verify(email, purpose, candidate string, consume bool) (*VerifyResult, error) {
	email = NormalizeEmail(email)

	otp, err := s.store.GetLatestUnusedOTP(email, purpose)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrOTPNotFound
		}
		return nil, err
	}

	if otp.IsUsed {
		return nil, ErrOTPAlreadyUsed
	}
	if otp.Attempts >= models.MaxOTPAttempts {
		return nil, ErrOTPAttemptsExceeded
	}
	if otp.Expired(time.Now()) {
		return nil, ErrOTPExpired
	}

	attempts, err := s.store.IncrementOTPAttempts(otp.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to record OTP attempt: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(otp.Code), []byte(candidate)) != 1 {
		remaining := models.MaxOTPAttempts - attempts
		if remaining < 0 {
			remaining = 0
		}
		return &VerifyResult{Verified: false, RemainingAttempts: remaining}, nil
	}

	if consume {
		ok, err := s.store.ConsumeOTP(otp.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to consume OTP: %w", err)
		}
		if !ok {
			// A concurrent verification won the race.
			return nil, ErrOTPAlreadyUsed
		}
	}

	return &VerifyResult{Verified: true}, nil
}

// ConsumeAndInvalidate removes every code for (email, purpose). Called after
// a successful password change so the code cannot be replayed even if the
// used-flag bookkeeping were bypassed.
func (s *OTPService) ConsumeAndInvalidate(email, purpose string) error {
	return s.store.DeleteOTPs(NormalizeEmail(email), purpose)
}
