package models

import (
	"time"

	"gorm.io/gorm"
)

// OTP purposes
const (
	PurposePasswordReset     = "password-reset"
	PurposeEmailVerification = "email-verification"
)

// MaxOTPAttempts is the number of verification attempts allowed per issued
// code. The counter is persisted on every attempt, so process restarts cannot
// reset it.
const MaxOTPAttempts = 3

type OTP struct {
	gorm.Model
	Email     string    `gorm:"not null;index"`
	Code      string    `gorm:"not null"`
	Purpose   string    `gorm:"not null;index"`
	Attempts  int       `gorm:"default:0"`
	IsUsed    bool      `gorm:"default:false"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

// Expired reports whether the code's TTL has elapsed at the given time.
func (o *OTP) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}
