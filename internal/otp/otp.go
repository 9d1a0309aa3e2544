// Package otp generates and validates short-lived numeric one-time codes.
package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"
)

var (
	ErrInvalid = errors.New("invalid OTP")
	ErrExpired = errors.New("OTP expired")
)

const (
	otpMin   = 100000
	otpRange = 900000
)

// Generate returns a 6-digit code drawn uniformly from [100000, 999999].
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpRange))
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}
	return fmt.Sprintf("%d", otpMin+n.Int64()), nil
}

// Validate checks a submitted code against a stored slot. Mismatch (or an
// empty slot) is reported before expiry, matching the consume contract:
// ErrInvalid for a wrong or missing code, ErrExpired once now reaches the
// expiry instant.
func Validate(stored string, expireAt time.Time, submitted string, now time.Time) error {
	if stored == "" || stored != submitted {
		return ErrInvalid
	}
	if !now.Before(expireAt) {
		return ErrExpired
	}
	return nil
}
