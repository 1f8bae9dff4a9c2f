package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// GenerateOTP returns a uniformly random numeric code of exactly
// digits characters, leading zeros included. crypto/rand keeps the
// code unguessable within its validity window.
func GenerateOTP(digits int) (string, error) {
	if digits <= 0 {
		digits = 6
	}
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}

// OTPExpiry returns the expiration timestamp for a code issued now.
func OTPExpiry(now time.Time, validity time.Duration) time.Time {
	return now.Add(validity)
}

// OTPValid reports whether a code with the given expiry is still
// usable at now. No grace period.
func OTPValid(expiresAt time.Time, now time.Time) bool {
	return !now.After(expiresAt)
}
