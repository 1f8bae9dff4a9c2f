package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOTPLength(t *testing.T) {
	// 20 digits exceeds the int64 range, pinning the bound to exact
	// big.Int arithmetic.
	for _, digits := range []int{4, 6, 8, 20} {
		code, err := GenerateOTP(digits)
		require.NoError(t, err)
		assert.Len(t, code, digits)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9', "code %q contains non-digit %q", code, r)
		}
	}
}

func TestGenerateOTPDefaultsDigits(t *testing.T) {
	code, err := GenerateOTP(0)
	require.NoError(t, err)
	assert.Len(t, code, 6)
}

func TestOTPValidBoundary(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	expiresAt := OTPExpiry(now, 10*time.Minute)

	assert.Equal(t, now.Add(10*time.Minute), expiresAt)
	assert.True(t, OTPValid(expiresAt, now))
	assert.True(t, OTPValid(expiresAt, expiresAt), "valid up to and including expiry")
	assert.False(t, OTPValid(expiresAt, expiresAt.Add(time.Nanosecond)), "no grace period")
}
