package otp

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRange(t *testing.T) {
	for i := 0; i < 300; i++ {
		code, err := Generate()
		require.NoError(t, err)
		require.Len(t, code, 6)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
}

func TestValidate(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)

	tests := []struct {
		name      string
		stored    string
		expireAt  time.Time
		submitted string
		want      error
	}{
		{"valid code before expiry", "123456", future, "123456", nil},
		{"empty slot", "", future, "123456", ErrInvalid},
		{"wrong code", "123456", future, "654321", ErrInvalid},
		{"expired code", "123456", now.Add(-time.Minute), "123456", ErrExpired},
		{"expiry instant counts as expired", "123456", now, "123456", ErrExpired},
		{"wrong code wins over expiry", "123456", now.Add(-time.Minute), "654321", ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.stored, tt.expireAt, tt.submitted, now)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}
