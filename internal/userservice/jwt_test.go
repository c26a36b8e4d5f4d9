package userservice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")

	token, expiry, err := newAccessToken(42, secret, time.Minute)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Minute), expiry, 5*time.Second)

	userID, err := parseAccessToken(token, secret)
	assert.NoError(t, err)
	assert.Equal(t, 42, userID)
}

func TestParseAccessToken(t *testing.T) {
	secret := []byte("test-secret")

	testCases := []struct {
		name  string
		token func() string
	}{
		{
			name: "wrong secret",
			token: func() string {
				token, _, err := newAccessToken(1, []byte("other-secret"), time.Minute)
				assert.NoError(t, err)
				return token
			},
		},
		{
			name: "expired token",
			token: func() string {
				token, _, err := newAccessToken(1, secret, -time.Minute)
				assert.NoError(t, err)
				return token
			},
		},
		{
			name: "malformed token",
			token: func() string {
				return "not.a.jwt"
			},
		},
		{
			name: "empty token",
			token: func() string {
				return ""
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			userID, err := parseAccessToken(tc.token(), secret)
			assert.Equal(t, ErrInvalidAccessToken, err)
			assert.Zero(t, userID)
		})
	}
}
