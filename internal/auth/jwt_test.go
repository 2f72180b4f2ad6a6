package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	v, err := NewTokenVerifier("s3cret")
	require.NoError(t, err)

	userID := uuid.New()
	token, err := v.Issue(userID, time.Hour)
	require.NoError(t, err)

	got, err := v.Subject(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestSubjectRejects(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	v, err := NewTokenVerifier("s3cret")
	require.NoError(t, err)
	v.WithClock(func() time.Time { return now })

	expired, err := v.Issue(uuid.New(), -time.Minute)
	require.NoError(t, err)

	other, err := NewTokenVerifier("other")
	require.NoError(t, err)
	foreign, err := other.Issue(uuid.New(), time.Hour)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: uuid.NewString(),
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "not-a-uuid",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	tests := map[string]string{
		"empty":       "",
		"garbage":     "abc.def.ghi",
		"expired":     expired,
		"wrong key":   foreign,
		"no expiry":   noExpiry,
		"bad subject": badSubject,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := v.Subject(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestNewTokenVerifierNeedsSecret(t *testing.T) {
	_, err := NewTokenVerifier("  ")
	assert.ErrorIs(t, err, ErrNoSecret)
}
