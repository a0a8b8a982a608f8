package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "brokerage/pkg/domainerrors"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewService("test-secret", "brokerage", time.Hour)

	token, err := svc.GenerateAccessToken("user-1", "Agent")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "Agent", claims.Role)
	assert.Equal(t, "brokerage", claims.Issuer)
}

func TestValidateRejections(t *testing.T) {
	svc := NewService("test-secret", "brokerage", time.Hour)

	t.Run("garbage is unauthorized", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("a token signed with another key is rejected", func(t *testing.T) {
		other := NewService("other-secret", "brokerage", time.Hour)
		token, err := other.GenerateAccessToken("user-1", "Agent")
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("an expired token is rejected with its own message", func(t *testing.T) {
		expired := NewService("test-secret", "brokerage", -time.Minute)
		token, err := expired.GenerateAccessToken("user-1", "Agent")
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expired")
	})
}
