package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dynasty-blog/dynasty/internal/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager(testSecret, time.Hour, 24*time.Hour)
	user := &domain.User{ID: "u1", Username: "mike", IsStaff: true}

	tokens, err := m.GenerateTokenPair(user)
	require.NoError(t, err)

	claims, err := m.ValidateToken(tokens.AccessToken, AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "mike", claims.Username)
	assert.True(t, claims.IsStaff)

	_, err = m.ValidateToken(tokens.RefreshToken, RefreshToken)
	assert.NoError(t, err)
}

func TestJWTManager_RejectsWrongTypeAndSecret(t *testing.T) {
	m := NewJWTManager(testSecret, time.Hour, time.Hour)
	tokens, err := m.GenerateTokenPair(&domain.User{ID: "u1", Username: "mike"})
	require.NoError(t, err)

	_, err = m.ValidateToken(tokens.RefreshToken, AccessToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	other := NewJWTManager("ffffffffffffffffffffffffffffffff", time.Hour, time.Hour)
	_, err = other.ValidateToken(tokens.AccessToken, AccessToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestJWTManager_Expired(t *testing.T) {
	m := NewJWTManager(testSecret, -time.Minute, time.Hour)
	tokens, err := m.GenerateTokenPair(&domain.User{ID: "u1", Username: "mike"})
	require.NoError(t, err)

	_, err = m.ValidateToken(tokens.AccessToken, AccessToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}
