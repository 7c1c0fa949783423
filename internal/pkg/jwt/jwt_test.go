package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager(t *testing.T) {
	secretKey := "test-secret-key-at-least-32-chars-long"
	expirationMinutes := 60

	manager := NewManager(secretKey, expirationMinutes)

	assert.NotNil(t, manager)
	assert.Equal(t, secretKey, manager.secretKey)
	assert.Equal(t, time.Duration(expirationMinutes)*time.Minute, manager.expirationDuration)
}

func TestGenerateToken(t *testing.T) {
	manager := NewManager("test-secret-key-at-least-32-chars-long", 60)

	tests := []struct {
		name    string
		subject string
		roles   []string
	}{
		{
			name:    "admin token",
			subject: "user-admin-1",
			roles:   []string{"admin"},
		},
		{
			name:    "operator with multiple roles",
			subject: "user-op-1",
			roles:   []string{"operator", "admin"},
		},
		{
			name:    "no roles",
			subject: "user-none",
			roles:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := manager.GenerateToken(tt.subject, tt.roles)
			assert.NoError(t, err)
			assert.NotEmpty(t, token)
		})
	}
}

func TestValidateToken(t *testing.T) {
	manager := NewManager("test-secret-key-at-least-32-chars-long", 60)

	t.Run("valid token", func(t *testing.T) {
		token, err := manager.GenerateToken("user-1", []string{"admin", "operator"})
		require.NoError(t, err)

		claims, err := manager.ValidateToken(token)
		assert.NoError(t, err)
		require.NotNil(t, claims)
		assert.Equal(t, []string{"admin", "operator"}, claims.Roles)
		assert.Equal(t, "ledger-service", claims.Issuer)
		assert.Equal(t, "user-1", claims.Subject)
		assert.True(t, claims.HasRole("admin"))
		assert.True(t, claims.HasRole("operator"))
		assert.False(t, claims.HasRole("guardian"))
	})

	t.Run("invalid token format", func(t *testing.T) {
		claims, err := manager.ValidateToken("invalid-token")
		assert.Error(t, err)
		assert.Nil(t, claims)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("empty token", func(t *testing.T) {
		claims, err := manager.ValidateToken("")
		assert.Error(t, err)
		assert.Nil(t, claims)
	})

	t.Run("token with wrong secret", func(t *testing.T) {
		wrongManager := NewManager("wrong-secret-key-different-32-chars", 60)
		token, err := wrongManager.GenerateToken("user-1", []string{"admin"})
		require.NoError(t, err)

		claims, err := manager.ValidateToken(token)
		assert.Error(t, err)
		assert.Nil(t, claims)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		shortManager := NewManager("test-secret-key-at-least-32-chars-long", 0)
		token, err := shortManager.GenerateToken("user-1", []string{"admin"})
		require.NoError(t, err)

		time.Sleep(1 * time.Second)

		claims, err := shortManager.ValidateToken(token)
		assert.Error(t, err)
		assert.Nil(t, claims)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})
}

func TestTokenClaimsIntegrity(t *testing.T) {
	manager := NewManager("test-secret-key-at-least-32-chars-long", 60)

	token, err := manager.GenerateToken("user-1", []string{"admin"})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		claims, err := manager.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.Subject)
		assert.Equal(t, []string{"admin"}, claims.Roles)
	}
}

func TestMultipleManagers(t *testing.T) {
	manager1 := NewManager("secret-key-1-at-least-32-chars-long", 60)
	manager2 := NewManager("secret-key-2-at-least-32-chars-long", 60)

	token1, err := manager1.GenerateToken("user-1", []string{"admin"})
	require.NoError(t, err)

	token2, err := manager2.GenerateToken("user-2", []string{"admin"})
	require.NoError(t, err)

	claims1, err := manager1.ValidateToken(token1)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", claims1.Subject)

	claims2, err := manager2.ValidateToken(token2)
	assert.NoError(t, err)
	assert.Equal(t, "user-2", claims2.Subject)

	_, err = manager1.ValidateToken(token2)
	assert.Error(t, err)

	_, err = manager2.ValidateToken(token1)
	assert.Error(t, err)
}
