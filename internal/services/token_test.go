package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gorefurbish/backend/internal/config"
	"github.com/gorefurbish/backend/internal/models"
)

func TestTokenService(t *testing.T) {
	svc, err := NewTokenService(config.JWT{Secret: "test-secret", Expiry: time.Hour})
	require.NoError(t, err)

	user := &models.User{Role: models.RoleUser}
	user.ID = 42

	token, err := svc.Generate(user)
	require.NoError(t, err)

	claims, err := svc.Parse(token)
	require.NoError(t, err)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
	assert.Equal(t, models.RoleUser, claims.Role)
}

func TestTokenServiceRejections(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		_, err := NewTokenService(config.JWT{Expiry: time.Hour})
		assert.Error(t, err)
	})

	t.Run("garbage token", func(t *testing.T) {
		svc, err := NewTokenService(config.JWT{Secret: "test-secret", Expiry: time.Hour})
		require.NoError(t, err)

		_, err = svc.Parse("not.a.token")
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		issuer, err := NewTokenService(config.JWT{Secret: "secret-a", Expiry: time.Hour})
		require.NoError(t, err)
		verifier, err := NewTokenService(config.JWT{Secret: "secret-b", Expiry: time.Hour})
		require.NoError(t, err)

		user := &models.User{Role: models.RoleUser}
		user.ID = 1
		token, err := issuer.Generate(user)
		require.NoError(t, err)

		_, err = verifier.Parse(token)
		assert.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		svc, err := NewTokenService(config.JWT{Secret: "test-secret", Expiry: -time.Minute})
		require.NoError(t, err)

		user := &models.User{Role: models.RoleUser}
		user.ID = 1
		token, err := svc.Generate(user)
		require.NoError(t, err)

		_, err = svc.Parse(token)
		assert.Error(t, err)
	})
}
