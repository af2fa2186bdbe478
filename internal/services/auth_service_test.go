package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framelab/annotation-service/internal/models"
)

func TestAuthService_Login(t *testing.T) {
	env := newTestEnv(t)
	auth := env.sm.Auth()
	ctx := context.Background()

	tests := []struct {
		name    string
		req     *models.LoginRequest
		wantErr error
	}{
		{"missing user", &models.LoginRequest{Password: "secret"}, ErrValidationFailed},
		{"unknown user", &models.LoginRequest{UserID: 9999, Password: "secret"}, ErrNotFound},
		{"wrong password", &models.LoginRequest{UserID: env.fx.Coder.ID, Password: "nope"}, ErrInvalidCredentials},
		{"empty password", &models.LoginRequest{UserID: env.fx.Coder.ID}, ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := auth.Login(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, user)
		})
	}

	t.Run("success", func(t *testing.T) {
		user, err := auth.Login(ctx, &models.LoginRequest{UserID: env.fx.Coder.ID, Password: "secret"})
		require.NoError(t, err)
		assert.Equal(t, "Casey", user.DisplayName)
	})
}

func TestAuthService_LoginWithoutPassword(t *testing.T) {
	env := newTestEnv(t, func(c *ServiceManagerConfig) { c.SharedPassword = "" })
	ctx := context.Background()

	_, err := env.sm.Auth().Login(ctx, &models.LoginRequest{UserID: env.fx.Coder.ID, Password: "anything"})
	assert.ErrorIs(t, err, ErrServerMisconfigured)

	// an unknown user is still reported first
	_, err = env.sm.Auth().Login(ctx, &models.LoginRequest{UserID: 9999, Password: "anything"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAuthService_ListUsers(t *testing.T) {
	env := newTestEnv(t)

	users, err := env.sm.Auth().ListUsers(context.Background())
	require.NoError(t, err)

	var names []string
	for _, u := range users {
		names = append(names, u.DisplayName)
	}
	assert.Equal(t, []string{"Alex", "Casey", "Robin"}, names)
	assert.Equal(t, models.RoleAdmin, users[0].Role)
}

func TestPasswordsMatch(t *testing.T) {
	assert.True(t, passwordsMatch("secret", "secret"))
	assert.False(t, passwordsMatch("secret", "secret "))
	assert.False(t, passwordsMatch("", "secret"))
}
