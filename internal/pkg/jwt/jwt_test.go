package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/user"
)

func TestGenerateAccessToken_RoundTripsPrincipal(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)

	token, expiresAt, err := svc.GenerateAccessToken(user.Principal{EmployeeID: "emp-1", Role: user.RoleManager})
	require.NoError(t, err)
	assert.Greater(t, expiresAt, time.Now().Unix())

	parsed, err := jwtauth.VerifyToken(svc.JWTAuth(), token)
	require.NoError(t, err)

	ctx := jwtauth.NewContext(context.Background(), parsed, nil)
	principal, err := PrincipalFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "emp-1", principal.EmployeeID)
	assert.Equal(t, user.RoleManager, principal.Role)
	assert.True(t, principal.CanViewAll())
	assert.False(t, principal.IsAdmin())
}

func TestGenerateAccessToken_RejectsUnknownRole(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)

	_, _, err := svc.GenerateAccessToken(user.Principal{EmployeeID: "emp-1", Role: "owner"})
	assert.ErrorIs(t, err, user.ErrInvalidRole)

	_, _, err = svc.GenerateAccessToken(user.Principal{Role: user.RoleAdmin})
	assert.ErrorIs(t, err, user.ErrEmployeeIDRequired)
}

func TestPrincipalFromContext_WithoutToken(t *testing.T) {
	_, err := PrincipalFromContext(context.Background())
	assert.ErrorIs(t, err, ErrInvalidToken)
}
