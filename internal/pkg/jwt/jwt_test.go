package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndReadClaims(t *testing.T) {
	svc := NewJWTService("test-secret", time.Minute)
	emp := "emp-1"

	token, expiresAt, err := svc.GenerateAccessToken("user-1", &emp, RoleHR)
	require.NoError(t, err)
	assert.Greater(t, expiresAt, time.Now().Unix())

	decoded, err := svc.JWTAuth().Decode(token)
	require.NoError(t, err)

	ctx := jwtauth.NewContext(context.Background(), decoded, nil)
	claims, err := ClaimsFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, RoleHR, claims.Role)
	require.NotNil(t, claims.EmployeeID)
	assert.Equal(t, emp, *claims.EmployeeID)
}

func TestClaimsWithoutEmployee(t *testing.T) {
	svc := NewJWTService("test-secret", 0)

	token, _, err := svc.GenerateAccessToken("svc-payroll", nil, RoleAdmin)
	require.NoError(t, err)
	decoded, err := svc.JWTAuth().Decode(token)
	require.NoError(t, err)

	claims, err := ClaimsFromContext(jwtauth.NewContext(context.Background(), decoded, nil))
	require.NoError(t, err)
	assert.Nil(t, claims.EmployeeID)
}

func TestClaimsMissingRole(t *testing.T) {
	svc := NewJWTService("test-secret", time.Minute)
	_, token, err := svc.JWTAuth().Encode(map[string]interface{}{"user_id": "u", "exp": time.Now().Add(time.Minute).Unix()})
	require.NoError(t, err)
	decoded, err := svc.JWTAuth().Decode(token)
	require.NoError(t, err)

	_, err = ClaimsFromContext(jwtauth.NewContext(context.Background(), decoded, nil))
	assert.ErrorIs(t, err, ErrMissingClaims)
}
