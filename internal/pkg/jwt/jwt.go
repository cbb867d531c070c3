package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Roles carried in the "role" claim
const (
	RoleEmployee = "employee"
	RoleManager  = "manager"
	RoleHR       = "hr"
	RoleAdmin    = "admin"
	// RoleKiosk identifies an attendance terminal rather than a person
	RoleKiosk = "kiosk"
)

var ErrMissingClaims = errors.New("token is missing required claims")

// Claims is the caller identity extracted from an access token
type Claims struct {
	UserID     string
	EmployeeID *string
	Role       string
}

type Service interface {
	GenerateAccessToken(userID string, employeeID *string, role string) (token string, expiresAt int64, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpiration time.Duration
	tokenAuth             *jwtauth.JWTAuth
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

// NewJWTService verifies HS256 tokens issued with secretKey. Tokens are
// normally minted by the HR backend; GenerateAccessToken exists for tooling.
func NewJWTService(secretKey string, accessTokenExpiration time.Duration) Service {
	if accessTokenExpiration <= 0 {
		accessTokenExpiration = 15 * time.Minute
	}
	return &JWTService{
		accessTokenExpiration: accessTokenExpiration,
		tokenAuth:             jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) GenerateAccessToken(userID string, employeeID *string, role string) (token string, expiresAt int64, err error) {
	expiresAt = time.Now().Add(j.accessTokenExpiration).Unix()

	claims := map[string]interface{}{
		"user_id":     userID,
		"employee_id": j.returnValueOrNil(employeeID),
		"role":        role,
		"type":        "access",
		"exp":         expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

func (j *JWTService) returnValueOrNil(value *string) interface{} {
	if value == nil {
		return nil
	}
	return *value
}

// ClaimsFromContext reads the verified token placed on ctx by jwtauth.Verifier
func ClaimsFromContext(ctx context.Context) (Claims, error) {
	_, raw, err := jwtauth.FromContext(ctx)
	if err != nil {
		return Claims{}, err
	}

	userID, _ := raw["user_id"].(string)
	role, _ := raw["role"].(string)
	if userID == "" || role == "" {
		return Claims{}, ErrMissingClaims
	}

	claims := Claims{UserID: userID, Role: role}
	if emp, ok := raw["employee_id"].(string); ok && emp != "" {
		claims.EmployeeID = &emp
	}
	return claims, nil
}
