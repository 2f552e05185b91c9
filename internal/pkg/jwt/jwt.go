package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/user"
)

var ErrInvalidToken = errors.New("invalid or expired token")

const accessTokenType = "access"

type Service interface {
	GenerateAccessToken(principal user.Principal) (token string, expiresAt int64, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpiration time.Duration
	tokenAuth             *jwtauth.JWTAuth
	now                   func() time.Time
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpiration time.Duration) Service {
	return &JWTService{
		accessTokenExpiration: accessTokenExpiration,
		tokenAuth:             jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		now:                   time.Now,
	}
}

func (j *JWTService) GenerateAccessToken(principal user.Principal) (token string, expiresAt int64, err error) {
	if principal.EmployeeID == "" {
		return "", 0, user.ErrEmployeeIDRequired
	}
	if _, ok := user.ParseRole(string(principal.Role)); !ok {
		return "", 0, fmt.Errorf("%w: %q", user.ErrInvalidRole, principal.Role)
	}

	issuedAt := j.now()
	expiresAt = issuedAt.Add(j.accessTokenExpiration).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"employee_id": principal.EmployeeID,
		"role":        string(principal.Role),
		"type":        accessTokenType,
		"iat":         issuedAt.Unix(),
		"exp":         expiresAt,
	})
	return tokenString, expiresAt, err
}

// PrincipalFromContext reads the caller from a token verified by jwtauth.Verifier.
func PrincipalFromContext(ctx context.Context) (user.Principal, error) {
	token, claims, err := jwtauth.FromContext(ctx)
	if err != nil || token == nil {
		return user.Principal{}, ErrInvalidToken
	}

	if tokenType, _ := claims["type"].(string); tokenType != accessTokenType {
		return user.Principal{}, ErrInvalidToken
	}

	employeeID, _ := claims["employee_id"].(string)
	if employeeID == "" {
		return user.Principal{}, ErrInvalidToken
	}

	roleStr, _ := claims["role"].(string)
	role, ok := user.ParseRole(roleStr)
	if !ok {
		return user.Principal{}, ErrInvalidToken
	}

	return user.Principal{EmployeeID: employeeID, Role: role}, nil
}
