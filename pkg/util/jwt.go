package util

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// AppRoleAdmin marks platform staff allowed into /api/admin.
const AppRoleAdmin = "admin"

// Claims is the session token issued by the identity provider. The subject is
// the identity-provider user id.
type Claims struct {
	Email   string `json:"email"`
	AppRole string `json:"app_role,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the identity-provider subject.
func (c *Claims) UserID() string {
	return c.Subject
}

// GenerateAccessToken signs an HS256 session token.
func GenerateAccessToken(userID, email, appRole, secret string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email:   email,
		AppRole: appRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken parses and verifies a session token.
func ValidateToken(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
