package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/eventexplorer/eventexplorer-go/internal/model"
)

var ErrInvalidToken = errors.New("invalid or expired session token")

// Claims are the session-token claims issued by the hosted auth service.
// The subject carries the service-assigned user id.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// SignToken creates a signed session token for the given user. The
// hosted service mints tokens in production; this mirrors its format for
// fixtures and local development.
func SignToken(user model.User, secret string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "event-explorer-auth",
			Audience:  jwt.ClaimStrings{"event-explorer"},
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email: user.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// VerifyToken parses and validates a session token with the service's
// shared HMAC secret, returning the user it identifies.
func VerifyToken(tokenString, secret string) (model.User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	}, jwt.WithIssuer("event-explorer-auth"), jwt.WithAudience("event-explorer"))
	if err != nil {
		return model.User{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return model.User{}, ErrInvalidToken
	}

	return model.User{ID: claims.Subject, Email: claims.Email}, nil
}
