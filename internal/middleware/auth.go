package middleware

import (
	"context"
	"net/http"

	"github.com/eventexplorer/eventexplorer-go/internal/model"
)

type contextKey string

const (
	userKey  contextKey = "user"
	tokenKey contextKey = "token"
)

// SessionCookie is the cookie holding the hosted auth service's session
// token.
const SessionCookie = "ee_session"

// TokenVerifier resolves a session token to a user.
type TokenVerifier interface {
	Verify(token string) (model.User, error)
}

// Session returns middleware that resolves the session cookie into the
// request context. An absent or invalid cookie passes through as the
// signed-out state; individual pages decide whether to redirect.
func Session(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := verifier.Verify(cookie.Value)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, &user)
			ctx = context.WithValue(ctx, tokenKey, cookie.Value)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext extracts the authenticated user from the request
// context, or nil for a signed-out request.
func UserFromContext(ctx context.Context) *model.User {
	user, _ := ctx.Value(userKey).(*model.User)
	return user
}

// TokenFromContext extracts the raw session token from the request
// context.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}
