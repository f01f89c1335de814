package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/eventexplorer/eventexplorer-go/internal/auth"
	"github.com/eventexplorer/eventexplorer-go/internal/middleware"
	"github.com/eventexplorer/eventexplorer-go/internal/session"
)

// AuthHandler proxies sign-in, sign-up and sign-out to the hosted auth
// service and manages the session cookie. Credentials are only ever
// forwarded, never stored or verified locally.
type AuthHandler struct {
	auth     *auth.Client
	provider *session.Provider
	renderer *Renderer
	expiry   time.Duration
	secure   bool
}

// NewAuthHandler creates an AuthHandler. secure controls the session
// cookie's Secure flag and should be true outside development.
func NewAuthHandler(client *auth.Client, provider *session.Provider, rn *Renderer, expiry time.Duration, secure bool) *AuthHandler {
	return &AuthHandler{
		auth:     client,
		provider: provider,
		renderer: rn,
		expiry:   expiry,
		secure:   secure,
	}
}

type authPageData struct {
	Nav   navData
	Error string
}

// HandleAuthPage handles GET /auth requests.
func (h *AuthHandler) HandleAuthPage(w http.ResponseWriter, r *http.Request) {
	if middleware.UserFromContext(r.Context()) != nil {
		http.Redirect(w, r, "/events", http.StatusSeeOther)
		return
	}
	h.renderer.render(w, http.StatusOK, "auth", authPageData{
		Nav: navData{Path: r.URL.Path},
	})
}

// HandleSignIn handles POST /auth/signin requests.
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	h.exchange(w, r, h.auth.SignIn)
}

// HandleSignUp handles POST /auth/signup requests.
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	h.exchange(w, r, h.auth.SignUp)
}

type grantFunc func(ctx context.Context, email, password string) (auth.Credentials, error)

func (h *AuthHandler) exchange(w http.ResponseWriter, r *http.Request, grant grantFunc) {
	if err := r.ParseForm(); err != nil {
		h.renderer.render(w, http.StatusBadRequest, "auth", authPageData{
			Nav:   navData{Path: "/auth"},
			Error: "Invalid form submission.",
		})
		return
	}

	creds, err := grant(r.Context(), r.PostFormValue("email"), r.PostFormValue("password"))
	if err != nil {
		status, msg := http.StatusBadGateway, "The sign-in service is unavailable. Please try again."
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			status, msg = http.StatusUnauthorized, "Invalid email or password."
		case errors.Is(err, auth.ErrEmailTaken):
			status, msg = http.StatusConflict, "That email is already registered."
		case errors.Is(err, auth.ErrEmailRequired), errors.Is(err, auth.ErrPasswordRequired):
			status, msg = http.StatusBadRequest, "Email and password are required."
		default:
			slog.Warn("auth exchange failed", "error", err)
		}
		h.renderer.render(w, status, "auth", authPageData{
			Nav:   navData{Path: "/auth"},
			Error: msg,
		})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    creds.Token,
		Path:     "/",
		MaxAge:   int(h.expiry.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	h.provider.SignIn(creds.User)

	http.Redirect(w, r, "/events", http.StatusSeeOther)
}

// HandleSignOut handles POST /auth/signout requests. The cookie is only
// cleared after the hosted service confirms revocation; on failure the
// session must be assumed still live.
func (h *AuthHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	token := middleware.TokenFromContext(r.Context())
	if user == nil || token == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if err := h.provider.SignOut(r.Context(), token); err != nil {
		slog.Warn("sign out failed", "user", user.ID, "error", err)
		http.Redirect(w, r, "/profile?signout=failed", http.StatusSeeOther)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
