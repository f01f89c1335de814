// Package auth is the client for the hosted auth service. Credentials
// are verified by the service, never locally; the app only forwards
// sign-in requests and validates the HMAC-signed session tokens the
// service issues.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/eventexplorer/eventexplorer-go/internal/model"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
)

// Credentials is a successful sign-in result from the hosted service.
type Credentials struct {
	Token string     `json:"access_token"`
	User  model.User `json:"user"`
}

// Client talks to the hosted auth service's HTTP API.
type Client struct {
	baseURL   string
	jwtSecret string
	http      *http.Client
}

// NewClient creates an auth client for the given service base URL. The
// JWT secret is the service's shared secret for verifying the tokens it
// issues.
func NewClient(baseURL, jwtSecret string) *Client {
	return &Client{
		baseURL:   baseURL,
		jwtSecret: jwtSecret,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

// Verify resolves a session token to the user it identifies.
func (c *Client) Verify(token string) (model.User, error) {
	return VerifyToken(token, c.jwtSecret)
}

// SignIn exchanges credentials for a session token via the service's
// password grant.
func (c *Client) SignIn(ctx context.Context, email, password string) (Credentials, error) {
	if email == "" {
		return Credentials{}, ErrEmailRequired
	}
	if password == "" {
		return Credentials{}, ErrPasswordRequired
	}
	return c.postCredentials(ctx, "/token?grant_type=password", email, password)
}

// SignUp creates an account with the hosted service and returns a
// session for it.
func (c *Client) SignUp(ctx context.Context, email, password string) (Credentials, error) {
	if email == "" {
		return Credentials{}, ErrEmailRequired
	}
	if password == "" {
		return Credentials{}, ErrPasswordRequired
	}
	return c.postCredentials(ctx, "/signup", email, password)
}

// SignOut revokes the session with the hosted service. On failure the
// session must be assumed still live; nothing local is cleared here.
func (c *Client) SignOut(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/logout", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("auth service: sign out: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("auth service: sign out: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) postCredentials(ctx context.Context, path, email, password string) (Credentials, error) {
	body, err := json.Marshal(model.SignInRequest{Email: email, Password: password})
	if err != nil {
		return Credentials{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return Credentials{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Credentials{}, fmt.Errorf("auth service: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusUnauthorized:
		return Credentials{}, ErrInvalidCredentials
	case resp.StatusCode == http.StatusConflict, resp.StatusCode == http.StatusUnprocessableEntity:
		return Credentials{}, ErrEmailTaken
	default:
		return Credentials{}, fmt.Errorf("auth service: status %d", resp.StatusCode)
	}

	var creds Credentials
	if err := json.NewDecoder(resp.Body).Decode(&creds); err != nil {
		return Credentials{}, fmt.Errorf("auth service: decode response: %w", err)
	}
	return creds, nil
}
