package api

import (
	"context"
	"fmt"
	nethttp "net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MurLoper/structsim-ai-platform-sub001/internal/models"
)

// Login exchanges credentials for a token. On success the client starts
// using the new token.
func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	// Never send a stale token along with a login.
	c.SetToken("")

	payload, err := c.doRequest(ctx, nethttp.MethodPost, "/auth/login", nil,
		models.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	var resp models.LoginResponse
	if err := decodeInto(payload, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode login response: %w", err)
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("login failed: platform returned no token")
	}

	c.SetToken(resp.Token)
	return &resp, nil
}

// Logout invalidates the token on the platform and forgets it locally.
// The local token is dropped even when the call fails.
func (c *Client) Logout(ctx context.Context) error {
	defer c.SetToken("")
	if c.Token() == "" {
		return nil
	}
	if _, err := c.doRequest(ctx, nethttp.MethodPost, "/auth/logout", nil, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// CurrentUser returns the account the token belongs to.
func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	payload, err := c.doRequest(ctx, nethttp.MethodGet, "/auth/me", nil, nil)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := decodeInto(payload, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &user, nil
}

// Heartbeat checks that the session is still usable: the token must be
// present, not past its exp claim, and accepted by /auth/me.
func (c *Client) Heartbeat(ctx context.Context) (*models.User, error) {
	token := c.Token()
	if token == "" {
		return nil, ErrUnauthorized
	}
	if exp, ok := TokenExpiry(token); ok && time.Now().After(exp) {
		return nil, ErrSessionExpired
	}
	return c.CurrentUser(ctx)
}

// TokenExpiry reads the exp claim of a JWT without verifying its signature.
// The console cannot verify tokens; it only uses exp to fail early and to
// warn before the session runs out. ok is false for opaque tokens or tokens
// without exp.
func TokenExpiry(token string) (exp time.Time, ok bool) {
	if strings.Count(token, ".") != 2 {
		return time.Time{}, false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
