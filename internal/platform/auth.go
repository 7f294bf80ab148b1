package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// AuthUser is the identity provider's view of an account. ID is the
// subject reused as the primary key of the internal users table.
type AuthUser struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at"`
	LastSignInAt     *time.Time `json:"last_sign_in_at"`
}

// Session is a token pair issued by the identity provider. The tokens are
// handed to the client verbatim; this service never mints its own.
type Session struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int      `json:"expires_in"`
	User         AuthUser `json:"user"`
}

// SignUp registers credentials with the identity provider and returns the
// created account. Password policy beyond length is the provider's.
func (c *Client) SignUp(ctx context.Context, email, password string) (*AuthUser, error) {
	body := map[string]string{"email": email, "password": password}
	data, err := c.do(ctx, http.MethodPost, "/auth/v1/signup", nil, c.anonKey, body)
	if err != nil {
		return nil, err
	}
	// Depending on email-confirmation settings the provider answers with
	// either a bare user or a full session.
	var s Session
	if err := json.Unmarshal(data, &s); err == nil && s.User.ID != "" {
		return &s.User, nil
	}
	var u AuthUser
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, &Error{Code: "UPSTREAM_DECODE", Message: err.Error(), Status: http.StatusInternalServerError}
	}
	return &u, nil
}

// SignInWithPassword exchanges credentials for a session. Bad credentials
// surface as *Error with the provider's 400/401 status.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	q := url.Values{}
	q.Set("grant_type", "password")
	body := map[string]string{"email": email, "password": password}
	data, err := c.do(ctx, http.MethodPost, "/auth/v1/token", q, c.anonKey, body)
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, &Error{Code: "UPSTREAM_DECODE", Message: err.Error(), Status: http.StatusInternalServerError}
	}
	return &s, nil
}

// RefreshSession exchanges a refresh token for a new token pair.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	q := url.Values{}
	q.Set("grant_type", "refresh_token")
	body := map[string]string{"refresh_token": refreshToken}
	data, err := c.do(ctx, http.MethodPost, "/auth/v1/token", q, c.anonKey, body)
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, &Error{Code: "UPSTREAM_DECODE", Message: err.Error(), Status: http.StatusInternalServerError}
	}
	return &s, nil
}

// User fetches the provider account behind the access token.
func (c *Client) User(ctx context.Context, accessToken string) (*AuthUser, error) {
	data, err := c.do(ctx, http.MethodGet, "/auth/v1/user", nil, accessToken, nil)
	if err != nil {
		return nil, err
	}
	var u AuthUser
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, &Error{Code: "UPSTREAM_DECODE", Message: err.Error(), Status: http.StatusInternalServerError}
	}
	return &u, nil
}

// SignOut revokes the session behind the given access token. Best effort:
// a failure is logged and swallowed so logout never blocks the client from
// clearing its tokens.
func (c *Client) SignOut(ctx context.Context, accessToken string) {
	if _, err := c.do(ctx, http.MethodPost, "/auth/v1/logout", nil, accessToken, nil); err != nil {
		logrus.WithError(err).Warn("provider sign-out failed")
	}
}

// Recover asks the provider to send a password-reset email. Callers answer
// 200 regardless of the outcome to avoid account enumeration.
func (c *Client) Recover(ctx context.Context, email string) error {
	_, err := c.do(ctx, http.MethodPost, "/auth/v1/recover", nil, c.anonKey, map[string]string{"email": email})
	return err
}

// UpdatePassword sets a new password for the account behind the token
// (the token from the reset email completes the forgot-password flow).
func (c *Client) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	_, err := c.do(ctx, http.MethodPut, "/auth/v1/user", nil, accessToken, map[string]string{"password": newPassword})
	return err
}

// UpdateUserEmail changes the account email through the admin API. Requires
// the service key.
func (c *Client) UpdateUserEmail(ctx context.Context, userID, email string) error {
	_, err := c.do(ctx, http.MethodPut, "/auth/v1/admin/users/"+userID, nil, c.dataKey(), map[string]string{"email": email})
	return err
}
