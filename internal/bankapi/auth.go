package bankapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"qbank/internal/domain"
)

// LoginResult contains the credentials issued by a successful login.
type LoginResult struct {
	Token string
	User  domain.User
}

// Login exchanges a username/password for a bearer token. The token is
// not stored on the client; callers persist it and call SetToken.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	payload := map[string]string{"username": username, "password": password}
	body, err := c.doRequest(ctx, http.MethodPost, "/api/login", nil, payload)
	if err != nil {
		return nil, err
	}

	var resp loginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse login response: %w", err)
	}
	if !resp.Success || resp.Token == "" {
		if resp.Message != "" {
			return nil, fmt.Errorf("login failed: %s", resp.Message)
		}
		return nil, fmt.Errorf("login failed")
	}

	result := &LoginResult{Token: resp.Token}
	if resp.User != nil {
		result.User = *resp.User
	} else {
		result.User = domain.User{Username: username}
	}

	c.logger.Info("login succeeded", "username", result.User.Username)
	return result, nil
}

// VerifyToken checks the current token with the server and returns the
// resolved identity. An explicit "valid": false maps to ErrAuthRequired,
// the same signal a 401 produces.
func (c *Client) VerifyToken(ctx context.Context) (*domain.User, error) {
	if c.token == "" {
		return nil, domain.ErrAuthRequired
	}

	body, err := c.doRequest(ctx, http.MethodPost, "/api/verify-token", nil, struct{}{})
	if err != nil {
		return nil, err
	}

	var resp verifyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse verify response: %w", err)
	}
	if !resp.Valid || resp.User == nil {
		return nil, domain.ErrAuthRequired
	}

	return resp.User, nil
}

// Logout invalidates the token server-side. Callers clear persisted
// credentials regardless of the outcome.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodPost, "/api/logout", nil, struct{}{})
	return err
}
