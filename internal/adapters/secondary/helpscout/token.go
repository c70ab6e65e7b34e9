package helpscout

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "github.com/lorrc/helpdesk-metrics/internal/core/errors"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Authenticate performs one client-credentials exchange and holds the
// resulting bearer token for the lifetime of the client. Any failure is
// returned as *errors.AuthError and is not retried.
func (c *Client) Authenticate(ctx context.Context, creds Credentials) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type":    "client_credentials",
			"client_id":     creds.ClientID,
			"client_secret": creds.ClientSecret,
		}).
		Post(tokenPath)
	if err != nil {
		return &apperrors.AuthError{Cause: err}
	}
	if !resp.IsSuccess() {
		return &apperrors.AuthError{Cause: statusError(resp.StatusCode(), resp.Body())}
	}

	var tok tokenResponse
	if err := json.Unmarshal(resp.Body(), &tok); err != nil {
		return &apperrors.AuthError{Cause: fmt.Errorf("decode token response: %w", err)}
	}
	if tok.AccessToken == "" {
		return &apperrors.AuthError{Cause: apperrors.ErrMissingAccessToken}
	}

	c.token.Store(&tok.AccessToken)
	c.logger.InfoContext(ctx, "upstream access token acquired", "expires_in", tok.ExpiresIn)
	return nil
}
