package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client is an HTTP Provider implementation for a GoTrue-style identity API.
type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

// NewClient creates a Client for the provider at baseURL, authenticating
// with the given service key.
func NewClient(baseURL, serviceKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// GetUser fetches an account with its signup metadata.
func (c *Client) GetUser(ctx context.Context, accountID string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, c.userPath(accountID), nil, &user); err != nil {
		return nil, fmt.Errorf("fetching user %s: %w", accountID, err)
	}
	return &user, nil
}

// ListFactors returns the account's enrolled TOTP factors.
func (c *Client) ListFactors(ctx context.Context, accountID string) ([]Factor, error) {
	var out struct {
		Factors []Factor `json:"factors"`
	}
	if err := c.do(ctx, http.MethodGet, c.userPath(accountID)+"/factors", nil, &out); err != nil {
		return nil, fmt.Errorf("listing factors for %s: %w", accountID, err)
	}
	return out.Factors, nil
}

// CreateChallenge issues a fresh single-use challenge for a factor.
func (c *Client) CreateChallenge(ctx context.Context, accountID, factorID string) (*Challenge, error) {
	var ch Challenge
	path := c.userPath(accountID) + "/factors/" + url.PathEscape(factorID) + "/challenge"
	if err := c.do(ctx, http.MethodPost, path, nil, &ch); err != nil {
		return nil, fmt.Errorf("creating challenge for factor %s: %w", factorID, err)
	}
	return &ch, nil
}

// VerifyChallenge submits a proof code against an issued challenge.
func (c *Client) VerifyChallenge(ctx context.Context, accountID, factorID, challengeID, code string) error {
	body := map[string]string{
		"challenge_id": challengeID,
		"code":         code,
	}
	path := c.userPath(accountID) + "/factors/" + url.PathEscape(factorID) + "/verify"
	if err := c.do(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("verifying challenge %s: %w", challengeID, err)
	}
	return nil
}

// EnrollFactor begins enrollment of a new TOTP factor.
func (c *Client) EnrollFactor(ctx context.Context, accountID, friendlyName string) (*Enrollment, error) {
	body := map[string]string{
		"factor_type":   "totp",
		"friendly_name": friendlyName,
	}
	var enr Enrollment
	if err := c.do(ctx, http.MethodPost, c.userPath(accountID)+"/factors", body, &enr); err != nil {
		return nil, fmt.Errorf("enrolling factor for %s: %w", accountID, err)
	}
	return &enr, nil
}

// DeleteFactor removes an enrolled factor.
func (c *Client) DeleteFactor(ctx context.Context, accountID, factorID string) error {
	path := c.userPath(accountID) + "/factors/" + url.PathEscape(factorID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("deleting factor %s: %w", factorID, err)
	}
	return nil
}

// UpdatePassword sets a new password for the account.
func (c *Client) UpdatePassword(ctx context.Context, accountID, newPassword string) error {
	body := map[string]string{"password": newPassword}
	if err := c.do(ctx, http.MethodPut, c.userPath(accountID), body, nil); err != nil {
		return fmt.Errorf("updating password for %s: %w", accountID, err)
	}
	return nil
}

// DeleteUser removes the account. The provider cascades dependent records.
func (c *Client) DeleteUser(ctx context.Context, accountID string) error {
	if err := c.do(ctx, http.MethodDelete, c.userPath(accountID), nil, nil); err != nil {
		return fmt.Errorf("deleting user %s: %w", accountID, err)
	}
	return nil
}

func (c *Client) userPath(accountID string) string {
	return "/admin/users/" + url.PathEscape(accountID)
}

// do performs one provider call. Non-2xx responses decode into *Error with
// the provider's message preserved verbatim.
func (c *Client) do(ctx context.Context, method, path string, body, dst any) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling identity provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if dst == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding provider response: %w", err)
	}
	return nil
}

// decodeError extracts the provider's error message from a failed response.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var envelope struct {
		Message   string `json:"message"`
		Msg       string `json:"msg"`
		ErrorDesc string `json:"error_description"`
	}
	msg := ""
	if err := json.Unmarshal(raw, &envelope); err == nil {
		switch {
		case envelope.Message != "":
			msg = envelope.Message
		case envelope.Msg != "":
			msg = envelope.Msg
		case envelope.ErrorDesc != "":
			msg = envelope.ErrorDesc
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	return &Error{Status: resp.StatusCode, Message: msg}
}
