package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client calls the Supabase Auth (GoTrue) REST API with the project's anon key.
type Client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

func NewClient(baseURL, anonKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type otpRequest struct {
	Email      string `json:"email"`
	CreateUser bool   `json:"create_user"`
}

// SendLoginLink implements identity.Provider: emails a magic link.
func (c *Client) SendLoginLink(ctx context.Context, email, redirectTo string) error {
	endpoint := c.baseURL + "/auth/v1/otp"
	if redirectTo != "" {
		endpoint += "?redirect_to=" + url.QueryEscape(redirectTo)
	}
	body, err := json.Marshal(otpRequest{Email: email, CreateUser: true})
	if err != nil {
		return err
	}
	return c.post(ctx, endpoint, "", body)
}

// Logout implements identity.Provider: revokes the session behind token.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.post(ctx, c.baseURL+"/auth/v1/logout", token, nil)
}

func (c *Client) post(ctx context.Context, endpoint, bearer string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Content-Type", "application/json")
	if bearer == "" {
		bearer = c.anonKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("auth request failed with status %d: %s", resp.StatusCode, string(msg))
	}
	return nil
}
