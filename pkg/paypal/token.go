package paypal

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Tokens are treated as expired this long before PayPal says so, to avoid
// using a token that dies mid-request.
const tokenExpiryBuffer = 5 * time.Minute

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// AccessToken returns a cached OAuth token when still valid, otherwise
// performs the client-credentials grant and caches the result.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.accessToken != "" && c.tokenExpiresAt.After(c.now()) {
		token := c.accessToken
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	creds, err := c.Credentials()
	if err != nil {
		return "", err
	}

	log.Println("[PayPal] Requesting new access token")

	auth := base64.StdEncoding.EncodeToString([]byte(creds.ClientID + ":" + creds.ClientSecret))
	url := c.apiBase(creds.Mode) + "/v1/oauth2/token"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url,
		strings.NewReader("grant_type=client_credentials"))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Basic "+auth)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get paypal access token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read paypal token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Body: string(body)}
		log.Printf("[PayPal] Token request failed: %v", apiErr)
		return "", fmt.Errorf("failed to get paypal access token: %w", apiErr)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("failed to decode paypal token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("no access token returned from paypal")
	}

	c.mu.Lock()
	c.accessToken = tr.AccessToken
	c.tokenExpiresAt = c.now().Add(time.Duration(tr.ExpiresIn)*time.Second - tokenExpiryBuffer)
	c.mu.Unlock()

	return tr.AccessToken, nil
}

// InvalidateToken drops the cached token. Called when admin settings change
// so a sandbox/live switch takes effect without a restart.
func (c *Client) InvalidateToken() {
	c.mu.Lock()
	c.accessToken = ""
	c.tokenExpiresAt = time.Time{}
	c.mu.Unlock()
}
