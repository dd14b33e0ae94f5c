package paypal

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"gorm.io/gorm"

	"hopelog_backend/internal/model"
)

const (
	sandboxAPIBase = "https://api-m.sandbox.paypal.com"
	liveAPIBase    = "https://api-m.paypal.com"
)

// ErrNotConfigured is returned when the PayPal client id or secret is missing
// from system settings, so misconfiguration is reported as such instead of
// surfacing later as an opaque authentication failure from PayPal.
var ErrNotConfigured = errors.New("paypal credentials are not configured")

type Credentials struct {
	ClientID     string
	ClientSecret string
	Mode         string
	CallbackURL  string
}

// APIError carries the upstream status and body of a failed PayPal call.
// Callers can distinguish client errors from provider outages via errors.As.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paypal api returned status %d: %s", e.Status, e.Body)
}

// CredentialSource provides the PayPal configuration. The production source
// reads the system_settings table; tests substitute a fixed one.
type CredentialSource interface {
	PayPalCredentials() (Credentials, error)
}

// Client talks to PayPal's REST API using credentials from a
// CredentialSource. The OAuth token cache is owned by the instance so tests
// can substitute a fake clock and admin credential updates can invalidate it.
type Client struct {
	source     CredentialSource
	httpClient *http.Client
	now        func() time.Time

	// baseURL overrides mode-based host resolution; used by tests.
	baseURL string

	mu             sync.Mutex
	accessToken    string
	tokenExpiresAt time.Time
}

func NewClient(db *gorm.DB) *Client {
	return newClient(&settingsStore{db: db})
}

func newClient(source CredentialSource) *Client {
	return &Client{
		source:     source,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
}

// Credentials resolves the PayPal configuration. A database error propagates;
// a missing client id or secret yields ErrNotConfigured.
func (c *Client) Credentials() (Credentials, error) {
	return c.source.PayPalCredentials()
}

// settingsStore reads PayPal configuration from the system_settings table on
// every call; credentials are never cached so admin updates apply to the next
// request.
type settingsStore struct {
	db *gorm.DB
}

func (s *settingsStore) PayPalCredentials() (Credentials, error) {
	var settings []model.SystemSetting
	err := s.db.Where("key IN ?", []string{
		model.SettingPayPalClientID,
		model.SettingPayPalClientSecret,
		model.SettingPayPalMode,
		model.SettingPayPalCallbackURL,
	}).Find(&settings).Error
	if err != nil {
		return Credentials{}, fmt.Errorf("could not read paypal settings: %w", err)
	}

	creds := Credentials{Mode: "sandbox"}
	for _, s := range settings {
		switch s.Key {
		case model.SettingPayPalClientID:
			creds.ClientID = s.Value
		case model.SettingPayPalClientSecret:
			creds.ClientSecret = s.Value
		case model.SettingPayPalMode:
			if s.Value != "" {
				creds.Mode = s.Value
			}
		case model.SettingPayPalCallbackURL:
			creds.CallbackURL = s.Value
		}
	}

	if creds.ClientID == "" || creds.ClientSecret == "" {
		return creds, ErrNotConfigured
	}
	return creds, nil
}

func (c *Client) apiBase(mode string) string {
	if c.baseURL != "" {
		return c.baseURL
	}
	if mode == "sandbox" {
		return sandboxAPIBase
	}
	return liveAPIBase
}
