// Package ipinfo looks up the owning organisation and country of public IP
// addresses via the ipinfo.io JSON API.
package ipinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-logr/logr"
)

const (
	DefaultBaseURL = "https://ipinfo.io"
	defaultTimeout = 10 * time.Second
)

// Info holds the subset of the ipinfo.io response we care about. Both fields
// may be empty when the service has no data for an address.
type Info struct {
	Org     string `json:"org"`
	Country string `json:"country"`
}

// Client queries the ipinfo.io API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logr.Logger
}

type Option func(*Client)

// WithBaseURL overrides the API endpoint. Used by tests and self-hosted
// mirrors.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = timeout }
}

func WithLogger(logger logr.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logr.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup returns the organisation and country of ip. A response without those
// keys yields an empty Info, not an error. Transport failures and non-200
// responses are errors.
func (c *Client) Lookup(ctx context.Context, ip string) (Info, error) {
	if ip == "" {
		return Info{}, fmt.Errorf("empty ip address")
	}

	url := fmt.Sprintf("%s/%s/json", c.baseURL, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Info{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Info{}, fmt.Errorf("ipinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Info{}, fmt.Errorf("ipinfo returned status %d for %s", resp.StatusCode, ip)
	}

	var info Info
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return Info{}, fmt.Errorf("failed to decode ipinfo response: %w", err)
	}

	c.logger.V(1).Info("Looked up IP info", "ip", ip, "org", info.Org, "country", info.Country)
	return info, nil
}
