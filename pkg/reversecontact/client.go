// Package reversecontact provides a client for the ReverseContact enrichment API.
package reversecontact

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when the API reports no match for the identifier.
var ErrNotFound = eris.New("reversecontact: no match")

// Payload is the raw enrichment response. Its schema belongs to the provider.
type Payload map[string]any

// Success reports the provider's success flag.
func (p Payload) Success() bool {
	v, _ := p["success"].(bool)
	return v
}

// Client defines the enrichment operations.
type Client interface {
	// ByEmail enriches a work email address.
	ByEmail(ctx context.Context, email string) (Payload, error)
	// ByLinkedInURL enriches a LinkedIn profile URL.
	ByLinkedInURL(ctx context.Context, profileURL string) (Payload, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a ReverseContact client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.reversecontact.com",
		http:    &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) ByEmail(ctx context.Context, email string) (Payload, error) {
	return c.lookup(ctx, "/enrichment", "email", email)
}

func (c *httpClient) ByLinkedInURL(ctx context.Context, profileURL string) (Payload, error) {
	return c.lookup(ctx, "/enrichment/profile", "linkedInUrl", profileURL)
}

func (c *httpClient) lookup(ctx context.Context, path, param, value string) (Payload, error) {
	q := url.Values{}
	q.Set("apikey", c.apiKey)
	q.Set(param, value)
	reqURL := c.baseURL + path + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "reversecontact: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(redact(err), "reversecontact: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "reversecontact: read response body")
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, eris.Errorf("reversecontact: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, eris.Wrapf(err, "reversecontact: unmarshal response (status %d)", resp.StatusCode)
	}

	if !payload.Success() {
		return nil, ErrNotFound
	}
	return payload, nil
}

// redact strips the request URL, which carries the API key, from transport errors.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
