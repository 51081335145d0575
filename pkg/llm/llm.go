// Package llm sends a system/user prompt pair to a hosted language model and returns its text.
package llm

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// NoContent is returned in place of model text when a response carries none.
const NoContent = "No content generated"

// Request is one non-streaming generation call.
type Request struct {
	System string
	User   string
}

// Generator produces text for a prompt. Implementations make exactly one provider call.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Params are the decoding parameters fixed per deployment.
type Params struct {
	Model       string
	Temperature float64
	MaxTokens   int64
	TopP        float64
}

// Option configures a provider client.
type Option func(*options)

type options struct {
	baseURL string
	http    *http.Client
}

// WithBaseURL points the client at a different endpoint (for testing or proxies).
func WithBaseURL(u string) Option {
	return func(o *options) {
		o.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.http = hc
	}
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 120 * time.Second}
}

func orPlaceholder(text string) string {
	if text == "" {
		return NoContent
	}
	return text
}
