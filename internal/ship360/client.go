package ship360

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	errx "github.com/shipchat-core/server/internal/core/error"
	logx "github.com/shipchat-core/server/pkg/logger"
)

// Config holds the provider endpoints and credentials, sourced from the
// environment.
type Config struct {
	TokenURL      string        `envconfig:"SP360_TOKEN_URL" required:"true"`
	TokenUsername string        `envconfig:"SP360_TOKEN_USERNAME" required:"true"`
	TokenPassword string        `envconfig:"SP360_TOKEN_PASSWORD" required:"true"`
	RateShopURL   string        `envconfig:"SP360_RATE_SHOP_URL" required:"true"`
	ShipmentsURL  string        `envconfig:"SP360_SHIPMENTS_URL" required:"true"`
	TrackingURL   string        `envconfig:"SP360_TRACKING_URL" required:"true"`
	HTTPTimeout   time.Duration `envconfig:"SP360_HTTP_TIMEOUT" default:"30s"`
}

// Client talks to the shipping provider's REST API. All calls are single-shot:
// nothing is retried, and label creation and cancellation are not idempotent.
type Client struct {
	cfg    Config
	http   *http.Client
	tokens *TokenSource
}

// New builds a Client with a bounded per-call timeout and a cached token
// source.
func New(cfg Config) *Client {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	return &Client{
		cfg:    cfg,
		http:   httpClient,
		tokens: NewTokenSource(cfg, httpClient),
	}
}

// Tokens exposes the credential cache, mainly for composition and tests.
func (c *Client) Tokens() *TokenSource {
	return c.tokens
}

// doJSON issues an authenticated request and decodes a 2xx JSON response into
// out. Non-2xx responses become UpstreamError; transport timeouts become
// UpstreamTimeout.
func (c *Client) doJSON(ctx context.Context, method, rawURL string, headers map[string]string, body any, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return wrapTransportErr(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return wrapTransportErr(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logx.Warn().
			Str("method", method).
			Str("url", rawURL).
			Int("status", resp.StatusCode).
			Msg("Provider returned non-2xx response")
		return errx.WrapUpstream(resp.StatusCode, string(data))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// wrapTransportErr distinguishes deadline expiry from other transport
// failures.
func wrapTransportErr(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return errx.WrapTimeout(err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errx.WrapTimeout(err)
	}
	return errx.New(err, http.StatusBadGateway, errx.UpstreamErrorMessage)
}
