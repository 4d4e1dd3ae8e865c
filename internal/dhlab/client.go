// Package dhlab is a client for the DH-lab concordance API.
package dhlab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	internalErrors "github.com/gcbaptista/imagination-concordance/internal/errors"
	"github.com/gcbaptista/imagination-concordance/internal/filter"
)

// maxErrorBody bounds how much of a failed response is kept for the error message.
const maxErrorBody = 64 << 10

// ClientOptions configures a Client.
type ClientOptions struct {
	Endpoint          string
	RequestsPerSecond float64 // 0 disables pacing
	Burst             int
	Timeout           time.Duration // 0 keeps the transport defaults
	HTTPClient        *http.Client
	Logger            *slog.Logger
}

// Client posts concordance requests. It issues exactly one HTTP request per
// call: there is no retry and no backoff.
type Client struct {
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a Client.
func NewClient(opts ClientOptions) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		endpoint:   opts.Endpoint,
		httpClient: httpClient,
		limiter:    limiter,
		logger:     logger.With("component", "dhlab"),
	}
}

// Concordance posts payload and decodes the response.
// Non-2xx responses and network failures are returned as *errors.TransportError.
func (c *Client) Concordance(ctx context.Context, payload filter.Payload) (*ConcordanceResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding concordance payload: %w", err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, internalErrors.NewNetworkError(err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating concordance request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("concordance request failed", "error", err)
		return nil, internalErrors.NewNetworkError(err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("concordance request rejected", "status", resp.StatusCode, "took", time.Since(start))
		return nil, internalErrors.NewStatusError(resp.StatusCode, string(text))
	}

	var decoded ConcordanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, internalErrors.NewNetworkError(fmt.Errorf("decoding concordance response: %w", err))
	}

	c.logger.Debug("concordance request completed",
		"candidates", len(payload.Identifiers),
		"hits", decoded.Conc.Len(),
		"took", time.Since(start))
	return &decoded, nil
}
