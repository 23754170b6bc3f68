// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package remote provides the shared outbound HTTP plumbing: a JSON client
// with per-call timeouts, a client-side rate limiter, a status-to-error
// mapping, and one retry policy applied uniformly to every caller.
package remote

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
)

// Client issues JSON requests against a remote API. Token and limiter are
// optional; an http.Client carrying its own auth transport (e.g. oauth2)
// works unchanged.
type Client struct {
	httpClient *http.Client
	token      string // bearer token; empty when the transport authenticates
	limiter    *rate.Limiter
	retry      Policy
	timeout    time.Duration
}

// Config holds the knobs for a remote client.
type Config struct {
	HTTPClient *http.Client
	Token      string
	Limiter    *rate.Limiter
	Retry      Policy
	Timeout    time.Duration // per-call budget; exports are slow, so default 2m
}

// NewClient creates a remote API client.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	retry := cfg.Retry
	if retry.MaxAttempts == 0 {
		retry = DefaultPolicy()
	}
	return &Client{
		httpClient: httpClient,
		token:      cfg.Token,
		limiter:    cfg.Limiter,
		retry:      retry,
		timeout:    timeout,
	}
}

// ReqOption mutates a request before it is sent (extra headers etc).
type ReqOption func(*http.Request)

// WithHeader sets a header on the outgoing request.
func WithHeader(key, value string) ReqOption {
	return func(r *http.Request) { r.Header.Set(key, value) }
}

// GetJSON issues a GET and decodes the JSON response into out.
// Transient failures are retried within the policy budget.
func (c *Client) GetJSON(ctx context.Context, rawURL string, out any, opts ...ReqOption) error {
	return c.retry.Do(ctx, func(ctx context.Context) error {
		return c.doJSON(ctx, http.MethodGet, rawURL, nil, out, opts...)
	})
}

// PostJSON issues a POST with a JSON body and decodes the response into out.
// POSTs are never retried here: the remote APIs offer no idempotency token,
// and a duplicate submission would create a duplicate export job.
func (c *Client) PostJSON(ctx context.Context, rawURL string, body, out any, opts ...ReqOption) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}
	return c.doJSON(ctx, http.MethodPost, rawURL, payload, out, opts...)
}

// Download fetches a URL and returns the full response body. Used for
// export report downloads, which can be large and slow; the call budget
// is double the normal timeout.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	var data []byte
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 2*c.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return fmt.Errorf("build download request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return &transportError{err: err}
		}
		defer resp.Body.Close()

		if err := WrapStatus(resp.StatusCode); err != nil {
			return fmt.Errorf("download returned HTTP %d: %w", resp.StatusCode, err)
		}

		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return &transportError{err: err}
		}
		return nil
	})
	return data, err
}

func (c *Client) doJSON(ctx context.Context, method, rawURL string, body []byte, out any, opts ...ReqOption) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &transportError{err: err}
	}
	defer resp.Body.Close()

	if err := WrapStatus(resp.StatusCode); err != nil {
		// Body is diagnostic only; never contains our credentials.
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		slog.Debug("remote call failed",
			"method", method,
			"status", resp.StatusCode,
			"body", string(detail),
		)
		return fmt.Errorf("%s returned HTTP %d: %w", method, resp.StatusCode, err)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
