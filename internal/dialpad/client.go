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

// Package dialpad is the client for the Dialpad call/SMS platform. It
// lists users via cursor-paged requests, retrieves call and text history
// through asynchronous stats exports, and proxies call transcripts.
package dialpad

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/delendaest/commhub/internal/cache"
	"github.com/delendaest/commhub/internal/paging"
	"github.com/delendaest/commhub/internal/remote"
	"github.com/delendaest/commhub/internal/timeline"
)

// DefaultBaseURL is the production Dialpad API endpoint.
const DefaultBaseURL = "https://dialpad.com/api/v2"

// User is a Dialpad user (an entity the pipeline iterates over).
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Client calls the Dialpad API.
type Client struct {
	rc      *remote.Client
	baseURL string

	userCap      int
	pollAttempts int
	pollBase     time.Duration

	statsCache *cache.Cache[[]timeline.Record]
}

// Config holds the knobs for a Dialpad client.
type Config struct {
	BaseURL     string
	BearerToken string
	Timeout     time.Duration // per-call budget, default 2m
	Retry       remote.Policy

	// RequestsPerSecond throttles outbound calls client-side; Dialpad
	// enforces its own quota with 429s.
	RequestsPerSecond float64

	UserCap      int           // pagination cap for the user listing
	PollAttempts int           // export poll budget, default 8
	PollBase     time.Duration // export poll backoff unit, default 500ms

	CacheSize int
	CacheTTL  time.Duration
}

// NewClient creates a Dialpad API client.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond)+1)
	}

	pollAttempts := cfg.PollAttempts
	if pollAttempts <= 0 {
		pollAttempts = 8
	}
	pollBase := cfg.PollBase
	if pollBase <= 0 {
		pollBase = 500 * time.Millisecond
	}

	return &Client{
		rc: remote.NewClient(remote.Config{
			Token:   cfg.BearerToken,
			Limiter: limiter,
			Retry:   cfg.Retry,
			Timeout: cfg.Timeout,
		}),
		baseURL:      baseURL,
		userCap:      cfg.UserCap,
		pollAttempts: pollAttempts,
		pollBase:     pollBase,
		statsCache:   cache.New[[]timeline.Record](cfg.CacheSize, cfg.CacheTTL),
	}
}

// usersPage is one page of the cursor-paged /users listing.
type usersPage struct {
	Items  []User `json:"items"`
	Cursor string `json:"cursor"`
}

// ListUsers drains the company user directory. The listing is
// cursor-paged: each response carries an opaque cursor echoed back on
// the next request until the server stops returning one.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	users, err := paging.DrainCursor(ctx, c.userCap, func(ctx context.Context, cursor string) (paging.Page[User], error) {
		params := url.Values{}
		params.Set("limit", "100")
		if cursor != "" {
			params.Set("cursor", cursor)
		}

		var page usersPage
		if err := c.rc.GetJSON(ctx, c.baseURL+"/users?"+params.Encode(), &page); err != nil {
			return paging.Page[User]{}, fmt.Errorf("list users: %w", err)
		}
		return paging.Page[User]{Items: page.Items, Next: page.Cursor}, nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// GetTranscript retrieves the structured transcript document for a call.
// The payload is passed through untouched.
func (c *Client) GetTranscript(ctx context.Context, callID string) (json.RawMessage, error) {
	var doc json.RawMessage
	if err := c.rc.GetJSON(ctx, c.baseURL+"/transcripts/"+url.PathEscape(callID), &doc); err != nil {
		return nil, fmt.Errorf("get transcript %s: %w", callID, err)
	}
	return doc, nil
}
