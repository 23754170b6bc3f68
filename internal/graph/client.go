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

// Package graph is the Microsoft Graph client: mailbox message search
// with a recent-messages fallback, profile lookup, and drive/site
// listing. Auth travels in the supplied http.Client (oauth2 transport).
package graph

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/delendaest/commhub/internal/fanout"
	"github.com/delendaest/commhub/internal/paging"
	"github.com/delendaest/commhub/internal/remote"
)

// DefaultBaseURL is the production Graph API endpoint.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

// Address is a sender or recipient.
type Address struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// Message is the slice of a Graph message this service consumes.
type Message struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	From    struct {
		EmailAddress Address `json:"emailAddress"`
	} `json:"from"`
	ToRecipients []struct {
		EmailAddress Address `json:"emailAddress"`
	} `json:"toRecipients"`
	ReceivedDateTime string `json:"receivedDateTime"`
	SentDateTime     string `json:"sentDateTime"`
	IsDraft          bool   `json:"isDraft"`
	WebLink          string `json:"webLink"`
	Body             struct {
		ContentType string `json:"contentType"`
		Content     string `json:"content"`
	} `json:"body"`
}

// Profile is the signed-in user's directory entry.
type Profile struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
}

// Drive is a document library.
type Drive struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	WebURL string `json:"webUrl"`
}

// Site is a SharePoint site with its document libraries.
type Site struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	WebURL string  `json:"webUrl"`
	Drives []Drive `json:"drives,omitempty"`
}

// DriveItem is a file or folder in a drive listing.
type DriveItem struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	WebURL string `json:"webUrl"`
	Size   int64  `json:"size"`
}

// Client calls the Microsoft Graph API on behalf of one token.
type Client struct {
	rc      *remote.Client
	baseURL string
	pageCap int
}

// Config holds the knobs for a Graph client.
type Config struct {
	HTTPClient *http.Client // must carry auth (oauth2 transport)
	BaseURL    string
	Timeout    time.Duration
	Retry      remote.Policy
	PageCap    int // pagination cap for folder listings
}

// NewClient creates a Graph API client.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		rc: remote.NewClient(remote.Config{
			HTTPClient: cfg.HTTPClient,
			Retry:      cfg.Retry,
			Timeout:    cfg.Timeout,
		}),
		baseURL: baseURL,
		pageCap: cfg.PageCap,
	}
}

// listResponse is a paged Graph collection reply.
type listResponse[T any] struct {
	Value    []T    `json:"value"`
	NextLink string `json:"@odata.nextLink"`
}

const messageSelect = "id,subject,from,toRecipients,receivedDateTime,sentDateTime,isDraft,webLink,body"

// SearchMessages runs a $search query against one mailbox and returns
// non-draft matches. A 403 surfaces as remote.ErrAccessDenied so the
// caller can skip that mailbox and continue with the rest.
func (c *Client) SearchMessages(ctx context.Context, mailbox, clause string, top int) ([]Message, error) {
	if top <= 0 {
		top = 50
	}
	params := url.Values{}
	params.Set("$search", fmt.Sprintf("%q", clause))
	params.Set("$count", "true")
	params.Set("$top", fmt.Sprintf("%d", top))
	params.Set("$select", messageSelect)

	searchURL := fmt.Sprintf("%s/users/%s/messages?%s", c.baseURL, url.PathEscape(mailbox), params.Encode())

	var page listResponse[Message]
	// ConsistencyLevel is required for $count/$search queries.
	if err := c.rc.GetJSON(ctx, searchURL, &page, remote.WithHeader("ConsistencyLevel", "eventual")); err != nil {
		return nil, fmt.Errorf("search mailbox %s: %w", mailbox, err)
	}

	msgs := make([]Message, 0, len(page.Value))
	for _, m := range page.Value {
		if m.IsDraft {
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// ListFolderMessages drains a mail folder of the signed-in user
// (e.g. "inbox", "sentitems"), following @odata.nextLink up to the page
// cap. Used as the client-side-filtering fallback when $search is not
// available for a mailbox.
func (c *Client) ListFolderMessages(ctx context.Context, folder string, top int) ([]Message, error) {
	if top <= 0 {
		top = 50
	}
	params := url.Values{}
	params.Set("$top", fmt.Sprintf("%d", top))
	params.Set("$select", messageSelect)

	startURL := fmt.Sprintf("%s/me/mailFolders/%s/messages?%s", c.baseURL, url.PathEscape(folder), params.Encode())

	return paging.DrainLink(ctx, startURL, c.pageCap, func(ctx context.Context, pageURL string) (paging.Page[Message], error) {
		var page listResponse[Message]
		if err := c.rc.GetJSON(ctx, pageURL, &page); err != nil {
			return paging.Page[Message]{}, fmt.Errorf("list folder %s: %w", folder, err)
		}
		return paging.Page[Message]{Items: page.Value, Next: page.NextLink}, nil
	})
}

// Me returns the signed-in user's profile.
func (c *Client) Me(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := c.rc.GetJSON(ctx, c.baseURL+"/me", &p); err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	return &p, nil
}

// ListDriveChildren lists the signed-in user's OneDrive root.
func (c *Client) ListDriveChildren(ctx context.Context) ([]DriveItem, error) {
	var page listResponse[DriveItem]
	if err := c.rc.GetJSON(ctx, c.baseURL+"/me/drive/root/children", &page); err != nil {
		return nil, fmt.Errorf("list drive root: %w", err)
	}
	return page.Value, nil
}

// ListSites returns the reachable SharePoint sites, each with its
// document libraries. Per-site drive listing fans out with bounded
// concurrency; a site whose drives cannot be listed is returned without
// them rather than failing the whole listing.
func (c *Client) ListSites(ctx context.Context) ([]Site, error) {
	var page listResponse[Site]
	if err := c.rc.GetJSON(ctx, c.baseURL+"/sites?search=*", &page); err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}

	sites, failures := fanout.Map(ctx, page.Value, fanout.DefaultLimit, func(ctx context.Context, site Site) (Site, error) {
		var drives listResponse[Drive]
		if err := c.rc.GetJSON(ctx, fmt.Sprintf("%s/sites/%s/drives", c.baseURL, url.PathEscape(site.ID)), &drives); err != nil {
			// Keep the site, just without drives.
			return site, nil
		}
		site.Drives = drives.Value
		return site, nil
	})
	for _, f := range failures {
		slog.Warn("site drive listing skipped", "error", f.Err)
	}
	return sites, nil
}
