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

// Package paging drains remote paginated collections to exhaustion.
// Both continuation styles in this codebase are covered: opaque cursors
// that the caller echoes back (Dialpad) and complete next-page URLs
// returned by the server (Graph @odata.nextLink).
package paging

import (
	"context"
	"log/slog"
)

// DefaultItemCap bounds the total number of items drained from a single
// collection. A misbehaving or unbounded source truncates rather than
// looping forever.
const DefaultItemCap = 2000

// Page is one page of items plus the continuation for the next page.
// An empty Next means the collection is drained.
type Page[T any] struct {
	Items []T
	Next  string
}

// FetchFunc retrieves the page identified by the continuation token.
// For link-style sources the token is the page URL; for cursor-style
// sources it is the opaque cursor (empty on the first call).
type FetchFunc[T any] func(ctx context.Context, token string) (Page[T], error)

// Drain repeatedly fetches pages starting from the given token until the
// source stops returning a continuation or the item cap is reached.
// Items are returned in server page order, pages concatenated in fetch
// order. Any page error aborts the whole fetch: a partial result on error
// is indistinguishable from a legitimately drained collection.
func Drain[T any](ctx context.Context, start string, limit int, fetch FetchFunc[T]) ([]T, error) {
	if limit <= 0 {
		limit = DefaultItemCap
	}

	var items []T
	token := start
	first := true

	// A well-behaved source adds at least one item per page, so the item
	// cap also bounds page count; the explicit page bound covers sources
	// that return empty pages with a continuation forever.
	for pages := 0; first || token != ""; pages++ {
		if pages >= limit {
			slog.Warn("collection truncated at page cap", "pages", pages)
			return items, nil
		}
		first = false

		page, err := fetch(ctx, token)
		if err != nil {
			return nil, err
		}

		items = append(items, page.Items...)
		if len(items) >= limit {
			slog.Warn("collection truncated at item cap", "cap", limit)
			return items[:limit], nil
		}

		token = page.Next
	}

	return items, nil
}

// DrainLink drains a next-URL continuation collection starting at startURL.
func DrainLink[T any](ctx context.Context, startURL string, limit int, fetch FetchFunc[T]) ([]T, error) {
	return Drain(ctx, startURL, limit, fetch)
}

// DrainCursor drains a cursor continuation collection. The first call
// receives an empty cursor.
func DrainCursor[T any](ctx context.Context, limit int, fetch FetchFunc[T]) ([]T, error) {
	return Drain(ctx, "", limit, fetch)
}
