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

// Package cache provides a size-capped, time-boxed result cache for
// per-entity export results. It is an optimization only: export reports
// are expensive to regenerate, but nothing treats the cache as a source
// of truth, and staleness-sensitive callers can bypass it.
package cache

import (
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// DefaultSize caps the number of cached entries.
	DefaultSize = 500

	// DefaultTTL bounds staleness of a cached export result.
	DefaultTTL = time.Hour
)

// Cache is a bounded LRU with per-entry expiry.
type Cache[V any] struct {
	lru *expirable.LRU[string, V]
}

// New creates a cache. Zero values select the defaults.
func New[V any](size int, ttl time.Duration) *Cache[V] {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[V]{lru: expirable.NewLRU[string, V](size, nil, ttl)}
}

// Key builds the canonical cache key for one entity's export result.
func Key(entityID, kind string, days int) string {
	return fmt.Sprintf("%s:%s:%d", entityID, kind, days)
}

// Get returns the cached value for key, if present and unexpired.
func (c *Cache[V]) Get(key string) (V, bool) {
	return c.lru.Get(key)
}

// Set stores a value under key.
func (c *Cache[V]) Set(key string, value V) {
	c.lru.Add(key, value)
}
