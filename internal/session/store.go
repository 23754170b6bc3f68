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

// Package session persists signed-in user sessions (profile + OAuth2
// token) in Redis with a TTL. The browser holds only an opaque session
// ID; tokens never leave the server side.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
)

const (
	// DefaultTTL matches the refresh-token-backed session lifetime.
	DefaultTTL = 24 * time.Hour

	// keyPrefix namespaces session keys in Redis.
	keyPrefix = "commhub:session:"
)

// ErrNotFound indicates the session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// User is the signed-in Graph user's profile.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session is one signed-in browser session.
type Session struct {
	ID    string        `json:"id"`
	User  User          `json:"user"`
	Token *oauth2.Token `json:"token"`
}

// Store keeps sessions in Redis.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore creates a session store. A zero ttl selects DefaultTTL.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// Save persists a session, assigning an ID when it has none, and
// returns the session ID.
func (s *Store) Save(ctx context.Context, sess *Session) (string, error) {
	if sess.ID == "" {
		sess.ID = uuid.New().String()
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}

	if err := s.rdb.Set(ctx, keyPrefix+sess.ID, data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("persist session: %w", err)
	}
	return sess.ID, nil
}

// Get loads a session by ID and slides its expiry.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.rdb.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	// Sliding expiry; best effort.
	s.rdb.Expire(ctx, keyPrefix+id, s.ttl)

	return &sess, nil
}

// Delete removes a session (logout).
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.rdb.Ping(ctx).Err()
}
