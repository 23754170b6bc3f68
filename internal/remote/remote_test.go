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

package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}
}

// TestWrapStatus verifies the status-to-error-class mapping.
func TestWrapStatus(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{200, nil},
		{204, nil},
		{400, ErrBadRequest},
		{401, ErrUnauthorised},
		{403, ErrAccessDenied},
		{404, ErrNotFound},
		{429, ErrRateLimited},
		{500, ErrServer},
		{503, ErrServer},
	}
	for _, tc := range cases {
		if got := WrapStatus(tc.status); !errors.Is(got, tc.want) {
			t.Errorf("WrapStatus(%d) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

// TestPolicy_RetriesTransient verifies that transient failures are
// retried within budget and eventually succeed.
func TestPolicy_RetriesTransient(t *testing.T) {
	calls := 0
	err := testPolicy().Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return ErrServer
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if calls != 3 {
		t.Errorf("op ran %d times, want 3", calls)
	}
}

// TestPolicy_NoRetryOnPermanent verifies that non-retryable errors
// return immediately.
func TestPolicy_NoRetryOnPermanent(t *testing.T) {
	calls := 0
	err := testPolicy().Do(context.Background(), func(ctx context.Context) error {
		calls++
		return ErrBadRequest
	})
	if !errors.Is(err, ErrBadRequest) {
		t.Fatalf("err = %v, want ErrBadRequest", err)
	}
	if calls != 1 {
		t.Errorf("op ran %d times, want 1", calls)
	}
}

// TestPolicy_BudgetExhaustion verifies that a persistently failing op
// gives up after MaxAttempts with the last error wrapped.
func TestPolicy_BudgetExhaustion(t *testing.T) {
	calls := 0
	err := testPolicy().Do(context.Background(), func(ctx context.Context) error {
		calls++
		return ErrRateLimited
	})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want wrapped ErrRateLimited", err)
	}
	if calls != 3 {
		t.Errorf("op ran %d times, want 3", calls)
	}
}

// TestClient_GetRetries429 verifies that GETs retry throttled responses.
func TestClient_GetRetries429(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	c := NewClient(Config{Retry: testPolicy(), Timeout: time.Second})

	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.GetJSON(context.Background(), server.URL, &out); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if !out.OK {
		t.Error("response not decoded")
	}
	if calls != 3 {
		t.Errorf("server saw %d requests, want 3", calls)
	}
}

// TestClient_PostNotRetried verifies that POSTs are never retried: a
// duplicate submission could create a duplicate export job upstream.
func TestClient_PostNotRetried(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(Config{Retry: testPolicy(), Timeout: time.Second})

	err := c.PostJSON(context.Background(), server.URL, map[string]string{"a": "b"}, nil)
	if !errors.Is(err, ErrServer) {
		t.Fatalf("err = %v, want ErrServer", err)
	}
	if calls != 1 {
		t.Errorf("server saw %d requests, want exactly 1", calls)
	}
}

// TestClient_BearerToken verifies the Authorization header is attached.
func TestClient_BearerToken(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := NewClient(Config{Token: "secret-token", Retry: testPolicy(), Timeout: time.Second})
	if err := c.GetJSON(context.Background(), server.URL, &struct{}{}); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if got != "Bearer secret-token" {
		t.Errorf("Authorization = %q, want bearer token", got)
	}
}
