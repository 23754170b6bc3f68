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
	"errors"
	"net/http"
)

// Error classes for remote API responses. Handlers and the pipeline decide
// containment based on these: access-denied sub-resources are skipped,
// transient errors are retried, everything else escalates.
var (
	// ErrUnauthorised indicates the access token is invalid or expired.
	ErrUnauthorised = errors.New("remote: unauthorised")

	// ErrAccessDenied indicates the caller lacks permission for the
	// requested sub-resource (e.g. one mailbox among several).
	ErrAccessDenied = errors.New("remote: access denied")

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("remote: not found")

	// ErrRateLimited indicates the request was throttled upstream.
	ErrRateLimited = errors.New("remote: rate limited")

	// ErrBadRequest indicates the request was malformed.
	ErrBadRequest = errors.New("remote: bad request")

	// ErrServer indicates a server-side error from the remote API.
	ErrServer = errors.New("remote: server error")
)

// WrapStatus converts a non-2xx HTTP status code to an error class.
// Returns nil for success statuses.
func WrapStatus(statusCode int) error {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == http.StatusUnauthorized:
		return ErrUnauthorised
	case statusCode == http.StatusForbidden:
		return ErrAccessDenied
	case statusCode == http.StatusNotFound:
		return ErrNotFound
	case statusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case statusCode == http.StatusBadRequest:
		return ErrBadRequest
	case statusCode >= 500:
		return ErrServer
	default:
		return ErrBadRequest
	}
}

// IsRetryable reports whether an error is transient: network failures,
// throttling, and upstream 5xx. Timeouts surface as network errors from
// the HTTP client and are therefore retryable too.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrServer) {
		return true
	}
	var netErr *transportError
	return errors.As(err, &netErr)
}

// transportError wraps a network-level failure so the retry policy can
// distinguish it from remote status errors.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return "remote: transport: " + e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }
