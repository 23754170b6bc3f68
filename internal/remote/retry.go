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
	"fmt"
	"math/rand"
	"time"
)

// Policy is a bounded retry policy with exponential backoff and jitter.
// One policy instance serves both general outbound calls and export-job
// polling, so backoff behaviour stays uniform across the service.
type Policy struct {
	// MaxAttempts bounds the total number of tries (first call included).
	MaxAttempts int

	// BaseDelay is the backoff unit: attempt n sleeps BaseDelay<<n plus
	// up to BaseDelay of random jitter.
	BaseDelay time.Duration

	// Retryable decides whether an error is worth another attempt.
	// Defaults to IsRetryable.
	Retryable func(error) bool
}

// DefaultPolicy matches the service-wide convention: three attempts,
// half-second backoff unit.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond}
}

// Backoff returns the sleep duration before retrying after the given
// zero-based attempt.
func (p Policy) Backoff(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	return base<<uint(attempt) + time.Duration(rand.Int63n(int64(base)))
}

// Do runs op, retrying transient failures within the attempt budget.
// Non-retryable errors and context cancellation return immediately.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.Backoff(attempt - 1)):
			}
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("gave up after %d attempts: %w", attempts, lastErr)
}
