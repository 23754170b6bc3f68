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

// Package fanout applies an operation to every element of a collection
// with a bounded number of goroutines in flight. Each element's failure
// is isolated: one failing element never aborts the others.
package fanout

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultLimit keeps per-entity fan-out low to respect third-party rate
// limits.
const DefaultLimit = 5

// Failure records one input's error along with its input position.
type Failure struct {
	Index int
	Err   error
}

// Map runs fn for every input with at most limit concurrently in flight
// (limit <= 0 selects DefaultLimit; the sequential case is limit = 1).
// Successful outputs come back in input order; failures are collected
// separately and never propagated as an error.
func Map[T, R any](ctx context.Context, inputs []T, limit int, fn func(ctx context.Context, in T) (R, error)) ([]R, []Failure) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	results := make([]R, len(inputs))
	ok := make([]bool, len(inputs))

	var mu sync.Mutex
	var failures []Failure

	var g errgroup.Group
	g.SetLimit(limit)

	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				mu.Lock()
				failures = append(failures, Failure{Index: i, Err: err})
				mu.Unlock()
				return nil
			}

			out, err := fn(ctx, in)
			if err != nil {
				mu.Lock()
				failures = append(failures, Failure{Index: i, Err: err})
				mu.Unlock()
				return nil
			}

			results[i] = out
			ok[i] = true
			return nil
		})
	}

	// Worker funcs always return nil; failures travel in the slice.
	_ = g.Wait()

	kept := make([]R, 0, len(inputs))
	for i, r := range results {
		if ok[i] {
			kept = append(kept, r)
		}
	}
	return kept, failures
}
