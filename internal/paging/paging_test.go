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

package paging

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
)

// pagedSource serves a finite collection of size total in pages of size
// pageSize, using numeric string cursors.
func pagedSource(total, pageSize int, calls *int) FetchFunc[int] {
	return func(_ context.Context, token string) (Page[int], error) {
		*calls++
		start := 0
		if token != "" {
			start, _ = strconv.Atoi(token)
		}

		end := start + pageSize
		if end > total {
			end = total
		}

		items := make([]int, 0, end-start)
		for i := start; i < end; i++ {
			items = append(items, i)
		}

		next := ""
		if end < total {
			next = strconv.Itoa(end)
		}
		return Page[int]{Items: items, Next: next}, nil
	}
}

// TestDrain_FiniteCollection verifies that a finite collection of M
// items in pages of P comes back complete, in order, in ceil(M/P)
// requests.
func TestDrain_FiniteCollection(t *testing.T) {
	cases := []struct {
		total, pageSize, wantCalls int
	}{
		{total: 10, pageSize: 3, wantCalls: 4},
		{total: 9, pageSize: 3, wantCalls: 3},
		{total: 1, pageSize: 100, wantCalls: 1},
		{total: 0, pageSize: 10, wantCalls: 1},
	}

	for _, tc := range cases {
		calls := 0
		items, err := DrainCursor(context.Background(), 1000, pagedSource(tc.total, tc.pageSize, &calls))
		if err != nil {
			t.Fatalf("Drain(%d/%d) failed: %v", tc.total, tc.pageSize, err)
		}

		if len(items) != tc.total {
			t.Errorf("Drain(%d/%d): got %d items, want %d", tc.total, tc.pageSize, len(items), tc.total)
		}
		for i, v := range items {
			if v != i {
				t.Fatalf("Drain(%d/%d): item %d = %d, order not preserved", tc.total, tc.pageSize, i, v)
			}
		}
		if calls != tc.wantCalls {
			t.Errorf("Drain(%d/%d): %d requests, want %d", tc.total, tc.pageSize, calls, tc.wantCalls)
		}
	}
}

// TestDrain_UnboundedSourceTruncates verifies termination against a
// cyclic source that never stops returning a continuation.
func TestDrain_UnboundedSourceTruncates(t *testing.T) {
	items, err := DrainCursor(context.Background(), 25, func(_ context.Context, token string) (Page[int], error) {
		return Page[int]{Items: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, Next: "again"}, nil
	})
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if len(items) != 25 {
		t.Errorf("got %d items, want truncation at 25", len(items))
	}
}

// TestDrain_EmptyPagesTerminate verifies the page bound stops a source
// that returns empty pages with a continuation forever.
func TestDrain_EmptyPagesTerminate(t *testing.T) {
	items, err := DrainCursor(context.Background(), 10, func(_ context.Context, token string) (Page[int], error) {
		return Page[int]{Next: "again"}, nil
	})
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("got %d items, want 0", len(items))
	}
}

// TestDrain_PageErrorIsFatal verifies that any page failure aborts the
// whole fetch with no partial result.
func TestDrain_PageErrorIsFatal(t *testing.T) {
	boom := errors.New("boom")
	page := 0

	items, err := DrainCursor(context.Background(), 1000, func(_ context.Context, token string) (Page[int], error) {
		page++
		if page == 3 {
			return Page[int]{}, fmt.Errorf("page 3: %w", boom)
		}
		return Page[int]{Items: []int{page}, Next: "more"}, nil
	})

	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
	if items != nil {
		t.Errorf("got %d items on error, want none", len(items))
	}
}

// TestDrain_DefaultCap verifies that a non-positive cap falls back to
// the package default.
func TestDrain_DefaultCap(t *testing.T) {
	items, err := DrainCursor(context.Background(), 0, func(_ context.Context, token string) (Page[int], error) {
		return Page[int]{Items: make([]int, 100), Next: "again"}, nil
	})
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if len(items) != DefaultItemCap {
		t.Errorf("got %d items, want default cap %d", len(items), DefaultItemCap)
	}
}
