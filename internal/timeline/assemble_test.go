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

package timeline

import (
	"testing"
	"time"
)

func at(offset int) time.Time {
	return time.Date(2025, 5, 7, 12, 0, 0, 0, time.UTC).Add(time.Duration(offset) * time.Minute)
}

func TestSortDesc(t *testing.T) {
	events := []Event{
		{ID: "a", Timestamp: at(1)},
		{ID: "b", Timestamp: at(5)},
		{ID: "c", Timestamp: at(3)},
	}
	SortDesc(events)
	want := []string{"b", "c", "a"}
	for i, id := range want {
		if events[i].ID != id {
			t.Fatalf("position %d = %q, want %q", i, events[i].ID, id)
		}
	}
	for i := 1; i < len(events); i++ {
		if events[i].Timestamp.After(events[i-1].Timestamp) {
			t.Fatalf("events not descending at %d", i)
		}
	}
}

// TestSortDesc_TieStability verifies events sharing a timestamp keep
// their input order.
func TestSortDesc_TieStability(t *testing.T) {
	events := []Event{
		{ID: "first", Timestamp: at(2)},
		{ID: "second", Timestamp: at(2)},
		{ID: "third", Timestamp: at(2)},
	}
	SortDesc(events)
	for i, id := range []string{"first", "second", "third"} {
		if events[i].ID != id {
			t.Fatalf("tie order broken: position %d = %q, want %q", i, events[i].ID, id)
		}
	}
}

func TestFilterText(t *testing.T) {
	events := []Event{
		{ID: "1", Subject: "Quarterly Budget review"},
		{ID: "2", Body: "the budget is final"},
		{ID: "3", Subject: "lunch?"},
	}

	got := FilterText(events, "BUDGET")
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "2" {
		t.Errorf("FilterText(BUDGET) = %v, want events 1 and 2", ids(got))
	}

	if got := FilterText(events, ""); len(got) != 3 {
		t.Errorf("empty query kept %d events, want all 3", len(got))
	}
	if got := FilterText(events, "nonexistent"); len(got) != 0 {
		t.Errorf("no-hit query kept %d events, want 0", len(got))
	}
}

func TestMatchOnly(t *testing.T) {
	events := []Event{
		{ID: "hit", participants: []string{"+1 (555) 123-4567"}},
		{ID: "miss", participants: []string{"+15559998888"}},
	}
	got := MatchOnly(events, NewMatcher("+15551234567"))
	if len(got) != 1 || got[0].ID != "hit" {
		t.Errorf("MatchOnly = %v, want [hit]", ids(got))
	}
}

func TestPruneEmpty(t *testing.T) {
	groups := []Group{
		{EntityID: "a", Events: []Event{{ID: "1"}}},
		{EntityID: "b"},
		{EntityID: "c", Events: []Event{{ID: "2"}}},
	}
	got := PruneEmpty(groups)
	if len(got) != 2 || got[0].EntityID != "a" || got[1].EntityID != "c" {
		t.Errorf("PruneEmpty kept %d groups, want a and c", len(got))
	}
}

func TestFlatten(t *testing.T) {
	groups := []Group{
		{EntityID: "a", Events: []Event{{ID: "old", Timestamp: at(1)}, {ID: "newest", Timestamp: at(9)}}},
		{EntityID: "b", Events: []Event{{ID: "mid", Timestamp: at(5)}}},
	}
	got := Flatten(groups)
	want := []string{"newest", "mid", "old"}
	if len(got) != len(want) {
		t.Fatalf("Flatten returned %d events, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d = %q, want %q", i, got[i].ID, id)
		}
	}
}

func ids(events []Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}
