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
	"sort"
	"strings"
)

// Group is one entity's slice of the assembled timeline.
type Group struct {
	EntityID   string  `json:"id"`
	EntityName string  `json:"name"`
	Identity   string  `json:"identity,omitempty"`
	Events     []Event `json:"events"`
}

// SortDesc orders events newest first. Events sharing a timestamp keep
// their input order.
func SortDesc(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
}

// MatchOnly returns the events involving the matcher's target identity.
func MatchOnly(events []Event, m Matcher) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if m.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}

// FilterText returns the events whose subject or body contains the query,
// case-insensitively. An empty query keeps everything.
func FilterText(events []Event, query string) []Event {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return events
	}
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if strings.Contains(strings.ToLower(e.Subject), query) ||
			strings.Contains(strings.ToLower(e.Body), query) {
			out = append(out, e)
		}
	}
	return out
}

// PruneEmpty drops groups with no events, for callers that only want
// entities with at least one match.
func PruneEmpty(groups []Group) []Group {
	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		if len(g.Events) > 0 {
			out = append(out, g)
		}
	}
	return out
}

// Flatten merges all groups into one feed sorted newest first.
func Flatten(groups []Group) []Event {
	total := 0
	for _, g := range groups {
		total += len(g.Events)
	}
	events := make([]Event, 0, total)
	for _, g := range groups {
		events = append(events, g.Events...)
	}
	SortDesc(events)
	return events
}
