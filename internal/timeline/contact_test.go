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

import "testing"

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"formatted phone", "+1 (555) 123-4567", "+15551234567"},
		{"bare digits", "5551234567", "5551234567"},
		{"interior plus dropped", "555+123", "555123"},
		{"email lowercased", "Alice@Example.COM", "alice@example.com"},
		{"email trimmed", "  bob@example.com ", "bob@example.com"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Canonicalize(tc.input); got != tc.want {
				t.Errorf("Canonicalize(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

// TestCanonicalize_Idempotent verifies canonical forms are fixed points.
func TestCanonicalize_Idempotent(t *testing.T) {
	for _, s := range []string{"+1 (555) 123-4567", "Alice@Example.COM", "5551234567"} {
		once := Canonicalize(s)
		if twice := Canonicalize(once); twice != once {
			t.Errorf("Canonicalize(%q): second pass %q != first pass %q", s, twice, once)
		}
	}
}

// TestCanonicalize_NoCountryCodeNormalization pins the literal matching
// rule: a number with a country prefix and the same number without one
// are distinct identities.
func TestCanonicalize_NoCountryCodeNormalization(t *testing.T) {
	with := Canonicalize("+15551234567")
	without := Canonicalize("5551234567")
	if with == without {
		t.Errorf("%q and %q canonicalize to the same value; they must stay distinct", with, without)
	}
}

func TestMatcher(t *testing.T) {
	call := Event{
		Kind:         KindCall,
		participants: []string{"+1 (555) 123-4567", "+15550001111"},
	}
	email := Event{
		Kind:         KindEmail,
		participants: []string{"Alice@Example.COM", "bob@example.com"},
	}

	if !NewMatcher("+15551234567").Matches(call) {
		t.Error("formatted external number should match canonical target")
	}
	if NewMatcher("5551234567").Matches(call) {
		t.Error("number without country prefix must not match the + form")
	}
	if !NewMatcher("alice@example.com").Matches(email) {
		t.Error("address match should be case-insensitive")
	}
	if NewMatcher("carol@example.com").Matches(email) {
		t.Error("unrelated address must not match")
	}
}

// TestMatcher_EmptyNeverMatches verifies that missing identity fields
// cannot create accidental matches in either direction.
func TestMatcher_EmptyNeverMatches(t *testing.T) {
	withEmpty := Event{participants: []string{"", "+15551234567"}}
	if NewMatcher("").Matches(withEmpty) {
		t.Error("empty target must never match")
	}
	if NewMatcher("   ").Matches(withEmpty) {
		t.Error("whitespace target must never match")
	}
	blank := Event{participants: []string{"", ""}}
	if NewMatcher("+15551234567").Matches(blank) {
		t.Error("event with only empty participants must not match")
	}
}
