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

import "strings"

// Canonicalize normalizes a contact identity for equality matching.
// Identities containing '@' are treated as email addresses (lowercased
// and trimmed); everything else is treated as a phone number.
//
// Phone canonicalization is deliberately literal: strip every character
// except digits and a leading '+'. No country-code normalization is
// applied, so "+15551234567" and "5551234567" canonicalize to different
// values and do not match each other.
func Canonicalize(identity string) string {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return ""
	}
	if strings.Contains(identity, "@") {
		return strings.ToLower(identity)
	}
	return canonicalizePhone(identity)
}

func canonicalizePhone(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Matcher decides whether an event involves a target contact identity.
type Matcher struct {
	target string
}

// NewMatcher creates a matcher for the given raw identity.
func NewMatcher(rawIdentity string) Matcher {
	return Matcher{target: Canonicalize(rawIdentity)}
}

// Target returns the canonical form of the matcher's identity.
func (m Matcher) Target() string { return m.target }

// Matches reports whether any of the event's directional identity fields
// canonicalizes to the target. An empty or absent identity never matches
// a non-empty target, so records with missing fields cannot match by
// accident.
func (m Matcher) Matches(e Event) bool {
	if m.target == "" {
		return false
	}
	for _, p := range e.participants {
		if c := Canonicalize(p); c != "" && c == m.target {
			return true
		}
	}
	return false
}
