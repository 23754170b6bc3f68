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

// Package timeline defines the canonical communication event and the
// pure transforms over it: normalization of source-specific records,
// contact identity matching, and merge/sort/filter assembly. Raw source
// shapes never leak past this package's normalizers.
package timeline

import "time"

// Kind discriminates the source record type of an event.
type Kind string

const (
	KindCall  Kind = "call"
	KindText  Kind = "text"
	KindEmail Kind = "email"
)

// Identity is a contact identity in raw and canonical form.
type Identity struct {
	Raw       string `json:"raw"`
	Canonical string `json:"canonical"`
}

// Event is the canonical shape every call, text, and email record is
// normalized into. Timestamp is always a valid instant; records whose
// timestamps cannot be parsed are dropped before an Event exists.
type Event struct {
	Kind         Kind      `json:"kind"`
	ID           string    `json:"id"`
	Direction    string    `json:"direction,omitempty"`
	Counterparty Identity  `json:"counterparty"`
	Timestamp    time.Time `json:"timestamp"`

	// Payload, by kind.
	DurationSeconds int    `json:"duration_seconds,omitempty"` // calls
	Body            string `json:"body,omitempty"`             // texts, emails
	Subject         string `json:"subject,omitempty"`          // emails

	// participants holds every directional identity field of the source
	// record in raw form, for contact matching. Not serialised.
	participants []string
}

// Participants returns the raw directional identity fields of the source
// record (external/internal number, from/to address).
func (e Event) Participants() []string {
	return e.participants
}
