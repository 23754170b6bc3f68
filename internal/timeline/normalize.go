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
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Record is one source-specific row as parsed from an export report
// (tabular text keyed by column header). Export column sets vary between
// report revisions, so lookups go through field fallback lists.
type Record map[string]string

// EmailRecord is the slice of a Graph message the normalizer needs.
type EmailRecord struct {
	ID          string
	FromAddress string
	FromName    string
	ToAddresses []string
	Received    string // receivedDateTime, RFC3339
	Sent        string // sentDateTime, fallback when Received is empty
	Subject     string
	Body        string // already sanitized
}

// timestampFormats are tried in order. Zone-less representations are an
// observed source quirk and are interpreted as UTC.
var timestampFormats = []struct {
	layout string
	utc    bool
}{
	{time.RFC3339, false},
	{"2006-01-02T15:04:05", true},
	{"2006-01-02 15:04:05", true},
}

// ParseTimestamp parses a source timestamp into an absolute instant.
// Representations without a zone indicator are coerced to UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, f := range timestampFormats {
		if f.utc {
			if t, err := time.ParseInLocation(f.layout, s, time.UTC); err == nil {
				return t, nil
			}
			continue
		}
		if t, err := time.Parse(f.layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func (r Record) first(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(r[k]); v != "" {
			return v
		}
	}
	return ""
}

// NormalizeCall maps a call detail record into a canonical event.
func NormalizeCall(rec Record) (Event, error) {
	ts, err := ParseTimestamp(rec.first("date_started", "start_time", "date"))
	if err != nil {
		return Event{}, fmt.Errorf("call record: %w", err)
	}

	external := rec.first("external_number")
	internal := rec.first("internal_number")

	duration := 0
	if v := rec.first("duration", "duration_seconds"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			duration = int(f)
		}
	}

	return Event{
		Kind:            KindCall,
		ID:              rec.first("call_id", "id"),
		Direction:       rec.first("direction"),
		Counterparty:    Identity{Raw: external, Canonical: Canonicalize(external)},
		Timestamp:       ts,
		DurationSeconds: duration,
		participants:    []string{external, internal},
	}, nil
}

// NormalizeText maps a text message record into a canonical event.
func NormalizeText(rec Record) (Event, error) {
	ts, err := ParseTimestamp(rec.first("date", "created_date", "date_sent"))
	if err != nil {
		return Event{}, fmt.Errorf("text record: %w", err)
	}

	from := rec.first("from_phone", "from_number")
	to := rec.first("to_phone", "to_number")

	counterparty := to
	if strings.EqualFold(rec.first("direction"), "inbound") {
		counterparty = from
	}

	return Event{
		Kind:         KindText,
		ID:           rec.first("id", "text_id"),
		Direction:    rec.first("direction"),
		Counterparty: Identity{Raw: counterparty, Canonical: Canonicalize(counterparty)},
		Timestamp:    ts,
		Body:         rec.first("text_content", "text", "message"),
		participants: []string{from, to},
	}, nil
}

// NormalizeEmail maps a mailbox message into a canonical event.
func NormalizeEmail(rec EmailRecord) (Event, error) {
	raw := rec.Received
	if raw == "" {
		raw = rec.Sent
	}
	ts, err := ParseTimestamp(raw)
	if err != nil {
		return Event{}, fmt.Errorf("email record: %w", err)
	}

	participants := make([]string, 0, len(rec.ToAddresses)+1)
	participants = append(participants, rec.FromAddress)
	participants = append(participants, rec.ToAddresses...)

	return Event{
		Kind:         KindEmail,
		ID:           rec.ID,
		Counterparty: Identity{Raw: rec.FromAddress, Canonical: Canonicalize(rec.FromAddress)},
		Timestamp:    ts,
		Subject:      rec.Subject,
		Body:         rec.Body,
		participants: participants,
	}, nil
}

// NormalizeCalls converts a batch of call records, dropping any that
// cannot be normalized. A bad record is never fatal to the batch.
func NormalizeCalls(recs []Record) []Event {
	return normalizeBatch(recs, NormalizeCall, "call")
}

// NormalizeTexts converts a batch of text records, dropping malformed ones.
func NormalizeTexts(recs []Record) []Event {
	return normalizeBatch(recs, NormalizeText, "text")
}

// NormalizeEmails converts a batch of email records, dropping malformed ones.
func NormalizeEmails(recs []EmailRecord) []Event {
	return normalizeBatch(recs, NormalizeEmail, "email")
}

func normalizeBatch[T any](recs []T, normalize func(T) (Event, error), kind string) []Event {
	events := make([]Event, 0, len(recs))
	for _, rec := range recs {
		ev, err := normalize(rec)
		if err != nil {
			slog.Warn("dropping unparseable record", "kind", kind, "error", err)
			continue
		}
		events = append(events, ev)
	}
	return events
}
