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

package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// daysParam reads the lookback window from the query string. Invalid or
// missing values default silently downstream.
func daysParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil {
		return 0
	}
	return n
}

// handleAggregateAll returns every entity with its full call/text
// history over the lookback window.
func (s *Server) handleAggregateAll(w http.ResponseWriter, r *http.Request) {
	groups, err := s.pipeline.AggregateAll(r.Context(), daysParam(r))
	if err != nil {
		slog.Error("aggregate failed", "error", err)
		writeError(w, http.StatusBadGateway, "failed to aggregate history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entities": groups})
}

// handleAggregateContact returns only entities that interacted with the
// given identity, restricted to the matching events.
func (s *Server) handleAggregateContact(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")
	if identity == "" {
		writeError(w, http.StatusBadRequest, "contact identity is required")
		return
	}

	groups, err := s.pipeline.AggregateContact(r.Context(), identity, daysParam(r), r.URL.Query().Get("filter"))
	if err != nil {
		slog.Error("contact aggregate failed", "contact", identity, "error", err)
		writeError(w, http.StatusBadGateway, "failed to aggregate history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entities": groups})
}

// handleTimeline returns the flat, newest-first feed for a contact.
func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	contact := r.URL.Query().Get("contact")
	if contact == "" {
		writeError(w, http.StatusBadRequest, "contact query parameter is required")
		return
	}

	events, err := s.pipeline.ContactTimeline(r.Context(), contact, daysParam(r))
	if err != nil {
		slog.Error("timeline failed", "contact", contact, "error", err)
		writeError(w, http.StatusBadGateway, "failed to build timeline")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

// handleTranscript proxies the structured transcript document for a call.
func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callID")

	doc, err := s.dialpad.GetTranscript(r.Context(), callID)
	if err != nil {
		slog.Error("transcript fetch failed", "call", callID, "error", err)
		writeError(w, http.StatusBadGateway, "failed to fetch transcript")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

// handleFiles lists the signed-in user's OneDrive root.
func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	sess, _ := authSession(r)
	items, err := s.graphClient(r.Context(), sess).ListDriveChildren(r.Context())
	if err != nil {
		slog.Error("drive listing failed", "user", sess.User.ID, "error", err)
		writeError(w, http.StatusBadGateway, "failed to list files")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": items})
}

// handleLibraries lists reachable SharePoint sites and their libraries.
func (s *Server) handleLibraries(w http.ResponseWriter, r *http.Request) {
	sess, _ := authSession(r)
	sites, err := s.graphClient(r.Context(), sess).ListSites(r.Context())
	if err != nil {
		slog.Error("site listing failed", "user", sess.User.ID, "error", err)
		writeError(w, http.StatusBadGateway, "failed to list libraries")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sites": sites})
}
