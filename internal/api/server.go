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

// Package api exposes the aggregated communication views over HTTP.
// Response contracts: aggregate views return {"entities": [...]}, the
// flat feed returns {"events": [...]}, and fatal conditions return
// {"error": message} with a 5xx status. Partial degradation (some
// entities missing) never changes the status code from 200.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/delendaest/commhub/internal/auth"
	"github.com/delendaest/commhub/internal/config"
	"github.com/delendaest/commhub/internal/dialpad"
	"github.com/delendaest/commhub/internal/graph"
	"github.com/delendaest/commhub/internal/pipeline"
	"github.com/delendaest/commhub/internal/remote"
	"github.com/delendaest/commhub/internal/session"
)

// Server holds the handlers' collaborators.
type Server struct {
	pipeline  *pipeline.Pipeline
	dialpad   *dialpad.Client
	authn     *auth.Authenticator
	sessions  *session.Store
	mailboxes []string

	graphBaseURL string
	graphRetry   remote.Policy
	graphTimeout time.Duration
	pageCap      int
}

// Deps holds the server's dependencies.
type Deps struct {
	Pipeline *pipeline.Pipeline
	Dialpad  *dialpad.Client
	Authn    *auth.Authenticator
	Sessions *session.Store
	Graph    config.GraphConfig

	GraphRetry   remote.Policy
	GraphTimeout time.Duration
	PageCap      int
}

// NewServer builds the HTTP server around its collaborators.
func NewServer(deps Deps) *Server {
	return &Server{
		pipeline:     deps.Pipeline,
		dialpad:      deps.Dialpad,
		authn:        deps.Authn,
		sessions:     deps.Sessions,
		mailboxes:    deps.Graph.Mailboxes,
		graphBaseURL: deps.Graph.BaseURL,
		graphRetry:   deps.GraphRetry,
		graphTimeout: deps.GraphTimeout,
		pageCap:      deps.PageCap,
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// Auth flow
	r.Get("/auth", s.authn.HandleLogin)
	r.Get("/auth/callback", s.authn.HandleCallback)
	r.Get("/logout", s.authn.HandleLogout)

	// Call/text aggregation (service-level Dialpad credentials)
	r.Get("/aggregate", s.handleAggregateAll)
	r.Get("/aggregate/contact/{identity}", s.handleAggregateContact)
	r.Get("/timeline", s.handleTimeline)
	r.Get("/transcripts/{callID}", s.handleTranscript)

	// Mailbox and library views (delegated Graph token)
	r.Group(func(r chi.Router) {
		r.Use(s.authn.RequireSession)
		r.Get("/email/history", s.handleEmailHistory)
		r.Get("/email/search", s.handleEmailSearch)
		r.Get("/files", s.handleFiles)
		r.Get("/libraries", s.handleLibraries)
	})

	r.Get("/health", s.handleHealth)

	return r
}

// graphClient builds a per-request Graph client for the session's user.
func (s *Server) graphClient(ctx context.Context, sess *session.Session) *graph.Client {
	return graph.NewClient(graph.Config{
		HTTPClient: s.authn.GraphClient(ctx, sess),
		BaseURL:    s.graphBaseURL,
		Retry:      s.graphRetry,
		Timeout:    s.graphTimeout,
		PageCap:    s.pageCap,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "redis unhealthy")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
