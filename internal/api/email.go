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
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/delendaest/commhub/internal/auth"
	"github.com/delendaest/commhub/internal/graph"
	"github.com/delendaest/commhub/internal/remote"
	"github.com/delendaest/commhub/internal/sanitize"
	"github.com/delendaest/commhub/internal/session"
	"github.com/delendaest/commhub/internal/timeline"
)

// authSession returns the session attached by the RequireSession
// middleware. Handlers behind the middleware can rely on its presence.
func authSession(r *http.Request) (*session.Session, bool) {
	return auth.FromContext(r.Context())
}

// toEmailRecords converts Graph messages to normalizer input, stripping
// quoted reply content from each body.
func toEmailRecords(mailbox string, msgs []graph.Message) []timeline.EmailRecord {
	recs := make([]timeline.EmailRecord, 0, len(msgs))
	for _, m := range msgs {
		to := make([]string, 0, len(m.ToRecipients))
		for _, r := range m.ToRecipients {
			to = append(to, r.EmailAddress.Address)
		}
		recs = append(recs, timeline.EmailRecord{
			ID:          mailbox + ":" + m.ID,
			FromAddress: m.From.EmailAddress.Address,
			FromName:    m.From.EmailAddress.Name,
			ToAddresses: to,
			Received:    m.ReceivedDateTime,
			Sent:        m.SentDateTime,
			Subject:     m.Subject,
			Body:        sanitize.StripQuoted(m.Body.Content),
		})
	}
	return recs
}

// handleEmailHistory searches the configured mailboxes for interactions
// with a target address. A mailbox the signed-in user cannot read is
// skipped; any other search failure is fatal to the request.
func (s *Server) handleEmailHistory(w http.ResponseWriter, r *http.Request) {
	sess, _ := authSession(r)

	targetEmail := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("email")))
	subject := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("subject")))
	if targetEmail == "" {
		writeError(w, http.StatusBadRequest, "email query parameter is required")
		return
	}

	clause := fmt.Sprintf("from:%s OR to:%s", targetEmail, targetEmail)
	if subject != "" {
		clause += " AND " + subject
	}

	gc := s.graphClient(r.Context(), sess)

	var events []timeline.Event
	for _, mailbox := range s.mailboxes {
		msgs, err := gc.SearchMessages(r.Context(), mailbox, clause, 50)
		if errors.Is(err, remote.ErrAccessDenied) {
			slog.Warn("skipping mailbox: no access", "mailbox", mailbox, "user", sess.User.ID)
			continue
		}
		if err != nil {
			slog.Error("mailbox search failed", "mailbox", mailbox, "error", err)
			writeError(w, http.StatusBadGateway, "failed to fetch email history")
			return
		}
		events = append(events, timeline.NormalizeEmails(toEmailRecords(mailbox, msgs))...)
	}

	events = timeline.FilterText(events, subject)
	timeline.SortDesc(events)

	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

// handleEmailSearch is the client-side-filtering fallback over the
// signed-in user's own inbox and sent items, for tenants where $search
// is unavailable. Both folders are drained with paging and filtered
// locally against the target address.
func (s *Server) handleEmailSearch(w http.ResponseWriter, r *http.Request) {
	sess, _ := authSession(r)

	targetEmail := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("email")))
	subject := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("subject")))
	if targetEmail == "" {
		writeError(w, http.StatusBadRequest, "email query parameter is required")
		return
	}

	gc := s.graphClient(r.Context(), sess)

	var msgs []graph.Message
	for _, folder := range []string{"inbox", "sentitems"} {
		folderMsgs, err := gc.ListFolderMessages(r.Context(), folder, 50)
		if err != nil {
			slog.Error("folder listing failed", "folder", folder, "error", err)
			writeError(w, http.StatusBadGateway, "failed to fetch messages")
			return
		}
		msgs = append(msgs, folderMsgs...)
	}

	matcher := timeline.NewMatcher(targetEmail)
	events := timeline.NormalizeEmails(toEmailRecords("me", msgs))
	events = timeline.FilterText(timeline.MatchOnly(events, matcher), subject)
	timeline.SortDesc(events)

	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}
