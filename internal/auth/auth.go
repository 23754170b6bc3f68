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

// Package auth implements the Microsoft identity authorization-code
// flow. Tokens live server-side in the session store; the browser keeps
// only an opaque session cookie.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"

	"github.com/delendaest/commhub/internal/config"
	"github.com/delendaest/commhub/internal/graph"
	"github.com/delendaest/commhub/internal/session"
)

const (
	// SessionCookie carries the opaque session ID.
	SessionCookie = "commhub_session"

	stateCookie = "commhub_oauth_state"
)

// Scopes requested from the Microsoft identity platform. Mail.Read for
// the email history view, Sites.Read.All for library browsing,
// offline_access so sessions survive the access token's lifetime.
var Scopes = []string{
	"https://graph.microsoft.com/Mail.Read",
	"https://graph.microsoft.com/Sites.Read.All",
	"https://graph.microsoft.com/Files.Read",
	"offline_access",
}

// Authenticator handles login, the OAuth2 callback, and session lookup.
type Authenticator struct {
	oauth        *oauth2.Config
	sessions     *session.Store
	graphBaseURL string
}

// New creates an Authenticator for the configured app registration.
func New(cfg config.GraphConfig, sessions *session.Store) *Authenticator {
	return &Authenticator{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       Scopes,
			Endpoint:     microsoft.AzureADEndpoint(cfg.TenantID),
		},
		sessions:     sessions,
		graphBaseURL: cfg.BaseURL,
	}
}

// HandleLogin redirects the browser to the Microsoft login page.
func (a *Authenticator) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   300,
	})
	http.Redirect(w, r, a.oauth.AuthCodeURL(state), http.StatusFound)
}

// HandleCallback exchanges the authorization code, resolves the user's
// profile, and creates a session.
func (a *Authenticator) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stateParam := r.URL.Query().Get("state")
	cookie, err := r.Cookie(stateCookie)
	if err != nil || stateParam == "" || cookie.Value != stateParam {
		http.Error(w, "state mismatch", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing authorization code", http.StatusBadRequest)
		return
	}

	token, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		slog.Error("token exchange failed", "error", err)
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	gc := graph.NewClient(graph.Config{
		HTTPClient: a.oauth.Client(ctx, token),
		BaseURL:    a.graphBaseURL,
	})
	profile, err := gc.Me(ctx)
	if err != nil {
		slog.Error("profile lookup failed", "error", err)
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	email := profile.Mail
	if email == "" {
		email = profile.UserPrincipalName
	}

	id, err := a.sessions.Save(ctx, &session.Session{
		User: session.User{
			ID:    profile.ID,
			Name:  profile.DisplayName,
			Email: email,
		},
		Token: token,
	})
	if err != nil {
		slog.Error("session save failed", "error", err)
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
	})

	slog.Info("user signed in", "user", profile.ID)
	http.Redirect(w, r, "/", http.StatusFound)
}

// HandleLogout destroys the session.
func (a *Authenticator) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if err := a.sessions.Delete(r.Context(), cookie.Value); err != nil {
			slog.Warn("session delete failed", "error", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(w, r, "/auth", http.StatusFound)
}

// GraphClient builds a Graph client authenticated as the session's
// user. Token refresh happens inside the oauth2 transport.
func (a *Authenticator) GraphClient(ctx context.Context, sess *session.Session) *http.Client {
	return a.oauth.Client(ctx, sess.Token)
}

type ctxKey struct{}

// FromContext returns the session attached by RequireSession.
func FromContext(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(ctxKey{}).(*session.Session)
	return sess, ok
}

// RequireSession loads the session referenced by the request cookie and
// attaches it to the request context, redirecting anonymous requests to
// the login flow.
func (a *Authenticator) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil {
			http.Redirect(w, r, "/auth", http.StatusFound)
			return
		}

		sess, err := a.sessions.Get(r.Context(), cookie.Value)
		if errors.Is(err, session.ErrNotFound) {
			http.Redirect(w, r, "/auth", http.StatusFound)
			return
		}
		if err != nil {
			slog.Error("session lookup failed", "error", err)
			http.Error(w, "session lookup failed", http.StatusInternalServerError)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, sess)))
	})
}
