/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package handler

import (
	"net/http"
	"net/url"

	"vailethchat/internal/identity"
	"vailethchat/internal/middleware"
	"vailethchat/internal/nlog"
	"vailethchat/internal/service"

	"github.com/gorilla/sessions"
)

// AuthHandler hands the login over to the OAuth broker and opens the session once it answers
type AuthHandler struct {
	verifier identity.Verifier
	accounts service.AccountService
	store    sessions.Store
	pages    *Pages
	loginURL string
	maxAge   int
	logger   nlog.Logger
}

func NewAuthHandler(verifier identity.Verifier, accounts service.AccountService, store sessions.Store, pages *Pages, loginURL string, maxAge int, logger nlog.Logger) *AuthHandler {
	return &AuthHandler{
		verifier: verifier,
		accounts: accounts,
		store:    store,
		pages:    pages,
		loginURL: loginURL,
		maxAge:   maxAge,
		logger:   logger,
	}
}

func (h *AuthHandler) Logf(format string, v ...any) {
	h.logger.Logf(format, v...)
}

// Login sends the browser to the broker, telling it where to come back
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.UserFrom(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	target, err := url.Parse(h.loginURL)
	if err != nil {
		h.Logf("Login URL is not valid: %v", err)
		h.pages.ServerError(w, r)
		return
	}
	query := target.Query()
	query.Set("return_to", callbackURL(r))
	target.RawQuery = query.Encode()

	http.Redirect(w, r, target.String(), http.StatusFound)
}

// Callback verifies the assertion returned by the broker, syncs the user and stores their id in the session
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	assertion := r.URL.Query().Get("token")
	if assertion == "" {
		h.pages.redirectWithFlash(w, r, flashError, "Login failed, please try again.", "/")
		return
	}

	id, err := h.verifier.Verify(assertion)
	if err != nil {
		h.Logf("Rejected identity assertion: %v", err)
		h.pages.redirectWithFlash(w, r, flashError, "Login failed, please try again.", "/")
		return
	}

	user, err := h.accounts.SyncIdentity(r.Context(), *id)
	if err != nil {
		h.pages.fail(w, r, err, "/")
		return
	}

	session, _ := h.store.Get(r, middleware.SessionName)
	session.Values[middleware.SessionUserID] = user.ID
	session.Options.MaxAge = h.maxAge
	if err := session.Save(r, w); err != nil {
		h.Logf("Saving session: %v", err)
		h.pages.ServerError(w, r)
		return
	}

	h.Logf("User {%s} logged in", user.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout marks the user offline and deletes the session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if user, ok := middleware.UserFrom(r.Context()); ok {
		if err := h.accounts.Logout(r.Context(), user.ID); err != nil {
			h.pages.fail(w, r, err, "/")
			return
		}
	}

	session, _ := h.store.Get(r, middleware.SessionName)
	delete(session.Values, middleware.SessionUserID)
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		h.Logf("Deleting session: %v", err)
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func callbackURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return (&url.URL{Scheme: scheme, Host: r.Host, Path: "/auth/callback"}).String()
}
