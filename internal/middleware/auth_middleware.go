/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package middleware

import (
	"encoding/json"
	"net/http"

	"vailethchat/internal/apperr"
	"vailethchat/internal/nlog"
	"vailethchat/internal/service"

	"github.com/gorilla/sessions"
)

const (
	SessionName   = "auth-session"
	SessionUserID = "user_id"
)

// Auth resolves the user behind the session cookie.
// Every authenticated request refreshes the session lifetime and the user's presence.
type Auth struct {
	store    sessions.Store
	accounts service.AccountService
	maxAge   int
	logger   nlog.Logger
}

func NewAuth(store sessions.Store, accounts service.AccountService, maxAge int, logger nlog.Logger) *Auth {
	return &Auth{
		store:    store,
		accounts: accounts,
		maxAge:   maxAge,
		logger:   logger,
	}
}

// Session loads the user, when there is one, into the request context. Anonymous requests go through untouched.
func (a *Auth) Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := a.store.Get(r, SessionName)
		if err != nil {
			// Cookie signed with an old key, start over
			a.logger.Logf("Discarding unreadable session: %v", err)
		}

		userID, ok := session.Values[SessionUserID].(string)
		if !ok || userID == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := a.accounts.GetUser(r.Context(), userID)
		if apperr.IsNotFound(err) {
			delete(session.Values, SessionUserID)
			session.Options.MaxAge = -1
			session.Save(r, w)
			next.ServeHTTP(w, r)
			return
		}
		if err != nil {
			a.logger.Logf("Could not load session user {%s}: %v", userID, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if err := a.accounts.Touch(r.Context(), userID); err != nil {
			a.logger.Logf("Could not refresh presence of {%s}: %v", userID, err)
		}

		session.Options.MaxAge = a.maxAge
		if err := session.Save(r, w); err != nil {
			a.logger.Logf("Could not refresh session of {%s}: %v", userID, err)
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// Required sends anonymous browsers to the login page
func Required(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFrom(r.Context()); !ok {
			http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

// RequiredAPI answers 401 with a JSON body to anonymous callers
func RequiredAPI(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFrom(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"error":   "Authentication required",
			})
			return
		}
		next(w, r)
	}
}
