/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package handler

import (
	"bytes"
	"encoding/json"
	"net/http"

	"vailethchat/internal/apperr"
	"vailethchat/internal/entity"
	"vailethchat/internal/middleware"
	"vailethchat/internal/nlog"
	"vailethchat/internal/view"

	"github.com/gorilla/sessions"
)

const (
	flashSuccess = "success"
	flashError   = "error"
	flashInfo    = "info"
)

// Flash is a one-shot notice shown on the next rendered page
type Flash struct {
	Category string
	Message  string
}

// Pages bundles what every page handler needs: the session store for flashes, the renderer and a logger
type Pages struct {
	store    sessions.Store
	renderer view.Renderer
	logger   nlog.Logger
}

func NewPages(store sessions.Store, renderer view.Renderer, logger nlog.Logger) *Pages {
	return &Pages{
		store:    store,
		renderer: renderer,
		logger:   logger,
	}
}

func (p *Pages) Logf(format string, v ...any) {
	p.logger.Logf(format, v...)
}

func (p *Pages) addFlash(w http.ResponseWriter, r *http.Request, category, message string) {
	session, _ := p.store.Get(r, middleware.SessionName)
	session.AddFlash(message, category)
	if err := session.Save(r, w); err != nil {
		p.Logf("Could not save flash: %v", err)
	}
}

func (p *Pages) popFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	session, _ := p.store.Get(r, middleware.SessionName)

	var flashes []Flash
	for _, category := range []string{flashSuccess, flashError, flashInfo} {
		for _, f := range session.Flashes(category) {
			if msg, ok := f.(string); ok {
				flashes = append(flashes, Flash{Category: category, Message: msg})
			}
		}
	}
	if len(flashes) > 0 {
		session.Save(r, w)
	}
	return flashes
}

// redirectWithFlash is the usual outcome of a form submission
func (p *Pages) redirectWithFlash(w http.ResponseWriter, r *http.Request, category, message, to string) {
	p.addFlash(w, r, category, message)
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// render executes the page with the logged user and pending flashes added to data
func (p *Pages) render(w http.ResponseWriter, r *http.Request, name string, status int, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	if user, ok := middleware.UserFrom(r.Context()); ok {
		data["User"] = user
	}
	data["Flashes"] = p.popFlashes(w, r)

	var buf bytes.Buffer
	if err := p.renderer.RenderTemplate(&buf, name, data); err != nil {
		p.Logf("Rendering %s failed: %v", name, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (p *Pages) NotFound(w http.ResponseWriter, r *http.Request) {
	p.render(w, r, "404.html", http.StatusNotFound, nil)
}

func (p *Pages) ServerError(w http.ResponseWriter, r *http.Request) {
	p.render(w, r, "500.html", http.StatusInternalServerError, nil)
}

// fail turns a service error into a page outcome: the 404 page, a flash back to `back`, or the 500 page
func (p *Pages) fail(w http.ResponseWriter, r *http.Request, err error, back string) {
	switch apperr.CodeOf(err) {
	case apperr.CodeNotFound:
		p.NotFound(w, r)
	case apperr.CodeInvalidArgument, apperr.CodePermissionDenied:
		p.redirectWithFlash(w, r, flashError, apperr.MessageOf(err), back)
	default:
		p.Logf("Request %s %s failed: %v", r.Method, r.URL.Path, err)
		p.ServerError(w, r)
	}
}

// currentUser is only called behind middleware.Required, which guarantees the user is there
func currentUser(r *http.Request) *entity.User {
	user, _ := middleware.UserFrom(r.Context())
	return user
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// jsonError answers with the status matching err; internal causes are logged, never returned
func jsonError(w http.ResponseWriter, logger nlog.Logger, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		logger.Logf("Request failed: %v", err)
	}
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   apperr.MessageOf(err),
	})
}
