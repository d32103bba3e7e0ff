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

	"vailethchat/internal/entity"
	"vailethchat/internal/middleware"
	"vailethchat/internal/service"
)

// HomeHandler serves the landing page, or the dashboard once logged in
type HomeHandler struct {
	directory service.DirectoryService
	statuses  service.StatusService
	accounts  service.AccountService
	pages     *Pages
}

func NewHomeHandler(directory service.DirectoryService, statuses service.StatusService, accounts service.AccountService, pages *Pages) *HomeHandler {
	return &HomeHandler{
		directory: directory,
		statuses:  statuses,
		accounts:  accounts,
		pages:     pages,
	}
}

func (h *HomeHandler) Index(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		h.pages.render(w, r, "landing.html", http.StatusOK, nil)
		return
	}

	data, err := sidebar(r, h.directory, h.accounts, user)
	if err != nil {
		h.pages.fail(w, r, err, "/")
		return
	}

	statuses, err := h.statuses.ListVisible(r.Context(), user.ID)
	if err != nil {
		h.pages.fail(w, r, err, "/")
		return
	}
	data["Statuses"] = statuses

	h.pages.render(w, r, "index.html", http.StatusOK, data)
}

// sidebar loads what every logged page shows on the side: contacts with their presence and recent chats
func sidebar(r *http.Request, directory service.DirectoryService, accounts service.AccountService, user *entity.User) (map[string]any, error) {
	contacts, err := directory.ListContacts(r.Context(), user.ID)
	if err != nil {
		return nil, err
	}
	recent, err := directory.ListRecentChats(r.Context(), user.ID)
	if err != nil {
		return nil, err
	}

	online := make(map[string]bool, len(contacts))
	for _, c := range contacts {
		online[c.ContactUserID] = accounts.IsOnline(&c.ContactUser)
	}

	return map[string]any{
		"Contacts":    contacts,
		"RecentChats": recent,
		"Online":      online,
	}, nil
}
