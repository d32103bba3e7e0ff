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

	"vailethchat/internal/apperr"
	"vailethchat/internal/service"

	"github.com/gorilla/mux"
)

// ContactHandler manages the address book of the logged user
type ContactHandler struct {
	directory service.DirectoryService
	accounts  service.AccountService
	pages     *Pages
}

func NewContactHandler(directory service.DirectoryService, accounts service.AccountService, pages *Pages) *ContactHandler {
	return &ContactHandler{
		directory: directory,
		accounts:  accounts,
		pages:     pages,
	}
}

// Contacts lists the contacts of the user and the users that can still be added
func (c *ContactHandler) Contacts(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	contacts, err := c.directory.ListContacts(r.Context(), user.ID)
	if err != nil {
		c.pages.fail(w, r, err, "/")
		return
	}
	available, err := c.directory.ListAvailableUsers(r.Context(), user.ID)
	if err != nil {
		c.pages.fail(w, r, err, "/")
		return
	}

	online := make(map[string]bool, len(contacts))
	for _, contact := range contacts {
		online[contact.ContactUserID] = c.accounts.IsOnline(&contact.ContactUser)
	}

	c.pages.render(w, r, "contacts.html", http.StatusOK, map[string]any{
		"Contacts":       contacts,
		"AvailableUsers": available,
		"Online":         online,
	})
}

// AddContact adds the user in the path to the contacts, then goes back to the contact list
func (c *ContactHandler) AddContact(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	created, err := c.directory.AddContact(r.Context(), user.ID, mux.Vars(r)["userId"])
	switch {
	case apperr.IsValidation(err), apperr.IsNotFound(err):
		c.pages.redirectWithFlash(w, r, flashError, apperr.MessageOf(err), "/contacts")
	case err != nil:
		c.pages.fail(w, r, err, "/contacts")
	case !created:
		c.pages.redirectWithFlash(w, r, flashInfo, "User is already in your contacts.", "/contacts")
	default:
		c.pages.redirectWithFlash(w, r, flashSuccess, "Contact added successfully!", "/contacts")
	}
}
