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

// GroupHandler is used to create group chats and to leave chats
type GroupHandler struct {
	membership service.MembershipService
	directory  service.DirectoryService
	pages      *Pages
}

func NewGroupHandler(membership service.MembershipService, directory service.DirectoryService, pages *Pages) *GroupHandler {
	return &GroupHandler{
		membership: membership,
		directory:  directory,
		pages:      pages,
	}
}

// CreateGroup shows the creation form on GET; on POST it creates the group and opens it
func (g *GroupHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	if r.Method == http.MethodGet {
		contacts, err := g.directory.ListContacts(r.Context(), user.ID)
		if err != nil {
			g.pages.fail(w, r, err, "/")
			return
		}
		g.pages.render(w, r, "create_group.html", http.StatusOK, map[string]any{"Contacts": contacts})
		return
	}

	if err := r.ParseForm(); err != nil {
		g.pages.redirectWithFlash(w, r, flashError, "Error occurred while parsing the form", "/create_group")
		return
	}

	chat, err := g.membership.CreateGroupChat(r.Context(), user.ID, r.PostForm.Get("group_name"), r.PostForm.Get("description"), r.PostForm["members"])
	if err != nil {
		// Unknown members come back to the form, not to the 404 page
		if apperr.IsNotFound(err) {
			g.pages.redirectWithFlash(w, r, flashError, apperr.MessageOf(err), "/create_group")
			return
		}
		g.pages.fail(w, r, err, "/create_group")
		return
	}

	g.pages.redirectWithFlash(w, r, flashSuccess, "Group created successfully!", "/chat/"+chat.ID)
}

// Leave ends the membership of the user in the chat
func (g *GroupHandler) Leave(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	if err := g.membership.LeaveChat(r.Context(), user.ID, mux.Vars(r)["chatId"]); err != nil {
		g.pages.fail(w, r, err, "/")
		return
	}
	g.pages.redirectWithFlash(w, r, flashInfo, "You left the chat.", "/")
}
