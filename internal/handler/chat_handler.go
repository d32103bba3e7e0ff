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
	"vailethchat/internal/entity"
	"vailethchat/internal/nlog"
	"vailethchat/internal/service"

	"github.com/gorilla/mux"
)

// ChatHandler serves the chat page and the calls the page makes while open
type ChatHandler struct {
	membership service.MembershipService
	messages   service.MessageService
	directory  service.DirectoryService
	accounts   service.AccountService
	pages      *Pages
	logger     nlog.Logger
}

func NewChatHandler(membership service.MembershipService, messages service.MessageService, directory service.DirectoryService, accounts service.AccountService, pages *Pages, logger nlog.Logger) *ChatHandler {
	return &ChatHandler{
		membership: membership,
		messages:   messages,
		directory:  directory,
		accounts:   accounts,
		pages:      pages,
		logger:     logger,
	}
}

// authorize loads the chat of the request and checks that user is an active member of it
func (c *ChatHandler) authorize(r *http.Request, user *entity.User) (*entity.Chat, error) {
	chat, err := c.membership.GetChat(r.Context(), mux.Vars(r)["chatId"])
	if err != nil {
		return nil, err
	}
	member, err := c.membership.IsActiveMember(r.Context(), user.ID, chat.ID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, apperr.Forbidden("You are not a member of this chat.")
	}
	return chat, nil
}

// ViewChat shows the messages of a chat, marking the ones addressed to the user as read
func (c *ChatHandler) ViewChat(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	chat, err := c.authorize(r, user)
	if err != nil {
		c.pages.fail(w, r, err, "/")
		return
	}

	if _, err := c.messages.MarkChatRead(r.Context(), user.ID, chat.ID); err != nil {
		c.pages.fail(w, r, err, "/")
		return
	}
	messages, err := c.messages.ListMessages(r.Context(), chat.ID)
	if err != nil {
		c.pages.fail(w, r, err, "/")
		return
	}
	members, err := c.membership.ActiveMembers(r.Context(), chat.ID)
	if err != nil {
		c.pages.fail(w, r, err, "/")
		return
	}

	data, err := sidebar(r, c.directory, c.accounts, user)
	if err != nil {
		c.pages.fail(w, r, err, "/")
		return
	}

	title := chat.Name
	var counterpart *entity.User
	if chat.IsIndividual() {
		title = "Chat"
		for _, m := range members {
			if m.UserID != user.ID {
				counterpart = &m.User
				title = m.User.DisplayName()
			}
		}
	}

	data["CurrentChat"] = chat
	data["Title"] = title
	data["Counterpart"] = counterpart
	data["CounterpartOnline"] = counterpart != nil && c.accounts.IsOnline(counterpart)
	data["Members"] = members
	data["Messages"] = messages

	c.pages.render(w, r, "chat.html", http.StatusOK, data)
}

// StartIndividual opens the chat with another user, creating it on first contact
func (c *ChatHandler) StartIndividual(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	chat, err := c.membership.FindOrCreateIndividualChat(r.Context(), user.ID, mux.Vars(r)["userId"])
	if err != nil {
		c.pages.fail(w, r, err, "/")
		return
	}
	http.Redirect(w, r, "/chat/"+chat.ID, http.StatusSeeOther)
}

// Messages lists the messages of the chat as JSON, polled by the open chat page
func (c *ChatHandler) Messages(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	chat, err := c.authorize(r, user)
	if err != nil {
		jsonError(w, c.logger, err)
		return
	}

	messages, err := c.messages.ListMessages(r.Context(), chat.ID)
	if err != nil {
		jsonError(w, c.logger, err)
		return
	}

	views := make([]messageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, newMessageView(m, m.Sender.DisplayName(), m.CreatedAt.Format("15:04")))
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": views})
}

// MarkRead marks the messages addressed to the user in the chat as read
func (c *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	chat, err := c.authorize(r, user)
	if err != nil {
		jsonError(w, c.logger, err)
		return
	}

	count, err := c.messages.MarkChatRead(r.Context(), user.ID, chat.ID)
	if err != nil {
		jsonError(w, c.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "marked": count})
}
