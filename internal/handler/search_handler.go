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

	"vailethchat/internal/nlog"
	"vailethchat/internal/service"
)

type userHit struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Email *string `json:"email"`
}

type messageHit struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	ChatID     string `json:"chat_id"`
	SenderName string `json:"sender_name"`
	CreatedAt  string `json:"created_at"`
}

// SearchHandler answers the search box of every page
type SearchHandler struct {
	directory service.DirectoryService
	logger    nlog.Logger
}

func NewSearchHandler(directory service.DirectoryService, logger nlog.Logger) *SearchHandler {
	return &SearchHandler{
		directory: directory,
		logger:    logger,
	}
}

func (s *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	results, err := s.directory.Search(r.Context(), user.ID, r.URL.Query().Get("q"))
	if err != nil {
		jsonError(w, s.logger, err)
		return
	}

	users := make([]userHit, 0, len(results.Users))
	for _, u := range results.Users {
		users = append(users, userHit{ID: u.ID, Name: u.DisplayName(), Email: u.Email})
	}
	messages := make([]messageHit, 0, len(results.Messages))
	for _, m := range results.Messages {
		messages = append(messages, messageHit{
			ID:         m.ID,
			Content:    m.Content,
			ChatID:     m.ChatID,
			SenderName: m.Sender.DisplayName(),
			CreatedAt:  m.CreatedAt.Format("2006-01-02 15:04"),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"users":    users,
		"messages": messages,
	})
}
