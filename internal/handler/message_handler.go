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
	"vailethchat/internal/nlog"
	"vailethchat/internal/service"
)

// JSON shape of a message, as consumed by the chat page script
type messageView struct {
	ID          string  `json:"id"`
	ChatID      string  `json:"chat_id"`
	Content     string  `json:"content"`
	SenderID    string  `json:"sender_id"`
	SenderName  string  `json:"sender_name"`
	MessageType string  `json:"message_type"`
	CreatedAt   string  `json:"created_at"`
	IsDelivered bool    `json:"is_delivered"`
	IsRead      bool    `json:"is_read"`
	ReplyToID   *string `json:"reply_to_id"`
	FileURL     *string `json:"file_url"`
}

func newMessageView(m *entity.Message, senderName, createdAt string) messageView {
	return messageView{
		ID:          m.ID,
		ChatID:      m.ChatID,
		Content:     m.Content,
		SenderID:    m.SenderID,
		SenderName:  senderName,
		MessageType: string(m.MessageType),
		CreatedAt:   createdAt,
		IsDelivered: m.IsDelivered,
		IsRead:      m.IsRead,
		ReplyToID:   m.ReplyToID,
		FileURL:     m.FileURL,
	}
}

// MessageHandler is used to post messages in any chat the user is an active member of
type MessageHandler struct {
	messages service.MessageService
	logger   nlog.Logger
}

func NewMessageHandler(messages service.MessageService, logger nlog.Logger) *MessageHandler {
	return &MessageHandler{
		messages: messages,
		logger:   logger,
	}
}

// SendMessage reads the message form and answers with the stored message
func (m *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	sent, err := m.messages.SendMessage(r.Context(), service.SendInput{
		SenderID:  user.ID,
		ChatID:    r.FormValue("chat_id"),
		Content:   r.FormValue("content"),
		Type:      r.FormValue("message_type"),
		FileURL:   r.FormValue("file_url"),
		ReplyToID: r.FormValue("reply_to_id"),
	})
	if err != nil {
		jsonError(w, m.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": newMessageView(sent.Message, sent.SenderName, sent.TimeOfDay),
	})
}
