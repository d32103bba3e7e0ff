/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package service

import (
	"context"
	"strings"

	"vailethchat/internal/apperr"
	"vailethchat/internal/entity"
	"vailethchat/internal/metrics"
	"vailethchat/internal/nlog"
	"vailethchat/internal/repository"

	"github.com/google/uuid"
)

// Everything needed to post a message. Optional fields are empty strings when absent.
type SendInput struct {
	SenderID  string
	ChatID    string
	Content   string
	Type      string
	FileURL   string
	ReplyToID string
}

// A stored message, with what the chat page needs to render it straight away
type SentMessage struct {
	Message    *entity.Message `json:"message"`
	SenderName string          `json:"sender_name"`
	TimeOfDay  string          `json:"time"` // HH:MM
}

// Service used to handle messages, both for individual and group chats
type MessageService interface {
	SendMessage(ctx context.Context, in SendInput) (*SentMessage, error)       // Stores a message, the sender must be an active member of the chat
	MarkChatRead(ctx context.Context, userID, chatID string) (int64, error)    // Marks the messages addressed to userID as read, returns how many changed
	ListMessages(ctx context.Context, chatID string) ([]*entity.Message, error) // Messages of the chat, oldest first
}

type messageService struct {
	tx       repository.Transactor
	users    repository.UserRepository
	chats    repository.ChatRepository
	messages repository.MessageRepository
	logger   nlog.Logger
	now      clock
}

func NewMessageService(tx repository.Transactor, users repository.UserRepository, chats repository.ChatRepository, messages repository.MessageRepository, logger nlog.Logger) MessageService {
	return &messageService{
		tx:       tx,
		users:    users,
		chats:    chats,
		messages: messages,
		logger:   logger,
		now:      timeNow,
	}
}

func (m *messageService) Logf(format string, v ...any) {
	m.logger.Logf(format, v...)
}

func (m *messageService) SendMessage(ctx context.Context, in SendInput) (*SentMessage, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, apperr.Validation("Message cannot be empty")
	}
	msgType, ok := entity.ParseMessageType(strings.TrimSpace(in.Type))
	if !ok {
		return nil, apperr.Validation("Unknown message type")
	}

	var message *entity.Message
	err := m.tx.InTx(ctx, func(ctx context.Context) error {
		chat, err := m.chats.GetByIDForUpdate(ctx, in.ChatID)
		if err != nil {
			if isNotFound(err) {
				return apperr.NotFound("Chat not found")
			}
			return err
		}

		member, err := m.chats.IsActiveMember(ctx, in.SenderID, chat.ID)
		if err != nil {
			return err
		}
		if !member {
			return apperr.Forbidden("You are not a member of this chat")
		}

		now := m.now()
		message = &entity.Message{
			ID:          uuid.Must(uuid.NewV7()).String(),
			ChatID:      chat.ID,
			SenderID:    in.SenderID,
			MessageType: msgType,
			Content:     content,
			IsDelivered: true,
			DeliveredAt: &now,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if url := strings.TrimSpace(in.FileURL); url != "" {
			message.FileURL = &url
		}

		if parentID := strings.TrimSpace(in.ReplyToID); parentID != "" {
			parent, err := m.messages.GetByID(ctx, parentID)
			if err != nil && !isNotFound(err) {
				return err
			}
			if parent == nil || parent.ChatID != chat.ID {
				return apperr.Validation("The message you are replying to is not in this chat")
			}
			message.ReplyToID = &parent.ID
		}

		if chat.IsIndividual() {
			receiver, found, err := m.chats.OtherActiveMember(ctx, chat.ID, in.SenderID)
			if err != nil {
				return err
			}
			if found {
				message.ReceiverID = &receiver
			}
		}

		if err := m.messages.Create(ctx, message); err != nil {
			return err
		}
		return m.chats.Touch(ctx, chat.ID, now)
	})
	if err != nil {
		return nil, storeErr("sending message", err)
	}

	sender, err := m.users.GetByID(ctx, in.SenderID)
	if err != nil {
		return nil, storeErr("loading sender", err)
	}
	message.Sender = *sender

	metrics.MessagesSent.WithLabelValues(string(msgType)).Inc()
	m.Logf("Message {%s} stored in chat {%s}", message.ID, message.ChatID)

	return &SentMessage{
		Message:    message,
		SenderName: sender.DisplayName(),
		TimeOfDay:  message.CreatedAt.Format("15:04"),
	}, nil
}

func (m *messageService) MarkChatRead(ctx context.Context, userID, chatID string) (int64, error) {
	count, err := m.messages.MarkRead(ctx, chatID, userID, m.now())
	if err != nil {
		return 0, storeErr("marking messages as read", err)
	}
	if count > 0 {
		m.Logf("%d messages read by {%s} in chat {%s}", count, userID, chatID)
	}
	return count, nil
}

func (m *messageService) ListMessages(ctx context.Context, chatID string) ([]*entity.Message, error) {
	messages, err := m.messages.ListByChat(ctx, chatID)
	if err != nil {
		return nil, storeErr("listing messages", err)
	}
	return messages, nil
}
