/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package repository

import (
	"context"
	"time"

	"vailethchat/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// This repository is used to manipulate the messages in the system.
// Messages are never edited besides their delivery and read state.
type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error // Inserts a message

	GetByID(ctx context.Context, id string) (*entity.Message, error)              // Retrieves the message with the given id
	ListByChat(ctx context.Context, chatID string) ([]*entity.Message, error)     // Messages of the chat, oldest first, with their sender
	MarkRead(ctx context.Context, chatID, userID string, at time.Time) (int64, error) // Marks every unread message addressed to userID in chatID as read
	Search(ctx context.Context, userID, query string, limit int) ([]*entity.Message, error) // Substring match on content, within the chats userID is an active member of
}

// Implementation of the repository using a SQLite DB
type SQLiteMessageRepository struct {
	db *gorm.DB
}

func NewSQLiteMessageRepository(db *gorm.DB) MessageRepository {
	return &SQLiteMessageRepository{db}
}

func (repo *SQLiteMessageRepository) Create(ctx context.Context, message *entity.Message) error {
	return conn(ctx, repo.db).Omit(clause.Associations).Create(message).Error
}

func (repo *SQLiteMessageRepository) GetByID(ctx context.Context, id string) (*entity.Message, error) {
	var message entity.Message
	if err := conn(ctx, repo.db).Where("id = ?", id).First(&message).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

func (repo *SQLiteMessageRepository) ListByChat(ctx context.Context, chatID string) ([]*entity.Message, error) {
	var messages []*entity.Message
	err := conn(ctx, repo.db).Preload("Sender").
		Where("chat_id = ?", chatID).
		Order("created_at ASC").Order("id ASC").
		Find(&messages).Error
	return messages, err
}

func (repo *SQLiteMessageRepository) MarkRead(ctx context.Context, chatID, userID string, at time.Time) (int64, error) {
	res := conn(ctx, repo.db).Model(&entity.Message{}).
		Where("chat_id = ? AND receiver_id = ? AND is_read = ?", chatID, userID, false).
		UpdateColumns(map[string]any{"is_read": true, "read_at": at, "updated_at": at})
	return res.RowsAffected, res.Error
}

func (repo *SQLiteMessageRepository) Search(ctx context.Context, userID, query string, limit int) ([]*entity.Message, error) {
	var messages []*entity.Message
	db := conn(ctx, repo.db)
	chats := db.Model(&entity.GroupMember{}).Select("chat_id").Where("user_id = ? AND left_at IS NULL", userID)
	err := db.Preload("Sender").
		Where("chat_id IN (?)", chats).
		Where(`content LIKE ? ESCAPE '\'`, containsPattern(query)).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}
