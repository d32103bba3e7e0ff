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

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// This repository is used to manipulate chats and their memberships.
// Both individual and group chats keep their members in the group_members table.
type ChatRepository interface {
	CreateWithMembers(ctx context.Context, chat *entity.Chat, members []*entity.GroupMember) error // Inserts the chat and all its members atomically

	GetByID(ctx context.Context, id string) (*entity.Chat, error)                // Retrieves the chat with the given id
	GetByIDForUpdate(ctx context.Context, id string) (*entity.Chat, error)       // Same as GetByID, locking the row until the transaction ends
	GetByPairKey(ctx context.Context, key string) (*entity.Chat, error)          // Retrieves the individual chat of a pair, whatever its membership
	FindIndividual(ctx context.Context, a, b string) (*entity.Chat, error)       // Newest individual chat whose active members are exactly {a, b}, nil if none
	Touch(ctx context.Context, id string, at time.Time) error                    // Bumps updated_at
	RecentForUser(ctx context.Context, userID string, limit int) ([]*entity.Chat, error) // Chats with an active membership of userID, most recently updated first

	IsActiveMember(ctx context.Context, userID, chatID string) (bool, error)                  // Checks for a member row with left_at NULL
	OtherActiveMember(ctx context.Context, chatID, excludingUserID string) (string, bool, error) // First active member that is not excludingUserID
	ActiveMembers(ctx context.Context, chatID string) ([]*entity.GroupMember, error)          // Active members, with their user
	ReactivateMembers(ctx context.Context, chatID string, userIDs []string, at time.Time) error // Clears left_at for the users, creating missing rows
	Leave(ctx context.Context, chatID, userID string, at time.Time) (bool, error)             // Sets left_at on an active membership
}

// Implementation of the repository using a SQLite DB
type SQLiteChatRepository struct {
	db *gorm.DB
}

func NewSQLiteChatRepository(db *gorm.DB) ChatRepository {
	return &SQLiteChatRepository{db}
}

func (repo *SQLiteChatRepository) CreateWithMembers(ctx context.Context, chat *entity.Chat, members []*entity.GroupMember) error {
	return conn(ctx, repo.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(chat).Error; err != nil {
			return err
		}
		for _, member := range members {
			member.ChatID = chat.ID
			if err := tx.Omit(clause.Associations).Create(member).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (repo *SQLiteChatRepository) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	var chat entity.Chat
	if err := conn(ctx, repo.db).Where("id = ?", id).First(&chat).Error; err != nil {
		return nil, err
	}
	return &chat, nil
}

func (repo *SQLiteChatRepository) GetByIDForUpdate(ctx context.Context, id string) (*entity.Chat, error) {
	var chat entity.Chat
	err := conn(ctx, repo.db).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&chat).Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (repo *SQLiteChatRepository) GetByPairKey(ctx context.Context, key string) (*entity.Chat, error) {
	var chat entity.Chat
	if err := conn(ctx, repo.db).Where("pair_key = ?", key).First(&chat).Error; err != nil {
		return nil, err
	}
	return &chat, nil
}

func (repo *SQLiteChatRepository) FindIndividual(ctx context.Context, a, b string) (*entity.Chat, error) {
	var chats []*entity.Chat
	err := conn(ctx, repo.db).Model(&entity.Chat{}).
		Select("chats.*").
		Joins("JOIN group_members ON group_members.chat_id = chats.id AND group_members.left_at IS NULL").
		Where("chats.chat_type = ?", entity.ChatIndividual).
		Group("chats.id").
		Having("COUNT(*) = 2 AND SUM(CASE WHEN group_members.user_id IN ? THEN 1 ELSE 0 END) = 2", []string{a, b}).
		Order("chats.created_at DESC").
		Limit(1).
		Find(&chats).Error
	if err != nil || len(chats) == 0 {
		return nil, err
	}
	return chats[0], nil
}

func (repo *SQLiteChatRepository) Touch(ctx context.Context, id string, at time.Time) error {
	return conn(ctx, repo.db).Model(&entity.Chat{}).Where("id = ?", id).UpdateColumn("updated_at", at).Error
}

func (repo *SQLiteChatRepository) RecentForUser(ctx context.Context, userID string, limit int) ([]*entity.Chat, error) {
	var chats []*entity.Chat
	err := conn(ctx, repo.db).
		Joins("JOIN group_members ON group_members.chat_id = chats.id").
		Where("group_members.user_id = ? AND group_members.left_at IS NULL", userID).
		Preload("Members", "left_at IS NULL").
		Preload("Members.User").
		Order("chats.updated_at DESC").
		Limit(limit).
		Find(&chats).Error
	return chats, err
}

func (repo *SQLiteChatRepository) IsActiveMember(ctx context.Context, userID, chatID string) (bool, error) {
	var count int64
	err := conn(ctx, repo.db).Model(&entity.GroupMember{}).
		Where("chat_id = ? AND user_id = ? AND left_at IS NULL", chatID, userID).
		Count(&count).Error
	return count > 0, err
}

func (repo *SQLiteChatRepository) OtherActiveMember(ctx context.Context, chatID, excludingUserID string) (string, bool, error) {
	var members []*entity.GroupMember
	err := conn(ctx, repo.db).
		Where("chat_id = ? AND user_id <> ? AND left_at IS NULL", chatID, excludingUserID).
		Order("joined_at ASC").
		Limit(1).
		Find(&members).Error
	if err != nil || len(members) == 0 {
		return "", false, err
	}
	return members[0].UserID, true, nil
}

func (repo *SQLiteChatRepository) ActiveMembers(ctx context.Context, chatID string) ([]*entity.GroupMember, error) {
	var members []*entity.GroupMember
	err := conn(ctx, repo.db).Preload("User").
		Where("chat_id = ? AND left_at IS NULL", chatID).
		Order("joined_at ASC").
		Find(&members).Error
	return members, err
}

func (repo *SQLiteChatRepository) ReactivateMembers(ctx context.Context, chatID string, userIDs []string, at time.Time) error {
	return conn(ctx, repo.db).Transaction(func(tx *gorm.DB) error {
		for _, userID := range userIDs {
			res := tx.Model(&entity.GroupMember{}).
				Where("chat_id = ? AND user_id = ?", chatID, userID).
				UpdateColumn("left_at", nil)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				continue
			}
			member := &entity.GroupMember{
				ID:       uuid.New().String(),
				ChatID:   chatID,
				UserID:   userID,
				Role:     entity.RoleMember,
				JoinedAt: at,
			}
			if err := tx.Omit(clause.Associations).Create(member).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (repo *SQLiteChatRepository) Leave(ctx context.Context, chatID, userID string, at time.Time) (bool, error) {
	res := conn(ctx, repo.db).Model(&entity.GroupMember{}).
		Where("chat_id = ? AND user_id = ? AND left_at IS NULL", chatID, userID).
		UpdateColumn("left_at", at)
	return res.RowsAffected > 0, res.Error
}
