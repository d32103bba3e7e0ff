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

	"vailethchat/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// This repository is used to manipulate the address books of the users.
// The (user_id, contact_user_id) pair is unique at table level.
type ContactRepository interface {
	Create(ctx context.Context, contact *entity.Contact) error                   // Inserts the contact, gorm.ErrDuplicatedKey if the pair exists
	Exists(ctx context.Context, userID, contactUserID string) (bool, error)      // Checks whether the pair exists
	ListWithUsers(ctx context.Context, userID string) ([]*entity.Contact, error) // Contacts of userID with the referenced user loaded
	ContactUserIDs(ctx context.Context, userID string) ([]string, error)         // Ids of the users in the address book of userID
}

// Implementation of the repository using a SQLite DB
type SQLiteContactRepository struct {
	db *gorm.DB
}

func NewSQLiteContactRepository(db *gorm.DB) ContactRepository {
	return &SQLiteContactRepository{db}
}

func (repo *SQLiteContactRepository) Create(ctx context.Context, contact *entity.Contact) error {
	return conn(ctx, repo.db).Omit(clause.Associations).Create(contact).Error
}

func (repo *SQLiteContactRepository) Exists(ctx context.Context, userID, contactUserID string) (bool, error) {
	var count int64
	err := conn(ctx, repo.db).Model(&entity.Contact{}).
		Where("user_id = ? AND contact_user_id = ?", userID, contactUserID).
		Count(&count).Error
	return count > 0, err
}

func (repo *SQLiteContactRepository) ListWithUsers(ctx context.Context, userID string) ([]*entity.Contact, error) {
	var contacts []*entity.Contact
	err := conn(ctx, repo.db).Preload("ContactUser").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&contacts).Error
	return contacts, err
}

func (repo *SQLiteContactRepository) ContactUserIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := conn(ctx, repo.db).Model(&entity.Contact{}).Where("user_id = ?", userID).Pluck("contact_user_id", &ids).Error
	return ids, err
}
