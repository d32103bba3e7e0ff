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

// This repository is used to store status updates. Expired rows are kept, readers filter them.
type StatusRepository interface {
	Create(ctx context.Context, status *entity.Status) error
	ListByUsers(ctx context.Context, userIDs []string) ([]*entity.Status, error) // Statuses of the given users with their author, newest first
}

// Implementation of the repository using a SQLite DB
type SQLiteStatusRepository struct {
	db *gorm.DB
}

func NewSQLiteStatusRepository(db *gorm.DB) StatusRepository {
	return &SQLiteStatusRepository{db}
}

func (repo *SQLiteStatusRepository) Create(ctx context.Context, status *entity.Status) error {
	return conn(ctx, repo.db).Omit(clause.Associations).Create(status).Error
}

func (repo *SQLiteStatusRepository) ListByUsers(ctx context.Context, userIDs []string) ([]*entity.Status, error) {
	var statuses []*entity.Status
	if len(userIDs) == 0 {
		return statuses, nil
	}
	err := conn(ctx, repo.db).Preload("User").
		Where("user_id IN ?", userIDs).
		Order("created_at DESC").
		Find(&statuses).Error
	return statuses, err
}
