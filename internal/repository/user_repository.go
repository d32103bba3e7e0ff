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

// This repository is used to manipulate the users in the system.
// Users are never deleted, the identity provider owns their lifecycle.
type UserRepository interface {
	Upsert(ctx context.Context, user *entity.User) error // Inserts the user or refreshes the identity fields of an existing one

	GetByID(ctx context.Context, id string) (*entity.User, error)           // Retrieves the user with the given id
	CountByIDs(ctx context.Context, ids []string) (int64, error)            // Counts how many of the given ids exist
	UpdatePresence(ctx context.Context, id string, online bool, at time.Time) error // Sets is_online and last_seen
	UpdateProfile(ctx context.Context, id string, profile ProfileFields) error      // Overwrites the editable profile fields

	ListAvailable(ctx context.Context, userID string) ([]*entity.User, error)                     // All users but userID and their contacts
	Search(ctx context.Context, userID, query string, limit int) ([]*entity.User, error)           // Substring match on names and email, excluding userID
}

// Editable part of the profile
type ProfileFields struct {
	FirstName     string
	LastName      string
	StatusMessage string
	PhoneNumber   string
	UpdatedAt     time.Time
}

// Implementation of the repository using a SQLite DB
type SQLiteUserRepository struct {
	db *gorm.DB
}

func NewSQLiteUserRepository(db *gorm.DB) UserRepository {
	return &SQLiteUserRepository{db}
}

func (repo *SQLiteUserRepository) Upsert(ctx context.Context, user *entity.User) error {
	return conn(ctx, repo.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "first_name", "last_name", "profile_image_url", "updated_at"}),
	}).Create(user).Error
}

func (repo *SQLiteUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	if err := conn(ctx, repo.db).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (repo *SQLiteUserRepository) CountByIDs(ctx context.Context, ids []string) (int64, error) {
	var count int64
	if len(ids) == 0 {
		return 0, nil
	}
	err := conn(ctx, repo.db).Model(&entity.User{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}

func (repo *SQLiteUserRepository) UpdatePresence(ctx context.Context, id string, online bool, at time.Time) error {
	return conn(ctx, repo.db).Model(&entity.User{}).Where("id = ?", id).
		UpdateColumns(map[string]any{"is_online": online, "last_seen": at}).Error
}

func (repo *SQLiteUserRepository) UpdateProfile(ctx context.Context, id string, profile ProfileFields) error {
	res := conn(ctx, repo.db).Model(&entity.User{}).Where("id = ?", id).UpdateColumns(map[string]any{
		"first_name":     profile.FirstName,
		"last_name":      profile.LastName,
		"status_message": profile.StatusMessage,
		"phone_number":   profile.PhoneNumber,
		"updated_at":     profile.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (repo *SQLiteUserRepository) ListAvailable(ctx context.Context, userID string) ([]*entity.User, error) {
	var users []*entity.User
	db := conn(ctx, repo.db)
	contacts := db.Model(&entity.Contact{}).Select("contact_user_id").Where("user_id = ?", userID)
	err := db.Where("id <> ? AND id NOT IN (?)", userID, contacts).Order("created_at ASC").Find(&users).Error
	return users, err
}

func (repo *SQLiteUserRepository) Search(ctx context.Context, userID, query string, limit int) ([]*entity.User, error) {
	var users []*entity.User
	pattern := containsPattern(query)
	err := conn(ctx, repo.db).
		Where(`(first_name LIKE ? ESCAPE '\' OR last_name LIKE ? ESCAPE '\' OR email LIKE ? ESCAPE '\')`, pattern, pattern, pattern).
		Where("id <> ?", userID).
		Order("created_at ASC").
		Limit(limit).
		Find(&users).Error
	return users, err
}
