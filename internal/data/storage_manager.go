/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package data

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"vailethchat/internal/entity"
	"vailethchat/internal/repository"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage manager gathers all the repositories needed for the chat system in a single container.
type StorageManager struct {
	db *gorm.DB // Under the hood we use the SQLite implementation

	transactor repository.Transactor

	// Repositories
	userRepo    repository.UserRepository
	contactRepo repository.ContactRepository
	chatRepo    repository.ChatRepository
	messageRepo repository.MessageRepository
	statusRepo  repository.StatusRepository
}

// Opens the SQLite database at path, migrates the schema and builds the repositories.
// path may be any DSN understood by the sqlite driver, in-memory ones included.
func Open(path string) (*StorageManager, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	dsn := path + sep + "_foreign_keys=on&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer, requests are serialized on a single connection
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&entity.User{},
		&entity.Contact{},
		&entity.Chat{},
		&entity.GroupMember{},
		&entity.Message{},
		&entity.Status{},
	); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return NewStorageManager(db), nil
}

func NewStorageManager(db *gorm.DB) *StorageManager {
	return &StorageManager{
		db:          db,
		transactor:  repository.NewTransactor(db),
		userRepo:    repository.NewSQLiteUserRepository(db),
		contactRepo: repository.NewSQLiteContactRepository(db),
		chatRepo:    repository.NewSQLiteChatRepository(db),
		messageRepo: repository.NewSQLiteMessageRepository(db),
		statusRepo:  repository.NewSQLiteStatusRepository(db),
	}
}

// Begin opens the transaction of a request. Repositories pick it up through repository.WithTx.
func (s *StorageManager) Begin(ctx context.Context) (*gorm.DB, error) {
	tx := s.db.WithContext(ctx).Begin(&sql.TxOptions{})
	return tx, tx.Error
}

// Ping checks that the database is reachable
func (s *StorageManager) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *StorageManager) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *StorageManager) GetTransactor() repository.Transactor {
	return s.transactor
}

func (s *StorageManager) GetUserRepository() repository.UserRepository {
	return s.userRepo
}

func (s *StorageManager) GetContactRepository() repository.ContactRepository {
	return s.contactRepo
}

func (s *StorageManager) GetChatRepository() repository.ChatRepository {
	return s.chatRepo
}

func (s *StorageManager) GetMessageRepository() repository.MessageRepository {
	return s.messageRepo
}

func (s *StorageManager) GetStatusRepository() repository.StatusRepository {
	return s.statusRepo
}
