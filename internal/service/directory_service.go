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
	"errors"
	"strings"

	"vailethchat/internal/apperr"
	"vailethchat/internal/entity"
	"vailethchat/internal/nlog"
	"vailethchat/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	userSearchLimit    = 10
	messageSearchLimit = 20
	recentChatsLimit   = 20
)

type SearchResults struct {
	Users    []*entity.User
	Messages []*entity.Message
}

// A chat in the dashboard list, titled for the user looking at it
type RecentChat struct {
	Chat        *entity.Chat
	Title       string
	Counterpart *entity.User // Other member of an individual chat, nil for groups or when they left
}

// Service used to browse people and conversations: contacts, search, recent chats
type DirectoryService interface {
	ListContacts(ctx context.Context, userID string) ([]*entity.Contact, error)            // Address book of the user, with profiles
	AddContact(ctx context.Context, userID, contactUserID string) (bool, error)            // Adds a contact, false if it was already there
	ListAvailableUsers(ctx context.Context, userID string) ([]*entity.User, error)         // Users that can still be added as contacts
	Search(ctx context.Context, userID, query string) (*SearchResults, error)              // Users and messages matching query
	ListRecentChats(ctx context.Context, userID string) ([]*RecentChat, error)             // Chats of the user, most recently active first
}

type directoryService struct {
	users    repository.UserRepository
	contacts repository.ContactRepository
	chats    repository.ChatRepository
	messages repository.MessageRepository
	logger   nlog.Logger
	now      clock
}

func NewDirectoryService(users repository.UserRepository, contacts repository.ContactRepository, chats repository.ChatRepository, messages repository.MessageRepository, logger nlog.Logger) DirectoryService {
	return &directoryService{
		users:    users,
		contacts: contacts,
		chats:    chats,
		messages: messages,
		logger:   logger,
		now:      timeNow,
	}
}

func (d *directoryService) Logf(format string, v ...any) {
	d.logger.Logf(format, v...)
}

func (d *directoryService) ListContacts(ctx context.Context, userID string) ([]*entity.Contact, error) {
	contacts, err := d.contacts.ListWithUsers(ctx, userID)
	if err != nil {
		return nil, storeErr("listing contacts", err)
	}
	return contacts, nil
}

func (d *directoryService) AddContact(ctx context.Context, userID, contactUserID string) (bool, error) {
	if userID == contactUserID {
		return false, apperr.Validation("You cannot add yourself as a contact")
	}
	if _, err := d.users.GetByID(ctx, contactUserID); err != nil {
		if isNotFound(err) {
			return false, apperr.NotFound("User not found")
		}
		return false, storeErr("loading user", err)
	}

	exists, err := d.contacts.Exists(ctx, userID, contactUserID)
	if err != nil {
		return false, storeErr("checking contact", err)
	}
	if exists {
		return false, nil
	}

	contact := &entity.Contact{
		ID:            uuid.New().String(),
		UserID:        userID,
		ContactUserID: contactUserID,
		CreatedAt:     d.now(),
	}
	if err := d.contacts.Create(ctx, contact); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, storeErr("adding contact", err)
	}

	d.Logf("User {%s} added {%s} to their contacts", userID, contactUserID)
	return true, nil
}

func (d *directoryService) ListAvailableUsers(ctx context.Context, userID string) ([]*entity.User, error) {
	users, err := d.users.ListAvailable(ctx, userID)
	if err != nil {
		return nil, storeErr("listing users", err)
	}
	return users, nil
}

func (d *directoryService) Search(ctx context.Context, userID, query string) (*SearchResults, error) {
	results := &SearchResults{Users: []*entity.User{}, Messages: []*entity.Message{}}

	query = strings.TrimSpace(query)
	if query == "" {
		return results, nil
	}

	users, err := d.users.Search(ctx, userID, query, userSearchLimit)
	if err != nil {
		return nil, storeErr("searching users", err)
	}
	messages, err := d.messages.Search(ctx, userID, query, messageSearchLimit)
	if err != nil {
		return nil, storeErr("searching messages", err)
	}

	results.Users = append(results.Users, users...)
	results.Messages = append(results.Messages, messages...)
	return results, nil
}

func (d *directoryService) ListRecentChats(ctx context.Context, userID string) ([]*RecentChat, error) {
	chats, err := d.chats.RecentForUser(ctx, userID, recentChatsLimit)
	if err != nil {
		return nil, storeErr("listing recent chats", err)
	}

	recent := make([]*RecentChat, 0, len(chats))
	for _, chat := range chats {
		entry := &RecentChat{Chat: chat, Title: chat.Name}
		if chat.IsIndividual() {
			entry.Title = "Chat"
			for i := range chat.Members {
				if chat.Members[i].UserID != userID {
					entry.Counterpart = &chat.Members[i].User
					entry.Title = entry.Counterpart.DisplayName()
					break
				}
			}
		}
		recent = append(recent, entry)
	}
	return recent, nil
}
