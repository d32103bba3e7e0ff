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
	"time"

	"vailethchat/internal/apperr"
	"vailethchat/internal/entity"
	"vailethchat/internal/identity"
	"vailethchat/internal/nlog"
	"vailethchat/internal/repository"

	"gorm.io/gorm"
)

// Editable profile fields, as typed in the profile form
type ProfileInput struct {
	FirstName     string
	LastName      string
	StatusMessage string
	PhoneNumber   string
}

// Service used to keep the local copy of a user in sync with the identity provider, and to track presence
type AccountService interface {
	SyncIdentity(ctx context.Context, id identity.Identity) (*entity.User, error)                 // Creates or refreshes the user behind a verified identity
	GetUser(ctx context.Context, userID string) (*entity.User, error)                              // NotFound if missing
	Touch(ctx context.Context, userID string) error                                                // Marks the user online as of now
	Logout(ctx context.Context, userID string) error                                               // Marks the user offline
	UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*entity.User, error)       // Overwrites the editable fields
	IsOnline(user *entity.User) bool                                                               // Presence, decayed after the online window
}

type accountService struct {
	users  repository.UserRepository
	window time.Duration
	logger nlog.Logger
	now    clock
}

// presenceWindow is how long a user is shown online after their last request, 0 disables the decay
func NewAccountService(users repository.UserRepository, presenceWindow time.Duration, logger nlog.Logger) AccountService {
	return &accountService{
		users:  users,
		window: presenceWindow,
		logger: logger,
		now:    timeNow,
	}
}

func (a *accountService) Logf(format string, v ...any) {
	a.logger.Logf(format, v...)
}

func (a *accountService) SyncIdentity(ctx context.Context, id identity.Identity) (*entity.User, error) {
	if strings.TrimSpace(id.ID) == "" {
		return nil, apperr.Unauthorized("The identity provider returned no user id")
	}

	now := a.now()
	user := &entity.User{
		ID:              id.ID,
		FirstName:       strings.TrimSpace(id.FirstName),
		LastName:        strings.TrimSpace(id.LastName),
		ProfileImageURL: id.AvatarURL,
		StatusMessage:   entity.DefaultStatusMessage,
		IsOnline:        true,
		LastSeen:        now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if email := strings.TrimSpace(id.Email); email != "" {
		user.Email = &email
	}

	if err := a.users.Upsert(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			a.Logf("Identity {%s} brings an email held by another user", id.ID)
			return nil, apperr.Validation("This email is already used by another account")
		}
		return nil, storeErr("syncing identity", err)
	}
	if err := a.users.UpdatePresence(ctx, id.ID, true, now); err != nil {
		return nil, storeErr("updating presence", err)
	}

	a.Logf("Identity {%s} synced", id.ID)
	return a.GetUser(ctx, id.ID)
}

func (a *accountService) GetUser(ctx context.Context, userID string) (*entity.User, error) {
	user, err := a.users.GetByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, storeErr("loading user", err)
	}
	return user, nil
}

func (a *accountService) Touch(ctx context.Context, userID string) error {
	if err := a.users.UpdatePresence(ctx, userID, true, a.now()); err != nil {
		return storeErr("updating presence", err)
	}
	return nil
}

func (a *accountService) Logout(ctx context.Context, userID string) error {
	if err := a.users.UpdatePresence(ctx, userID, false, a.now()); err != nil {
		return storeErr("updating presence", err)
	}
	a.Logf("User {%s} logged out", userID)
	return nil
}

func (a *accountService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*entity.User, error) {
	status := strings.TrimSpace(in.StatusMessage)
	if status == "" {
		status = entity.DefaultStatusMessage
	}

	err := a.users.UpdateProfile(ctx, userID, repository.ProfileFields{
		FirstName:     strings.TrimSpace(in.FirstName),
		LastName:      strings.TrimSpace(in.LastName),
		StatusMessage: status,
		PhoneNumber:   strings.TrimSpace(in.PhoneNumber),
		UpdatedAt:     a.now(),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, storeErr("updating profile", err)
	}
	return a.GetUser(ctx, userID)
}

func (a *accountService) IsOnline(user *entity.User) bool {
	return user.OnlineAt(a.now(), a.window)
}
