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
	"vailethchat/internal/metrics"
	"vailethchat/internal/nlog"
	"vailethchat/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service used to resolve who belongs to which chat, and to create chats.
// A user holds at most one membership row per chat, active while it has no left_at.
type MembershipService interface {
	FindOrCreateIndividualChat(ctx context.Context, userA, userB string) (*entity.Chat, error)                               // Returns the individual chat between the two users, creating or reviving it if needed
	CreateGroupChat(ctx context.Context, creatorID, name, description string, memberIDs []string) (*entity.Chat, error) // Creates a group whose admin is the creator

	GetChat(ctx context.Context, chatID string) (*entity.Chat, error)                                   // Retrieves a chat, NotFound if missing
	IsActiveMember(ctx context.Context, userID, chatID string) (bool, error)                           // Checks for an active membership
	OtherActiveMember(ctx context.Context, chatID, excludingUserID string) (string, bool, error)        // The counterpart in an individual chat
	ActiveMembers(ctx context.Context, chatID string) ([]*entity.GroupMember, error)                   // Active members with their profiles
	LeaveChat(ctx context.Context, userID, chatID string) error                                        // Ends the membership, Forbidden if there is none
}

type membershipService struct {
	tx     repository.Transactor
	users  repository.UserRepository
	chats  repository.ChatRepository
	logger nlog.Logger
	now    clock
}

func NewMembershipService(tx repository.Transactor, users repository.UserRepository, chats repository.ChatRepository, logger nlog.Logger) MembershipService {
	return &membershipService{
		tx:     tx,
		users:  users,
		chats:  chats,
		logger: logger,
		now:    timeNow,
	}
}

func (s *membershipService) Logf(format string, v ...any) {
	s.logger.Logf(format, v...)
}

func (s *membershipService) FindOrCreateIndividualChat(ctx context.Context, userA, userB string) (*entity.Chat, error) {
	if userA == userB {
		return nil, apperr.Validation("You cannot start a chat with yourself")
	}
	if _, err := s.users.GetByID(ctx, userB); err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, storeErr("loading user", err)
	}

	chat, err := s.chats.FindIndividual(ctx, userA, userB)
	if err != nil {
		return nil, storeErr("looking up individual chat", err)
	}
	if chat != nil {
		return chat, nil
	}

	key := entity.PairKey(userA, userB)
	created := false
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		existing, err := s.chats.GetByPairKey(ctx, key)
		switch {
		case err == nil:
			// Membership lapsed, the pair gets its old history back
			chat = existing
			s.Logf("Reviving individual chat {%s}", chat.ID)
			return s.chats.ReactivateMembers(ctx, chat.ID, []string{userA, userB}, s.now())
		case !isNotFound(err):
			return err
		}

		now := s.now()
		chat = &entity.Chat{
			ID:        uuid.New().String(),
			ChatType:  entity.ChatIndividual,
			CreatedBy: userA,
			CreatedAt: now,
			UpdatedAt: now,
			PairKey:   &key,
		}
		members := []*entity.GroupMember{
			{ID: uuid.New().String(), UserID: userA, Role: entity.RoleMember, JoinedAt: now},
			{ID: uuid.New().String(), UserID: userB, Role: entity.RoleMember, JoinedAt: now},
		}
		created = true
		return s.chats.CreateWithMembers(ctx, chat, members)
	})

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		s.Logf("Individual chat {%s} was created concurrently, reading the winner", key)
		winner, err := s.chats.GetByPairKey(ctx, key)
		if err != nil {
			return nil, storeErr("reading concurrent individual chat", err)
		}
		return winner, nil
	}
	if err != nil {
		return nil, storeErr("creating individual chat", err)
	}

	if created {
		metrics.ChatsCreated.WithLabelValues(string(entity.ChatIndividual)).Inc()
		s.Logf("Individual chat {%s} created between {%s} and {%s}", chat.ID, userA, userB)
	}
	return chat, nil
}

func (s *membershipService) CreateGroupChat(ctx context.Context, creatorID, name, description string, memberIDs []string) (*entity.Chat, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("Group name is required")
	}

	seen := map[string]bool{creatorID: true}
	var others []string
	for _, id := range memberIDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		others = append(others, id)
	}

	now := s.now()
	chat := &entity.Chat{
		ID:          uuid.New().String(),
		ChatType:    entity.ChatGroup,
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedBy:   creatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		count, err := s.users.CountByIDs(ctx, others)
		if err != nil {
			return err
		}
		if count != int64(len(others)) {
			return apperr.NotFound("Some of the selected users do not exist")
		}

		members := []*entity.GroupMember{{ID: uuid.New().String(), UserID: creatorID, Role: entity.RoleAdmin, JoinedAt: now}}
		for _, id := range others {
			members = append(members, &entity.GroupMember{ID: uuid.New().String(), UserID: id, Role: entity.RoleMember, JoinedAt: now})
		}
		return s.chats.CreateWithMembers(ctx, chat, members)
	})
	if err != nil {
		return nil, storeErr("creating group chat", err)
	}

	metrics.ChatsCreated.WithLabelValues(string(entity.ChatGroup)).Inc()
	s.Logf("Group {%s} created by {%s} with %d members", chat.ID, creatorID, len(others)+1)
	return chat, nil
}

func (s *membershipService) GetChat(ctx context.Context, chatID string) (*entity.Chat, error) {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("Chat not found")
		}
		return nil, storeErr("loading chat", err)
	}
	return chat, nil
}

func (s *membershipService) IsActiveMember(ctx context.Context, userID, chatID string) (bool, error) {
	ok, err := s.chats.IsActiveMember(ctx, userID, chatID)
	if err != nil {
		return false, storeErr("checking membership", err)
	}
	return ok, nil
}

func (s *membershipService) OtherActiveMember(ctx context.Context, chatID, excludingUserID string) (string, bool, error) {
	id, ok, err := s.chats.OtherActiveMember(ctx, chatID, excludingUserID)
	if err != nil {
		return "", false, storeErr("resolving counterpart", err)
	}
	return id, ok, nil
}

func (s *membershipService) ActiveMembers(ctx context.Context, chatID string) ([]*entity.GroupMember, error) {
	members, err := s.chats.ActiveMembers(ctx, chatID)
	if err != nil {
		return nil, storeErr("listing members", err)
	}
	return members, nil
}

func (s *membershipService) LeaveChat(ctx context.Context, userID, chatID string) error {
	left, err := s.chats.Leave(ctx, chatID, userID, s.now())
	if err != nil {
		return storeErr("leaving chat", err)
	}
	if !left {
		return apperr.Forbidden("You are not a member of this chat")
	}
	s.Logf("User {%s} left chat {%s}", userID, chatID)
	return nil
}
