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
	"regexp"
	"strings"
	"time"

	"vailethchat/internal/apperr"
	"vailethchat/internal/entity"
	"vailethchat/internal/nlog"
	"vailethchat/internal/repository"

	"github.com/google/uuid"
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type StatusInput struct {
	Content         string
	MediaURL        string
	BackgroundColor string        // Defaults to entity.DefaultStatusColor
	TTL             time.Duration // Defaults to the service TTL
}

// Service used to post and read ephemeral status updates
type StatusService interface {
	Post(ctx context.Context, userID string, in StatusInput) (*entity.Status, error) // Publishes a status expiring after its TTL
	ListVisible(ctx context.Context, userID string) ([]*entity.Status, error)       // Live statuses of the user and their contacts, newest first
}

type statusService struct {
	statuses   repository.StatusRepository
	contacts   repository.ContactRepository
	defaultTTL time.Duration
	logger     nlog.Logger
	now        clock
}

func NewStatusService(statuses repository.StatusRepository, contacts repository.ContactRepository, defaultTTL time.Duration, logger nlog.Logger) StatusService {
	return &statusService{
		statuses:   statuses,
		contacts:   contacts,
		defaultTTL: defaultTTL,
		logger:     logger,
		now:        timeNow,
	}
}

func (s *statusService) Logf(format string, v ...any) {
	s.logger.Logf(format, v...)
}

func (s *statusService) Post(ctx context.Context, userID string, in StatusInput) (*entity.Status, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, apperr.Validation("Status cannot be empty")
	}

	color := strings.TrimSpace(in.BackgroundColor)
	if color == "" {
		color = entity.DefaultStatusColor
	}
	if !colorPattern.MatchString(color) {
		return nil, apperr.Validation("Background color must look like #RRGGBB")
	}

	ttl := in.TTL
	if ttl == 0 {
		ttl = s.defaultTTL
	}
	if ttl < 0 {
		return nil, apperr.Validation("Status lifetime must be positive")
	}

	now := s.now()
	status := &entity.Status{
		ID:              uuid.New().String(),
		UserID:          userID,
		Content:         content,
		BackgroundColor: color,
		ExpiresAt:       now.Add(ttl),
		CreatedAt:       now,
	}
	if media := strings.TrimSpace(in.MediaURL); media != "" {
		status.MediaURL = &media
	}

	if err := s.statuses.Create(ctx, status); err != nil {
		return nil, storeErr("posting status", err)
	}
	s.Logf("Status {%s} posted by {%s}, expires at %s", status.ID, userID, status.ExpiresAt.Format(time.RFC3339))
	return status, nil
}

func (s *statusService) ListVisible(ctx context.Context, userID string) ([]*entity.Status, error) {
	ids, err := s.contacts.ContactUserIDs(ctx, userID)
	if err != nil {
		return nil, storeErr("listing contacts", err)
	}

	all, err := s.statuses.ListByUsers(ctx, append(ids, userID))
	if err != nil {
		return nil, storeErr("listing statuses", err)
	}

	now := s.now()
	visible := make([]*entity.Status, 0, len(all))
	for _, status := range all {
		if !status.IsExpired(now) {
			visible = append(visible, status)
		}
	}
	return visible, nil
}
