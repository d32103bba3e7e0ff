/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"vailethchat/internal/apperr"
	"vailethchat/internal/entity"
	"vailethchat/internal/nlog"
	"vailethchat/internal/service"
)

type statusView struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Author          string    `json:"author"`
	Content         string    `json:"content"`
	MediaURL        *string   `json:"media_url"`
	BackgroundColor string    `json:"background_color"`
	CreatedAt       time.Time `json:"created_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}

func newStatusView(s *entity.Status, author string) statusView {
	return statusView{
		ID:              s.ID,
		UserID:          s.UserID,
		Author:          author,
		Content:         s.Content,
		MediaURL:        s.MediaURL,
		BackgroundColor: s.BackgroundColor,
		CreatedAt:       s.CreatedAt,
		ExpiresAt:       s.ExpiresAt,
	}
}

// StatusHandler lists and posts status updates
type StatusHandler struct {
	statuses service.StatusService
	logger   nlog.Logger
}

func NewStatusHandler(statuses service.StatusService, logger nlog.Logger) *StatusHandler {
	return &StatusHandler{
		statuses: statuses,
		logger:   logger,
	}
}

// List answers with the live statuses of the user and their contacts
func (s *StatusHandler) List(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	statuses, err := s.statuses.ListVisible(r.Context(), user.ID)
	if err != nil {
		jsonError(w, s.logger, err)
		return
	}

	views := make([]statusView, 0, len(statuses))
	for _, st := range statuses {
		views = append(views, newStatusView(st, st.User.DisplayName()))
	}
	writeJSON(w, http.StatusOK, map[string]any{"statuses": views})
}

// Post publishes a status. ttl_hours is optional, the configured lifetime applies when missing.
func (s *StatusHandler) Post(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var ttl time.Duration
	if raw := strings.TrimSpace(r.FormValue("ttl_hours")); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			jsonError(w, s.logger, apperr.Validation("ttl_hours must be a positive number of hours"))
			return
		}
		ttl = time.Duration(hours) * time.Hour
	}

	status, err := s.statuses.Post(r.Context(), user.ID, service.StatusInput{
		Content:         r.FormValue("content"),
		MediaURL:        r.FormValue("media_url"),
		BackgroundColor: r.FormValue("background_color"),
		TTL:             ttl,
	})
	if err != nil {
		jsonError(w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"status":  newStatusView(status, user.DisplayName()),
	})
}
