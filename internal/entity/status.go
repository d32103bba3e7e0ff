/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package entity

import "time"

const DefaultStatusColor = "#25D366"

// Status is an ephemeral post. Nothing purges it, expiry is checked when it is read.
type Status struct {
	ID              string    `gorm:"primaryKey" json:"id"`
	UserID          string    `gorm:"not null;index" json:"user_id"`
	Content         string    `gorm:"type:text;not null" json:"content"`
	MediaURL        *string   `json:"media_url"`
	BackgroundColor string    `gorm:"not null;default:'#25D366'" json:"background_color"`
	ExpiresAt       time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`

	User User `gorm:"foreignKey:UserID;references:ID" json:"-"`
}

func (Status) TableName() string {
	return "status_updates"
}

func (s *Status) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
