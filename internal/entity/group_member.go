/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package entity

import "time"

type MemberRole string

const (
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
)

// GroupMember binds a user to a chat. A user holds at most one row per chat;
// the membership is active while LeftAt is NULL.
type GroupMember struct {
	ID       string     `gorm:"primaryKey" json:"id"`
	ChatID   string     `gorm:"not null;uniqueIndex:unique_group_member;index" json:"chat_id"`
	UserID   string     `gorm:"not null;uniqueIndex:unique_group_member;index" json:"user_id"`
	Role     MemberRole `gorm:"not null;default:'member'" json:"role"`
	JoinedAt time.Time  `gorm:"not null" json:"joined_at"`
	LeftAt   *time.Time `gorm:"index" json:"left_at"`

	User User `gorm:"foreignKey:UserID;references:ID" json:"user"`
}

func (m *GroupMember) IsActive() bool {
	return m.LeftAt == nil
}
