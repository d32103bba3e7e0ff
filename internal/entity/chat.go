/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package entity

import "time"

type ChatType string

const (
	ChatIndividual ChatType = "individual"
	ChatGroup      ChatType = "group"
)

// Chat is either a two-party conversation or a named group.
// Membership lives in GroupMember rows for both kinds.
type Chat struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	ChatType    ChatType  `gorm:"not null;index" json:"chat_type"`
	Name        string    `json:"name"`                             // Group chats only
	Description string    `json:"description"`                      // Group chats only
	CreatedBy   string    `gorm:"not null" json:"created_by"`       // Id of the creator
	CreatedAt   time.Time `gorm:"not null;index" json:"created_at"` // Time of creation
	UpdatedAt   time.Time `gorm:"not null;index" json:"updated_at"` // Bumped on every new message, used to sort chat lists
	PairKey     *string   `gorm:"uniqueIndex" json:"-"`             // <low-id>:<high-id> for individual chats, NULL for groups

	Members []GroupMember `gorm:"foreignKey:ChatID;references:ID" json:"members,omitempty"`
}

func (c *Chat) IsIndividual() bool {
	return c.ChatType == ChatIndividual
}

// PairKey builds the order independent key of an individual chat between a and b
func PairKey(a, b string) string {
	if a < b {
		return a + ":" + b
	}
	return b + ":" + a
}
