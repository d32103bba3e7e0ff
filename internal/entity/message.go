/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package entity

import "time"

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageFile  MessageType = "file"
	MessageEmoji MessageType = "emoji"
)

// ParseMessageType validates t, an empty string meaning text
func ParseMessageType(t string) (MessageType, bool) {
	switch MessageType(t) {
	case "", MessageText:
		return MessageText, true
	case MessageImage, MessageFile, MessageEmoji:
		return MessageType(t), true
	}
	return "", false
}

// Represents a message sent inside a chat.
// ReceiverID is filled only in individual chats; group messages are tracked at chat level.
type Message struct {
	ID          string      `gorm:"primaryKey" json:"id"`                        // Time ordered UUID, ties on CreatedAt follow insertion order
	ChatID      string      `gorm:"not null;index" json:"chat_id"`               // Chat the message belongs to
	SenderID    string      `gorm:"not null;index" json:"sender_id"`             // Author
	ReceiverID  *string     `gorm:"index" json:"receiver_id"`                    // Other active member at send time
	MessageType MessageType `gorm:"not null;default:'text'" json:"message_type"` // text, image, file or emoji
	Content     string      `gorm:"type:text;not null" json:"content"`           // Never empty once trimmed
	FileURL     *string     `json:"file_url"`                                    // Opaque, never fetched
	ReplyToID   *string     `gorm:"index" json:"reply_to_id"`                    // Parent message, resolved by id lookup

	IsDelivered bool       `gorm:"not null;default:false" json:"is_delivered"`
	DeliveredAt *time.Time `json:"delivered_at"`
	IsRead      bool       `gorm:"not null;default:false;index" json:"is_read"`
	ReadAt      *time.Time `json:"read_at"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	Sender User `gorm:"foreignKey:SenderID;references:ID" json:"-"`
}
