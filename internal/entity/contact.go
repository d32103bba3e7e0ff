/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package entity

import "time"

// Contact is a directed edge: UserID keeps ContactUserID in their address book.
type Contact struct {
	ID            string    `gorm:"primaryKey" json:"id"`
	UserID        string    `gorm:"not null;uniqueIndex:unique_contact" json:"user_id"`         // Owner of the address book
	ContactUserID string    `gorm:"not null;uniqueIndex:unique_contact" json:"contact_user_id"` // User being referenced
	ContactName   string    `json:"contact_name"`                                               // Optional custom name
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`

	ContactUser User `gorm:"foreignKey:ContactUserID;references:ID" json:"contact_user"`
}
