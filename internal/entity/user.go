/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package entity

import (
	"fmt"
	"strings"
	"time"
)

// Greeting shown as status message until the user writes their own
const DefaultStatusMessage = "Hey there! I am using VailethChat."

// User mirrors the identity handed over by the OAuth broker, plus the profile and presence kept locally.
type User struct {
	ID              string    `gorm:"primaryKey" json:"id"`                    // Opaque identifier assigned by the identity provider
	Email           *string   `gorm:"uniqueIndex" json:"email"`                // Nullable, unique when present
	FirstName       string    `json:"first_name"`                              // Given name, may be empty
	LastName        string    `json:"last_name"`                               // Family name, may be empty
	ProfileImageURL string    `json:"profile_image_url"`                       // Opaque avatar URL
	StatusMessage   string    `json:"status_message"`                          // Free text, DefaultStatusMessage when unset
	PhoneNumber     string    `json:"phone_number"`                            // Free text, never validated
	IsOnline        bool      `gorm:"not null;default:false" json:"is_online"` // Set on every authenticated request, cleared on logout
	LastSeen        time.Time `gorm:"not null;index" json:"last_seen"`         // Time of the last authenticated request
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null" json:"updated_at"`
}

// DisplayName resolves the name shown to other users:
// first and last name, then first name alone, then the local part of the email, then "User <id>".
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.Email != nil && *u.Email != "":
		local, _, _ := strings.Cut(*u.Email, "@")
		return local
	}
	return fmt.Sprintf("User %s", u.ID)
}

// OnlineAt reports the effective presence of the user at time now.
// The stored flag only counts while the last request is younger than window; a zero window trusts the flag alone.
func (u *User) OnlineAt(now time.Time, window time.Duration) bool {
	if !u.IsOnline {
		return false
	}
	if window <= 0 {
		return true
	}
	return now.Sub(u.LastSeen) <= window
}

// EmailOrEmpty dereferences the nullable email
func (u *User) EmailOrEmpty() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}
