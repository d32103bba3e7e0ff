/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestDisplayNameFirstAndLast(t *testing.T) {
	u := User{ID: "1", FirstName: "Ana", LastName: "Lima", Email: strPtr("ana@x.com")}
	assert.Equal(t, "Ana Lima", u.DisplayName())
}

func TestDisplayNameFirstOnly(t *testing.T) {
	u := User{ID: "1", FirstName: "Ana", Email: strPtr("ana@x.com")}
	assert.Equal(t, "Ana", u.DisplayName())
}

func TestDisplayNameLastOnlyFallsBackToEmail(t *testing.T) {
	u := User{ID: "1", LastName: "Lima", Email: strPtr("ana.lima@x.com")}
	assert.Equal(t, "ana.lima", u.DisplayName())
}

func TestDisplayNameFallsBackToID(t *testing.T) {
	u := User{ID: "42"}
	assert.Equal(t, "User 42", u.DisplayName())

	u.Email = strPtr("")
	assert.Equal(t, "User 42", u.DisplayName())
}

func TestStatusExpiry(t *testing.T) {
	now := time.Now()
	past := Status{ExpiresAt: now.Add(-time.Minute)}
	future := Status{ExpiresAt: now.Add(time.Minute)}

	assert.True(t, past.IsExpired(now))
	assert.False(t, future.IsExpired(now))
}

func TestOnlineAtDecays(t *testing.T) {
	now := time.Now()
	u := User{IsOnline: true, LastSeen: now.Add(-10 * time.Minute)}

	assert.False(t, u.OnlineAt(now, 5*time.Minute))
	assert.True(t, u.OnlineAt(now, 15*time.Minute))
	assert.True(t, u.OnlineAt(now, 0))

	u.IsOnline = false
	assert.False(t, u.OnlineAt(now, 0))
}

func TestPairKeyIsOrderIndependent(t *testing.T) {
	assert.Equal(t, PairKey("a", "b"), PairKey("b", "a"))
	assert.Equal(t, "a:b", PairKey("b", "a"))
}

func TestParseMessageType(t *testing.T) {
	typ, ok := ParseMessageType("")
	assert.True(t, ok)
	assert.Equal(t, MessageText, typ)

	typ, ok = ParseMessageType("emoji")
	assert.True(t, ok)
	assert.Equal(t, MessageEmoji, typ)

	_, ok = ParseMessageType("video")
	assert.False(t, ok)
}
