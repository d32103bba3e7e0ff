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
	"testing"
	"time"

	"vailethchat/internal/data"
	"vailethchat/internal/entity"
	"vailethchat/internal/identity"
	"vailethchat/internal/nlog"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store *data.StorageManager
	clock time.Time

	membership *membershipService
	messages   *messageService
	directory  *directoryService
	accounts   *accountService
	statuses   *statusService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := data.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	log := nlog.Discard().RegisterSubsystem("test")
	f := &fixture{store: store, clock: time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)}
	now := func() time.Time { return f.clock }

	f.membership = NewMembershipService(store.GetTransactor(), store.GetUserRepository(), store.GetChatRepository(), log).(*membershipService)
	f.messages = NewMessageService(store.GetTransactor(), store.GetUserRepository(), store.GetChatRepository(), store.GetMessageRepository(), log).(*messageService)
	f.directory = NewDirectoryService(store.GetUserRepository(), store.GetContactRepository(), store.GetChatRepository(), store.GetMessageRepository(), log).(*directoryService)
	f.accounts = NewAccountService(store.GetUserRepository(), 5*time.Minute, log).(*accountService)
	f.statuses = NewStatusService(store.GetStatusRepository(), store.GetContactRepository(), 24*time.Hour, log).(*statusService)

	f.membership.now = now
	f.messages.now = now
	f.directory.now = now
	f.accounts.now = now
	f.statuses.now = now
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func (f *fixture) user(t *testing.T, id, first, last, email string) *entity.User {
	t.Helper()
	u, err := f.accounts.SyncIdentity(context.Background(), identity.Identity{ID: id, FirstName: first, LastName: last, Email: email})
	require.NoError(t, err)
	return u
}

func (f *fixture) send(t *testing.T, sender, chatID, content string) *entity.Message {
	t.Helper()
	sent, err := f.messages.SendMessage(context.Background(), SendInput{SenderID: sender, ChatID: chatID, Content: content})
	require.NoError(t, err)
	return sent.Message
}
