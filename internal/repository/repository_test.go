/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package repository

import (
	"context"
	"testing"
	"time"

	"vailethchat/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&entity.User{}, &entity.Contact{}, &entity.Chat{}, &entity.GroupMember{}, &entity.Message{}, &entity.Status{}))
	return db
}

func addUser(t *testing.T, repo UserRepository, id, first, last, email string) *entity.User {
	t.Helper()
	u := &entity.User{ID: id, FirstName: first, LastName: last, StatusMessage: entity.DefaultStatusMessage, LastSeen: time.Now()}
	if email != "" {
		u.Email = &email
	}
	require.NoError(t, repo.Upsert(context.Background(), u))
	return u
}

func addIndividualChat(t *testing.T, repo ChatRepository, a, b string, createdAt time.Time) *entity.Chat {
	t.Helper()
	key := entity.PairKey(a, b)
	chat := &entity.Chat{ID: uuid.NewString(), ChatType: entity.ChatIndividual, CreatedBy: a, PairKey: &key, CreatedAt: createdAt, UpdatedAt: createdAt}
	members := []*entity.GroupMember{
		{ID: uuid.NewString(), UserID: a, Role: entity.RoleMember, JoinedAt: createdAt},
		{ID: uuid.NewString(), UserID: b, Role: entity.RoleMember, JoinedAt: createdAt},
	}
	require.NoError(t, repo.CreateWithMembers(context.Background(), chat, members))
	return chat
}

func TestUpsertPreservesLocalProfile(t *testing.T) {
	db := openTestDB(t)
	users := NewSQLiteUserRepository(db)
	ctx := context.Background()

	addUser(t, users, "u1", "Ana", "Lima", "ana@x.com")
	require.NoError(t, users.UpdateProfile(ctx, "u1", ProfileFields{FirstName: "Ana", LastName: "Lima", StatusMessage: "busy", PhoneNumber: "123", UpdatedAt: time.Now()}))

	addUser(t, users, "u1", "Anna", "Lima", "anna@x.com")

	u, err := users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Anna", u.FirstName)
	assert.Equal(t, "anna@x.com", u.EmailOrEmpty())
	assert.Equal(t, "busy", u.StatusMessage)
	assert.Equal(t, "123", u.PhoneNumber)
}

func TestUpdateProfileUnknownUser(t *testing.T) {
	db := openTestDB(t)
	users := NewSQLiteUserRepository(db)

	err := users.UpdateProfile(context.Background(), "ghost", ProfileFields{UpdatedAt: time.Now()})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserSearchEscapesWildcards(t *testing.T) {
	db := openTestDB(t)
	users := NewSQLiteUserRepository(db)
	ctx := context.Background()

	addUser(t, users, "me", "Me", "", "")
	addUser(t, users, "u1", "Ana", "Lima", "ana@x.com")
	addUser(t, users, "u2", "Bob", "100%", "")

	found, err := users.Search(ctx, "me", "LIM", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "u1", found[0].ID)

	found, err = users.Search(ctx, "me", "%", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "u2", found[0].ID)

	found, err = users.Search(ctx, "me", "me", 10)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestListAvailableExcludesSelfAndContacts(t *testing.T) {
	db := openTestDB(t)
	users := NewSQLiteUserRepository(db)
	contacts := NewSQLiteContactRepository(db)
	ctx := context.Background()

	addUser(t, users, "me", "Me", "", "")
	addUser(t, users, "u1", "Ana", "", "")
	addUser(t, users, "u2", "Bob", "", "")
	require.NoError(t, contacts.Create(ctx, &entity.Contact{ID: uuid.NewString(), UserID: "me", ContactUserID: "u1", CreatedAt: time.Now()}))

	available, err := users.ListAvailable(ctx, "me")
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, "u2", available[0].ID)
}

func TestDuplicateContactIsTranslated(t *testing.T) {
	db := openTestDB(t)
	users := NewSQLiteUserRepository(db)
	contacts := NewSQLiteContactRepository(db)
	ctx := context.Background()

	addUser(t, users, "me", "Me", "", "")
	addUser(t, users, "u1", "Ana", "", "")

	require.NoError(t, contacts.Create(ctx, &entity.Contact{ID: uuid.NewString(), UserID: "me", ContactUserID: "u1", CreatedAt: time.Now()}))
	err := contacts.Create(ctx, &entity.Contact{ID: uuid.NewString(), UserID: "me", ContactUserID: "u1", CreatedAt: time.Now()})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	list, err := contacts.ListWithUsers(ctx, "me")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Ana", list[0].ContactUser.FirstName)
}

func TestFindIndividualIgnoresLapsedMembership(t *testing.T) {
	db := openTestDB(t)
	users := NewSQLiteUserRepository(db)
	chats := NewSQLiteChatRepository(db)
	ctx := context.Background()

	addUser(t, users, "a", "A", "", "")
	addUser(t, users, "b", "B", "", "")
	chat := addIndividualChat(t, chats, "a", "b", time.Now())

	found, err := chats.FindIndividual(ctx, "b", "a")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, chat.ID, found.ID)

	left, err := chats.Leave(ctx, chat.ID, "b", time.Now())
	require.NoError(t, err)
	assert.True(t, left)

	found, err = chats.FindIndividual(ctx, "a", "b")
	require.NoError(t, err)
	assert.Nil(t, found)

	require.NoError(t, chats.ReactivateMembers(ctx, chat.ID, []string{"a", "b"}, time.Now()))
	found, err = chats.FindIndividual(ctx, "a", "b")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, chat.ID, found.ID)
}

func TestPairKeyIsUnique(t *testing.T) {
	db := openTestDB(t)
	users := NewSQLiteUserRepository(db)
	chats := NewSQLiteChatRepository(db)

	addUser(t, users, "a", "A", "", "")
	addUser(t, users, "b", "B", "", "")
	addIndividualChat(t, chats, "a", "b", time.Now())

	key := entity.PairKey("b", "a")
	dup := &entity.Chat{ID: uuid.NewString(), ChatType: entity.ChatIndividual, CreatedBy: "b", PairKey: &key, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	err := chats.CreateWithMembers(context.Background(), dup, nil)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestOtherActiveMember(t *testing.T) {
	db := openTestDB(t)
	users := NewSQLiteUserRepository(db)
	chats := NewSQLiteChatRepository(db)
	ctx := context.Background()

	addUser(t, users, "a", "A", "", "")
	addUser(t, users, "b", "B", "", "")
	chat := addIndividualChat(t, chats, "a", "b", time.Now())

	other, ok, err := chats.OtherActiveMember(ctx, chat.ID, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "b", other)

	_, err = chats.Leave(ctx, chat.ID, "b", time.Now())
	require.NoError(t, err)

	_, ok, err = chats.OtherActiveMember(ctx, chat.ID, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecentForUserOrdersByActivity(t *testing.T) {
	db := openTestDB(t)
	users := NewSQLiteUserRepository(db)
	chats := NewSQLiteChatRepository(db)
	ctx := context.Background()

	addUser(t, users, "a", "A", "", "")
	addUser(t, users, "b", "B", "", "")
	addUser(t, users, "c", "C", "", "")

	base := time.Now().Add(-time.Hour)
	first := addIndividualChat(t, chats, "a", "b", base)
	second := addIndividualChat(t, chats, "a", "c", base.Add(time.Minute))

	require.NoError(t, chats.Touch(ctx, first.ID, base.Add(10*time.Minute)))

	recent, err := chats.RecentForUser(ctx, "a", 20)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, first.ID, recent[0].ID)
	assert.Equal(t, second.ID, recent[1].ID)
	assert.Len(t, recent[0].Members, 2)
}

func TestMarkReadOnlyTouchesReceiver(t *testing.T) {
	db := openTestDB(t)
	users := NewSQLiteUserRepository(db)
	chats := NewSQLiteChatRepository(db)
	messages := NewSQLiteMessageRepository(db)
	ctx := context.Background()

	addUser(t, users, "a", "A", "", "")
	addUser(t, users, "b", "B", "", "")
	chat := addIndividualChat(t, chats, "a", "b", time.Now())

	b, a := "b", "a"
	now := time.Now()
	require.NoError(t, messages.Create(ctx, &entity.Message{ID: uuid.NewString(), ChatID: chat.ID, SenderID: "a", ReceiverID: &b, MessageType: entity.MessageText, Content: "hi", CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, messages.Create(ctx, &entity.Message{ID: uuid.NewString(), ChatID: chat.ID, SenderID: "b", ReceiverID: &a, MessageType: entity.MessageText, Content: "yo", CreatedAt: now, UpdatedAt: now}))

	count, err := messages.MarkRead(ctx, chat.ID, "b", now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	count, err = messages.MarkRead(ctx, chat.ID, "b", now)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)

	list, err := messages.ListByChat(ctx, chat.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, m := range list {
		assert.Equal(t, m.SenderID == "a", m.IsRead)
	}
}

func TestMessageSearchSkipsLeftChats(t *testing.T) {
	db := openTestDB(t)
	users := NewSQLiteUserRepository(db)
	chats := NewSQLiteChatRepository(db)
	messages := NewSQLiteMessageRepository(db)
	ctx := context.Background()

	addUser(t, users, "a", "A", "", "")
	addUser(t, users, "b", "B", "", "")
	chat := addIndividualChat(t, chats, "a", "b", time.Now())

	now := time.Now()
	require.NoError(t, messages.Create(ctx, &entity.Message{ID: uuid.NewString(), ChatID: chat.ID, SenderID: "a", MessageType: entity.MessageText, Content: "Hello World", CreatedAt: now, UpdatedAt: now}))

	found, err := messages.Search(ctx, "b", "world", 20)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "A", found[0].Sender.FirstName)

	_, err = chats.Leave(ctx, chat.ID, "b", now)
	require.NoError(t, err)

	found, err = messages.Search(ctx, "b", "world", 20)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestStatusListByUsers(t *testing.T) {
	db := openTestDB(t)
	users := NewSQLiteUserRepository(db)
	statuses := NewSQLiteStatusRepository(db)
	ctx := context.Background()

	addUser(t, users, "a", "A", "", "")
	addUser(t, users, "b", "B", "", "")

	now := time.Now()
	require.NoError(t, statuses.Create(ctx, &entity.Status{ID: uuid.NewString(), UserID: "a", Content: "old", BackgroundColor: entity.DefaultStatusColor, ExpiresAt: now.Add(time.Hour), CreatedAt: now.Add(-time.Minute)}))
	require.NoError(t, statuses.Create(ctx, &entity.Status{ID: uuid.NewString(), UserID: "a", Content: "new", BackgroundColor: entity.DefaultStatusColor, ExpiresAt: now.Add(time.Hour), CreatedAt: now}))
	require.NoError(t, statuses.Create(ctx, &entity.Status{ID: uuid.NewString(), UserID: "b", Content: "other", BackgroundColor: entity.DefaultStatusColor, ExpiresAt: now.Add(time.Hour), CreatedAt: now}))

	list, err := statuses.ListByUsers(ctx, []string{"a"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].Content)

	list, err = statuses.ListByUsers(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, `%50\%\_OFF%`, containsPattern("50%_OFF"))
}
