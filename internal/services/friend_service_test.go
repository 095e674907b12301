package services

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mroshb/friendly/internal/models"
	"github.com/mroshb/friendly/internal/repositories"
	"github.com/mroshb/friendly/pkg/errors"
	"github.com/mroshb/friendly/pkg/friendly"
)

func newTestService(t *testing.T, opts ...friendly.Option) (*FriendService, []*models.Person) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.Person{}))

	store := repositories.NewFriendshipStore(db)
	reg := friendly.NewRegistry()
	_, err = friendly.Declare(context.Background(), reg, store, models.PersonType, opts...)
	require.NoError(t, err)

	people := repositories.NewPersonRepository(db)
	var created []*models.Person
	for i, name := range []string{"Alice", "Bob", "Carol"} {
		p := &models.Person{TelegramID: int64(i + 1), FullName: name}
		require.NoError(t, people.CreatePerson(p))
		created = append(created, p)
	}
	return NewFriendService(reg, store, people), created
}

func names(people []models.Person) []string {
	out := make([]string, 0, len(people))
	for _, p := range people {
		out = append(out, p.FullName)
	}
	return out
}

func TestFriendService_RequestAndAccept(t *testing.T) {
	svc, p := newTestService(t)
	ctx := context.Background()
	alice, bob, carol := p[0], p[1], p[2]

	outcome, err := svc.SendRequest(ctx, alice, bob)
	require.NoError(t, err)
	assert.Equal(t, RequestSent, outcome)

	outcome, err = svc.SendRequest(ctx, bob, alice)
	require.NoError(t, err)
	assert.Equal(t, RequestExists, outcome)

	_, err = svc.SendRequest(ctx, carol, bob)
	require.NoError(t, err)

	incoming, err := svc.IncomingRequests(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Carol"}, names(incoming))

	sent, err := svc.SentRequests(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob"}, names(sent))

	err = svc.Accept(ctx, alice, bob)
	assert.Equal(t, errors.ErrCodeNotFound, errors.CodeOf(err), "the requester cannot accept their own request")

	require.NoError(t, svc.Accept(ctx, bob, alice))

	friends, err := svc.Friends(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob"}, names(friends))

	ok, err := svc.AreFriends(ctx, bob, alice)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.AreFriends(ctx, bob, carol)
	require.NoError(t, err)
	assert.False(t, ok, "a pending request is not a friendship")
}

func TestFriendService_RejectAndRemove(t *testing.T) {
	svc, p := newTestService(t)
	ctx := context.Background()
	alice, bob := p[0], p[1]

	_, err := svc.SendRequest(ctx, alice, bob)
	require.NoError(t, err)
	require.NoError(t, svc.Reject(ctx, bob, alice))

	incoming, err := svc.IncomingRequests(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, incoming)

	_, err = svc.SendRequest(ctx, alice, bob)
	require.NoError(t, err)
	require.NoError(t, svc.Accept(ctx, bob, alice))

	err = svc.Reject(ctx, bob, alice)
	assert.Equal(t, errors.ErrCodeNotFound, errors.CodeOf(err), "accepted friendships are removed, not rejected")

	removed, err := svc.Remove(ctx, alice, bob)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = svc.Remove(ctx, alice, bob)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestFriendService_WithoutAcceptance(t *testing.T) {
	svc, p := newTestService(t, friendly.WithoutAcceptance())
	ctx := context.Background()

	outcome, err := svc.SendRequest(ctx, p[0], p[1])
	require.NoError(t, err)
	assert.Equal(t, RequestAccepted, outcome)

	friends, err := svc.Friends(ctx, p[1])
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice"}, names(friends))
}

func TestFriendService_SelfRequest(t *testing.T) {
	svc, p := newTestService(t)

	_, err := svc.SendRequest(context.Background(), p[0], p[0])
	assert.Equal(t, errors.ErrCodeValidation, errors.CodeOf(err))
}
