// Copyright (c) 2026 Tasknest. All rights reserved.
// Author: dev@tasknest.app

package account_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasknest/tasknest/internal/platform/apperr"
	"github.com/tasknest/tasknest/internal/users/account"
	"github.com/tasknest/tasknest/internal/users/auth"
)

// # Fakes

type fakeAccountRepo struct {
	mu    sync.Mutex
	users map[string]*auth.User
	reads int
}

func newFakeAccountRepo(users ...*auth.User) *fakeAccountRepo {
	repo := &fakeAccountRepo{users: make(map[string]*auth.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (r *fakeAccountRepo) FindByID(_ context.Context, id string) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	if user, ok := r.users[id]; ok {
		clone := *user
		return &clone, nil
	}
	return nil, apperr.NotFound("User")
}

func (r *fakeAccountRepo) Update(_ context.Context, user *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.users {
		if id != user.ID && existing.Email == user.Email {
			return apperr.Conflict("User already exists")
		}
	}
	user.UpdatedAt = time.Now()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeAccountRepo) SoftDelete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

func (r *fakeAccountRepo) readCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reads
}

type fakeSessionRevoker struct {
	mu      sync.Mutex
	revoked []string
}

func (r *fakeSessionRevoker) DeleteAllForUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked = append(r.revoked, userID)
	return nil
}

// # Fixture

type fixture struct {
	service  *account.Service
	repo     *fakeAccountRepo
	revoker  *fakeSessionRevoker
	redis    *miniredis.Miniredis
	redisCli *redis.Client
}

func newFixture(t *testing.T, users ...*auth.User) *fixture {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newFakeAccountRepo(users...)
	revoker := &fakeSessionRevoker{}
	service := account.NewService(repo, revoker, account.NewProfileCache(client), time.Hour, slog.Default())

	return &fixture{service: service, repo: repo, revoker: revoker, redis: server, redisCli: client}
}

func testUser() *auth.User {
	return &auth.User{
		ID:        "user-1",
		Name:      "Alice",
		Email:     "alice@example.com",
		CreatedAt: time.Now().Add(-time.Hour),
		UpdatedAt: time.Now().Add(-time.Hour),
	}
}

// # Read-Through

/*
TestService_GetProfile_ReadThrough verifies the populate-then-hit cycle: the
first read goes to the repository and fills Redis, the second is served from
the cached blob without touching the repository again.
*/
func TestService_GetProfile_ReadThrough(t *testing.T) {
	f := newFixture(t, testUser())

	first, err := f.service.GetProfile(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", first.Email)
	assert.Equal(t, 1, f.repo.readCount())

	// The blob landed under the expected key.
	assert.True(t, f.redis.Exists("user:user-1"))

	second, err := f.service.GetProfile(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, first.Email, second.Email)
	assert.Equal(t, 1, f.repo.readCount(), "second read must be a cache hit")
}

func TestService_GetProfile_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.GetProfile(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestService_Exists(t *testing.T) {
	f := newFixture(t, testUser())

	alive, err := f.service.Exists(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, alive)

	gone, err := f.service.Exists(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, gone)
}

// # Mutations & Invalidation

/*
TestService_UpdateProfile_InvalidatesBeforeAck is the core consistency
check: after a successful update, a follow-up read must observe the new
value, never a cached pre-update snapshot.
*/
func TestService_UpdateProfile_InvalidatesBeforeAck(t *testing.T) {
	f := newFixture(t, testUser())

	// Prime the cache with the old profile.
	_, err := f.service.GetProfile(context.Background(), "user-1")
	require.NoError(t, err)
	require.True(t, f.redis.Exists("user:user-1"))

	newName := "Alice Cooper"
	updated, err := f.service.UpdateProfile(context.Background(), "user-1", account.UpdateProfileInput{
		Name: &newName,
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice Cooper", updated.Name)

	// The stale blob is gone the moment the update is acknowledged.
	assert.False(t, f.redis.Exists("user:user-1"))

	after, err := f.service.GetProfile(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Alice Cooper", after.Name)
}

func TestService_UpdateProfile_EmailConflict(t *testing.T) {
	other := &auth.User{ID: "user-2", Name: "Bob", Email: "bob@example.com"}
	f := newFixture(t, testUser(), other)

	takenEmail := "bob@example.com"
	_, err := f.service.UpdateProfile(context.Background(), "user-1", account.UpdateProfileInput{
		Email: &takenEmail,
	})

	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)
}

func TestService_DeleteAccount(t *testing.T) {
	f := newFixture(t, testUser())

	// Prime the cache so deletion has something to drop.
	_, err := f.service.GetProfile(context.Background(), "user-1")
	require.NoError(t, err)

	require.NoError(t, f.service.DeleteAccount(context.Background(), "user-1"))

	assert.False(t, f.redis.Exists("user:user-1"))
	assert.Contains(t, f.revoker.revoked, "user-1")

	alive, err := f.service.Exists(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, alive)
}

/*
TestService_GetProfile_RedisDownDegrades drops the cache server entirely:
reads must still succeed straight from the repository.
*/
func TestService_GetProfile_RedisDownDegrades(t *testing.T) {
	f := newFixture(t, testUser())
	f.redis.Close()

	user, err := f.service.GetProfile(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
}
