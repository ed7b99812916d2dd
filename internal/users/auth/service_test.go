// Copyright (c) 2026 Tasknest. All rights reserved.
// Author: dev@tasknest.app

package auth_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasknest/tasknest/internal/platform/apperr"
	"github.com/tasknest/tasknest/internal/platform/sec"
	"github.com/tasknest/tasknest/internal/users/auth"
)

// # In-Memory Fakes

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*auth.User // by ID
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*auth.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return apperr.Conflict("User already exists")
		}
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id string) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		return user, nil
	}
	return nil, apperr.NotFound("User")
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, apperr.NotFound("User")
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*auth.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*auth.Session)}
}

func (r *fakeSessionRepo) Create(_ context.Context, session *auth.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	r.sessions[session.ID] = session
	return nil
}

func (r *fakeSessionRepo) FindByID(_ context.Context, id string) (*auth.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[id]; ok {
		return session, nil
	}
	return nil, apperr.NotFound("Session")
}

func (r *fakeSessionRepo) DeleteByID(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false, nil
	}
	delete(r.sessions, id)
	return true, nil
}

func (r *fakeSessionRepo) DeleteByIDForUser(_ context.Context, id, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok || session.UserID != userID {
		return 0, nil
	}
	delete(r.sessions, id)
	return 1, nil
}

func (r *fakeSessionRepo) DeleteAllForUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, session := range r.sessions {
		if session.UserID == userID {
			delete(r.sessions, id)
		}
	}
	return nil
}

func (r *fakeSessionRepo) DeleteExpired(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, session := range r.sessions {
		if session.ExpiresAt.Before(time.Now()) {
			delete(r.sessions, id)
		}
	}
	return nil
}

func (r *fakeSessionRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

type fakeBlacklist struct {
	mu      sync.Mutex
	entries map[string]time.Duration
}

func newFakeBlacklist() *fakeBlacklist {
	return &fakeBlacklist{entries: make(map[string]time.Duration)}
}

func (b *fakeBlacklist) Add(_ context.Context, tokenID string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ttl <= 0 {
		return nil
	}
	b.entries[tokenID] = ttl
	return nil
}

func (b *fakeBlacklist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.entries[tokenID]
	return ok, nil
}

// # Fixture

type fixture struct {
	service   *auth.Service
	users     *fakeUserRepo
	sessions  *fakeSessionRepo
	blacklist *fakeBlacklist
	codec     *sec.TokenCodec
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	blacklist := newFakeBlacklist()
	codec := sec.NewTokenCodec(
		"test-access-secret",
		"test-refresh-secret",
		15*time.Minute,
		7*24*time.Hour,
		"tasknest.app",
	)
	hasher := sec.NewPasswordHasher(4) // minimal cost keeps tests fast

	service := auth.NewService(users, sessions, blacklist, codec, hasher, "test-pepper", slog.Default())

	return &fixture{
		service:   service,
		users:     users,
		sessions:  sessions,
		blacklist: blacklist,
		codec:     codec,
	}
}

func (f *fixture) register(t *testing.T, email string) *auth.TokenPair {
	t.Helper()
	pair, err := f.service.Register(context.Background(), auth.RegisterInput{
		Name:     "Alice",
		Email:    email,
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	return pair
}

// # Registration & Login

/*
TestService_Register_IssuesWorkingPair covers the happy path end to end:
a new account immediately holds tokens that verify under the right secrets
and are backed by a session row.
*/
func TestService_Register_IssuesWorkingPair(t *testing.T) {
	f := newFixture(t)

	pair := f.register(t, "alice@example.com")

	require.NotNil(t, pair.User)
	assert.Equal(t, "alice@example.com", pair.User.Email)
	assert.NotEmpty(t, pair.User.ID)

	// Access token verifies under the access secret.
	accessClaims, err := f.codec.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, pair.User.ID, accessClaims.UserID())

	// Refresh token verifies under the refresh secret and its jti matches
	// the persisted session.
	refreshClaims, err := f.codec.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	session, err := f.sessions.FindByID(context.Background(), refreshClaims.SessionID())
	require.NoError(t, err)
	assert.Equal(t, pair.User.ID, session.UserID)
}

func TestService_Register_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice@example.com")

	_, err := f.service.Register(context.Background(), auth.RegisterInput{
		Name:     "Impostor",
		Email:    "alice@example.com",
		Password: "another password",
	})

	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "CONFLICT", ae.Code)
}

func TestService_Login_Succeeds(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice@example.com")

	pair, err := f.service.Login(context.Background(), auth.LoginInput{
		Email:    "alice@example.com",
		Password: "correct horse battery",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
}

/*
TestService_Login_NoEnumeration verifies that an unknown email and a wrong
password are indistinguishable: same error code, same message, same HTTP
status. Any divergence here would let a caller probe which emails exist.
*/
func TestService_Login_NoEnumeration(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice@example.com")

	_, unknownErr := f.service.Login(context.Background(), auth.LoginInput{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	_, wrongPassErr := f.service.Login(context.Background(), auth.LoginInput{
		Email:    "alice@example.com",
		Password: "not the password",
	})

	require.Error(t, unknownErr)
	require.Error(t, wrongPassErr)

	unknown := apperr.As(unknownErr)
	wrongPass := apperr.As(wrongPassErr)
	require.NotNil(t, unknown)
	require.NotNil(t, wrongPass)

	assert.Equal(t, unknown.Code, wrongPass.Code)
	assert.Equal(t, unknown.Message, wrongPass.Message)
	assert.Equal(t, unknown.HTTPStatus, wrongPass.HTTPStatus)
}

// # Rotation

func TestService_Refresh_RotatesPair(t *testing.T) {
	f := newFixture(t)
	pair := f.register(t, "alice@example.com")

	rotated, err := f.service.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)

	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, rotated.AccessToken)
	assert.Equal(t, pair.User.ID, rotated.User.ID)

	// Only the rotated session remains.
	assert.Equal(t, 1, f.sessions.count())
}

/*
TestService_Refresh_SingleUse replays a refresh token after it has been
rotated. The first use consumed the session row, so the replay must be
rejected even though the JWT itself is still cryptographically valid.
*/
func TestService_Refresh_SingleUse(t *testing.T) {
	f := newFixture(t)
	pair := f.register(t, "alice@example.com")

	_, err := f.service.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)

	_, err = f.service.Refresh(context.Background(), pair.RefreshToken)
	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "UNAUTHORIZED", ae.Code)
}

/*
TestService_Refresh_LostRace simulates the second of two concurrent refresh
calls with the same token: the session row exists when it is read, but the
delete affects zero rows because the winner got there first.
*/
func TestService_Refresh_LostRace(t *testing.T) {
	f := newFixture(t)
	pair := f.register(t, "alice@example.com")

	claims, err := f.codec.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)

	repo := &racingSessionRepo{fakeSessionRepo: f.sessions, loseFor: claims.SessionID()}
	service := rebuildService(f, repo)

	_, err = service.Refresh(context.Background(), pair.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
}

// racingSessionRepo lets FindByID succeed but makes the subsequent delete
// report that another request already consumed the row.
type racingSessionRepo struct {
	*fakeSessionRepo
	loseFor string
}

func (r *racingSessionRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	if id == r.loseFor {
		return false, nil
	}
	return r.fakeSessionRepo.DeleteByID(ctx, id)
}

func rebuildService(f *fixture, sessions auth.SessionRepository) *auth.Service {
	hasher := sec.NewPasswordHasher(4)
	return auth.NewService(f.users, sessions, f.blacklist, f.codec, hasher, "test-pepper", slog.Default())
}

func TestService_Refresh_RejectsAccessToken(t *testing.T) {
	f := newFixture(t)
	pair := f.register(t, "alice@example.com")

	// An access token presented at the refresh path must die on signature
	// verification; the two token kinds share structure but not secrets.
	_, err := f.service.Refresh(context.Background(), pair.AccessToken)
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
}

func TestService_Refresh_DeletedUser(t *testing.T) {
	f := newFixture(t)
	pair := f.register(t, "alice@example.com")

	// Wipe the account out from under the live session.
	f.users.mu.Lock()
	f.users.users = map[string]*auth.User{}
	f.users.mu.Unlock()

	_, err := f.service.Refresh(context.Background(), pair.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
}

// # Logout

func TestService_Logout_DeletesSessionAndBlacklists(t *testing.T) {
	f := newFixture(t)
	pair := f.register(t, "alice@example.com")

	refreshClaims, err := f.codec.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	accessClaims, err := f.codec.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)

	f.service.Logout(context.Background(), pair.User.ID, refreshClaims.SessionID(), pair.AccessToken)

	// Session is gone, so the refresh token is dead.
	_, err = f.service.Refresh(context.Background(), pair.RefreshToken)
	require.Error(t, err)

	// Access token jti landed on the blacklist with a positive TTL.
	revoked, err := f.blacklist.IsRevoked(context.Background(), accessClaims.SessionID())
	require.NoError(t, err)
	assert.True(t, revoked)
}

/*
TestService_Logout_Idempotent runs logout twice with the same session. The
second call finds nothing to delete and must behave exactly like the first
from the caller's perspective: no panic, no error surfaced.
*/
func TestService_Logout_Idempotent(t *testing.T) {
	f := newFixture(t)
	pair := f.register(t, "alice@example.com")

	refreshClaims, err := f.codec.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)

	f.service.Logout(context.Background(), pair.User.ID, refreshClaims.SessionID(), "")
	f.service.Logout(context.Background(), pair.User.ID, refreshClaims.SessionID(), "")

	assert.Equal(t, 0, f.sessions.count())
}

func TestService_Logout_WrongUserLeavesSession(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice@example.com")
	bob := f.register(t, "bob@example.com")

	aliceClaims, err := f.codec.VerifyRefresh(alice.RefreshToken)
	require.NoError(t, err)

	// Bob cannot tear down Alice's session; the compound key misses.
	f.service.Logout(context.Background(), bob.User.ID, aliceClaims.SessionID(), "")

	_, err = f.sessions.FindByID(context.Background(), aliceClaims.SessionID())
	assert.NoError(t, err)
}

func TestService_Logout_ExpiredAccessTokenNotBlacklisted(t *testing.T) {
	f := newFixture(t)
	pair := f.register(t, "alice@example.com")

	// A codec with a negative TTL mints an already-expired access token.
	expiredCodec := sec.NewTokenCodec(
		"test-access-secret",
		"test-refresh-secret",
		-1*time.Minute,
		7*24*time.Hour,
		"tasknest.app",
	)
	expiredAccess, jti, err := expiredCodec.IssueAccess(pair.User.ID, pair.User.Email)
	require.NoError(t, err)

	refreshClaims, err := f.codec.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)

	f.service.Logout(context.Background(), pair.User.ID, refreshClaims.SessionID(), expiredAccess)

	// Nothing to revoke: the token cannot be used anymore anyway.
	revoked, err := f.blacklist.IsRevoked(context.Background(), jti)
	require.NoError(t, err)
	assert.False(t, revoked)
}
