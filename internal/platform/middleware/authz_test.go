// Copyright (c) 2026 Tasknest. All rights reserved.
// Author: dev@tasknest.app

package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasknest/tasknest/internal/platform/middleware"
	"github.com/tasknest/tasknest/internal/platform/sec"
	"github.com/tasknest/tasknest/internal/users/auth"
)

// # Fakes

type fakePrincipals struct {
	alive map[string]bool
	err   error
}

func (p *fakePrincipals) Exists(_ context.Context, userID string) (bool, error) {
	if p.err != nil {
		return false, p.err
	}
	return p.alive[userID], nil
}

// # Fixture

type guardFixture struct {
	codec     *sec.TokenCodec
	blacklist *auth.RedisBlacklistStore
	redis     *miniredis.Miniredis
	handler   http.Handler
}

func newGuardFixture(t *testing.T, principals *fakePrincipals) *guardFixture {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	codec := sec.NewTokenCodec("test-access-secret", "test-refresh-secret",
		15*time.Minute, 168*time.Hour, "tasknest.app")
	blacklist := auth.NewBlacklistStore(client)

	protected := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		claims := middleware.GetUser(request.Context())
		if claims == nil {
			writer.WriteHeader(http.StatusInternalServerError)
			return
		}
		writer.WriteHeader(http.StatusOK)
		_, _ = writer.Write([]byte(claims.UserID()))
	})

	chain := middleware.Authenticate(codec, blacklist, principals)(
		middleware.RequireAuth(protected))

	return &guardFixture{codec: codec, blacklist: blacklist, redis: server, handler: chain}
}

func (f *guardFixture) request(t *testing.T, token string) *httptest.ResponseRecorder {
	t.Helper()

	request := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	f.handler.ServeHTTP(recorder, request)
	return recorder
}

// # Guard Behavior

func TestAuthenticate_ValidTokenPasses(t *testing.T) {
	f := newGuardFixture(t, &fakePrincipals{alive: map[string]bool{"user-1": true}})

	token, _, err := f.codec.IssueAccess("user-1", "alice@example.com")
	require.NoError(t, err)

	response := f.request(t, token)
	assert.Equal(t, http.StatusOK, response.Code)
	assert.Equal(t, "user-1", response.Body.String())
}

func TestAuthenticate_MissingTokenRejectedByGuard(t *testing.T) {
	f := newGuardFixture(t, &fakePrincipals{alive: map[string]bool{}})

	response := f.request(t, "")
	assert.Equal(t, http.StatusUnauthorized, response.Code)
}

/*
TestAuthenticate_BlacklistedTokenRejected pins the revocation contract: a
token whose signature and expiry are perfectly valid is still rejected once
its id appears on the blacklist. Logout depends on exactly this override.
*/
func TestAuthenticate_BlacklistedTokenRejected(t *testing.T) {
	f := newGuardFixture(t, &fakePrincipals{alive: map[string]bool{"user-1": true}})

	token, tokenID, err := f.codec.IssueAccess("user-1", "alice@example.com")
	require.NoError(t, err)

	// Sanity: the token works before revocation.
	assert.Equal(t, http.StatusOK, f.request(t, token).Code)

	require.NoError(t, f.blacklist.Add(context.Background(), tokenID, time.Hour))

	response := f.request(t, token)
	assert.Equal(t, http.StatusUnauthorized, response.Code)
	assert.Contains(t, response.Body.String(), "Invalid or expired token")
}

/*
TestAuthenticate_BlacklistDownFailsClosed verifies the availability tradeoff:
when the revocation list cannot be consulted the guard refuses service rather
than risk honoring a revoked token.
*/
func TestAuthenticate_BlacklistDownFailsClosed(t *testing.T) {
	f := newGuardFixture(t, &fakePrincipals{alive: map[string]bool{"user-1": true}})

	token, _, err := f.codec.IssueAccess("user-1", "alice@example.com")
	require.NoError(t, err)

	f.redis.Close()

	response := f.request(t, token)
	assert.Equal(t, http.StatusServiceUnavailable, response.Code)
}

func TestAuthenticate_DeletedUserRejected(t *testing.T) {
	f := newGuardFixture(t, &fakePrincipals{alive: map[string]bool{}})

	token, _, err := f.codec.IssueAccess("ghost", "ghost@example.com")
	require.NoError(t, err)

	response := f.request(t, token)
	assert.Equal(t, http.StatusUnauthorized, response.Code)
}

func TestAuthenticate_RefreshTokenRejectedOnAccessPath(t *testing.T) {
	f := newGuardFixture(t, &fakePrincipals{alive: map[string]bool{"user-1": true}})

	refresh, _, err := f.codec.IssueRefresh("user-1", "alice@example.com", "session-1")
	require.NoError(t, err)

	response := f.request(t, refresh)
	assert.Equal(t, http.StatusUnauthorized, response.Code)
}

func TestAuthenticate_GarbageTokenRejected(t *testing.T) {
	f := newGuardFixture(t, &fakePrincipals{alive: map[string]bool{"user-1": true}})

	response := f.request(t, "not.a.jwt")
	assert.Equal(t, http.StatusUnauthorized, response.Code)
}
