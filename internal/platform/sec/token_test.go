// Copyright (c) 2026 Tasknest. All rights reserved.
// Author: dev@tasknest.app

package sec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasknest/tasknest/internal/platform/sec"
)

func newTestCodec(accessTTL, refreshTTL time.Duration) *sec.TokenCodec {
	return sec.NewTokenCodec(
		"unit-access-secret",
		"unit-refresh-secret",
		accessTTL,
		refreshTTL,
		"tasknest.app",
	)
}

func TestTokenCodec_IssueAndVerifyAccess(t *testing.T) {
	codec := newTestCodec(15*time.Minute, time.Hour)

	token, jti, err := codec.IssueAccess("user-1", "alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotEmpty(t, jti)

	claims, err := codec.VerifyAccess(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, jti, claims.SessionID())
}

func TestTokenCodec_IssueAndVerifyRefresh(t *testing.T) {
	codec := newTestCodec(15*time.Minute, time.Hour)

	token, expiresAt, err := codec.IssueRefresh("user-1", "alice@example.com", "session-9")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := codec.VerifyRefresh(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "session-9", claims.SessionID())
}

/*
TestTokenCodec_SecretsNeverCross is the pairing guarantee: the two token
kinds are structurally identical JWTs, so the signing secret is the ONLY
thing telling them apart. An access token must fail refresh verification
and vice versa, in both cases with a signature error.
*/
func TestTokenCodec_SecretsNeverCross(t *testing.T) {
	codec := newTestCodec(15*time.Minute, time.Hour)

	accessToken, _, err := codec.IssueAccess("user-1", "alice@example.com")
	require.NoError(t, err)
	refreshToken, _, err := codec.IssueRefresh("user-1", "alice@example.com", "session-9")
	require.NoError(t, err)

	_, err = codec.VerifyRefresh(accessToken)
	assert.ErrorIs(t, err, sec.ErrTokenSignature)

	_, err = codec.VerifyAccess(refreshToken)
	assert.ErrorIs(t, err, sec.ErrTokenSignature)
}

func TestTokenCodec_Expired(t *testing.T) {
	codec := newTestCodec(-1*time.Minute, -1*time.Minute)

	accessToken, _, err := codec.IssueAccess("user-1", "alice@example.com")
	require.NoError(t, err)

	_, err = codec.VerifyAccess(accessToken)
	assert.ErrorIs(t, err, sec.ErrTokenExpired)
}

func TestTokenCodec_Malformed(t *testing.T) {
	codec := newTestCodec(15*time.Minute, time.Hour)

	for _, raw := range []string{"", "garbage", "a.b.c", "eyJhbGciOiJIUzI1NiJ9.e30"} {
		_, err := codec.VerifyAccess(raw)
		assert.ErrorIs(t, err, sec.ErrTokenMalformed, "input %q", raw)
	}
}

func TestTokenCodec_WrongIssuer(t *testing.T) {
	codec := newTestCodec(15*time.Minute, time.Hour)
	other := sec.NewTokenCodec(
		"unit-access-secret",
		"unit-refresh-secret",
		15*time.Minute,
		time.Hour,
		"evil.example.com",
	)

	token, _, err := other.IssueAccess("user-1", "alice@example.com")
	require.NoError(t, err)

	_, err = codec.VerifyAccess(token)
	assert.Error(t, err)
}

/*
TestTokenCodec_DecodeUnverified checks the logout path: claims must come
back even from an expired token, because the jti is needed to blacklist it.
No signature validation happens here, and callers must never treat the
result as authenticated.
*/
func TestTokenCodec_DecodeUnverified(t *testing.T) {
	expired := newTestCodec(-1*time.Minute, time.Hour)

	token, jti, err := expired.IssueAccess("user-1", "alice@example.com")
	require.NoError(t, err)

	claims, err := sec.DecodeUnverified(token)
	require.NoError(t, err)
	assert.Equal(t, jti, claims.SessionID())
	assert.Equal(t, "user-1", claims.UserID())
	require.NotNil(t, claims.ExpiresAt)
	assert.True(t, claims.ExpiresAt.Before(time.Now()))
}

func TestHashToken_PepperChangesDigest(t *testing.T) {
	a := sec.HashToken("same-token", "pepper-one")
	b := sec.HashToken("same-token", "pepper-two")
	c := sec.HashToken("same-token", "pepper-one")

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, c)
	assert.Len(t, a, 64) // hex-encoded SHA-256
}

func TestPasswordHasher_RoundTrip(t *testing.T) {
	hasher := sec.NewPasswordHasher(4)

	hash, err := hasher.Hash("s3cret-password")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-password", hash)

	assert.True(t, hasher.Verify("s3cret-password", hash))
	assert.False(t, hasher.Verify("wrong-password", hash))
}
