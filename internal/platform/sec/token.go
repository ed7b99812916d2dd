// Copyright (c) 2026 Tasknest. All rights reserved.
// Author: dev@tasknest.app

/*
Package sec provides cryptographic primitives and token management.

It isolates security-sensitive code (password hashing, JWT signing, refresh
token digesting) from the domain logic, and is injected into the application
layer via small interfaces.

Token model:

  - Access tokens: short-lived, HS256-signed with the access secret, carry
    sub, email and their own jti (used by the logout blacklist).
  - Refresh tokens: long-lived, HS256-signed with the refresh secret, carry
    sub, email and jti = the backing session id.
  - The two kinds share a wire format; which secret verifies them is the only
    boundary between them. Secrets must therefore never be shared or derived
    from one another.
*/
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Typed verification failures. Callers map all three to a uniform
// Unauthorized response; the split exists for logging and tests.
var (
	// ErrTokenExpired indicates the exp claim is in the past.
	ErrTokenExpired = errors.New("sec: token expired")

	// ErrTokenSignature indicates the signature does not verify under the
	// given secret. A refresh token presented to the access verifier (or
	// vice versa) fails with this error.
	ErrTokenSignature = errors.New("sec: token signature invalid")

	// ErrTokenMalformed indicates the token structure cannot be parsed.
	ErrTokenMalformed = errors.New("sec: token malformed")
)

// TokenClaims is the payload embedded inside every Tasknest JWT.
//
// Registered claims carry sub (user id), jti, iat and exp; Email is the only
// custom claim. Keeping the payload minimal keeps tokens small enough for
// mobile clients to attach on every request.
type TokenClaims struct {
	jwt.RegisteredClaims

	Email string `json:"email,omitempty"`
}

// UserID returns the subject claim.
func (c *TokenClaims) UserID() string { return c.Subject }

// SessionID returns the jti claim. For refresh tokens this is the backing
// session row id; for access tokens it is the blacklist key.
func (c *TokenClaims) SessionID() string { return c.ID }

// TokenCodec signs and verifies the paired access/refresh tokens.
//
// # Secret Isolation
//
// The codec holds two independent HMAC secrets. An access token must never
// verify under the refresh secret and vice versa — this is the system's sole
// defense separating "short-lived API access" from "long-lived rotation
// capability".
type TokenCodec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
}

// NewTokenCodec constructs a codec from the two signing secrets and lifetimes.
func NewTokenCodec(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, issuer string) *TokenCodec {
	return &TokenCodec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		issuer:        issuer,
	}
}

// AccessTokenTTL exposes the configured access token lifetime for handlers
// that report expires_in to clients.
func (codec *TokenCodec) AccessTokenTTL() time.Duration { return codec.accessTTL }

// IssueAccess signs a short-lived access token for the user.
//
// Returns the signed token together with its jti so the caller can hand the
// id to clients or tests without re-parsing.
func (codec *TokenCodec) IssueAccess(userID, email string) (string, string, error) {
	jti := uuid.NewString()
	now := time.Now()

	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    codec.issuer,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(codec.accessTTL)),
		},
		Email: email,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(codec.accessSecret)
	if err != nil {
		// Signing only fails on a broken secret or marshalling bug — a
		// programmer error, not a user-input condition.
		return "", "", fmt.Errorf("sec: failed to sign access token: %w", err)
	}

	return signed, jti, nil
}

// IssueRefresh signs a long-lived refresh token bound to a session row.
//
// The session id becomes the jti claim; the returned expiry mirrors the exp
// claim so the caller can persist the session row with the exact same
// deadline the token carries.
func (codec *TokenCodec) IssueRefresh(userID, email, sessionID string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(codec.refreshTTL)

	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    codec.issuer,
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: email,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(codec.refreshSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sec: failed to sign refresh token: %w", err)
	}

	return signed, expiresAt, nil
}

// VerifyAccess checks signature and expiry of an access token.
func (codec *TokenCodec) VerifyAccess(raw string) (*TokenClaims, error) {
	return codec.verify(raw, codec.accessSecret)
}

// VerifyRefresh checks signature and expiry of a refresh token.
func (codec *TokenCodec) VerifyRefresh(raw string) (*TokenClaims, error) {
	return codec.verify(raw, codec.refreshSecret)
}

// verify parses the token under the given secret and maps library failures
// onto the package's typed errors. It has no side effects.
func (codec *TokenCodec) verify(raw string, secret []byte) (*TokenClaims, error) {
	claims := &TokenClaims{}

	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithIssuer(codec.issuer))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenSignature
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		default:
			// Issuer mismatch, unexpected algorithm and every other parse
			// failure are treated as malformed input.
			return nil, ErrTokenMalformed
		}
	}

	if !token.Valid {
		return nil, ErrTokenSignature
	}

	return claims, nil
}

// DecodeUnverified extracts the claims WITHOUT checking the signature or
// expiry.
//
// It exists for exactly one call site: logout's best-effort blacklisting,
// which needs the jti and remaining lifetime of whatever access token the
// client handed back. Never use it to authenticate anything.
func DecodeUnverified(raw string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}
