// Copyright (c) 2026 Tasknest. All rights reserved.
// Author: dev@tasknest.app

/*
Package auth implements the core identity and access management system.

It handles user registration, secure password hashing, and the paired-token
session lifecycle: every login issues a short-lived access JWT together with a
long-lived refresh JWT, and every refresh rotates the pair.

Architecture:

  - Service: Orchestrates business logic (Register, Login, Refresh, Logout).
  - Repository: Abstracted interfaces for Postgres (users, sessions) and
    Redis (access-token blacklist).
  - Security: bcrypt password hashing and dual-secret HS256 JWTs.

The two JWT kinds are structurally identical; only the signing secret tells
them apart. Verification paths therefore never share a secret.
*/
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tasknest/tasknest/internal/platform/apperr"
	"github.com/tasknest/tasknest/internal/platform/sec"
	"github.com/tasknest/tasknest/pkg/uuidv7"
)

// # Definitions & Constructors

// Service implements the authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, rotation,
// or login logic must be reviewed by the security team.
type Service struct {
	userRepository    UserRepository
	sessionRepository SessionRepository
	blacklist         BlacklistStore
	codec             *sec.TokenCodec
	hasher            *sec.PasswordHasher
	tokenPepper       string
	logger            *slog.Logger
}

// NewService constructs a new auth [Service] with its dependencies.
func NewService(
	userRepo UserRepository,
	sessionRepo SessionRepository,
	blacklist BlacklistStore,
	codec *sec.TokenCodec,
	hasher *sec.PasswordHasher,
	tokenPepper string,
	logger *slog.Logger,
) *Service {
	return &Service{
		userRepository:    userRepo,
		sessionRepository: sessionRepo,
		blacklist:         blacklist,
		codec:             codec,
		hasher:            hasher,
		tokenPepper:       tokenPepper,
		logger:            logger,
	}
}

// TokenPair bundles a successfully established session for transport.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
	User             *User
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

/*
Register validates, hashes, and persists a brand new user account, then
establishes its first session.

Description: The email must be byte-for-byte unused (case-sensitive unique
index). On success the new user is logged in immediately and receives a
token pair.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *TokenPair: Created user plus initial tokens
  - error: Conflict (if email exists) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*TokenPair, error) {

	// Verify email uniqueness up front for a clean Conflict message; the
	// unique index still backs this up against races.
	if _, err := service.userRepository.FindByEmail(context, input.Email); err == nil {
		return nil, apperr.Conflict("Email is already registered")
	}

	// Never store plain-text passwords.
	hashedPassword, err := service.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// Time-sortable ID to prevent PG index fragmentation.
	user := &User{
		ID:           uuidv7.New(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hashedPassword,
	}

	if err := service.userRepository.Create(context, user); err != nil {
		return nil, err
	}

	return service.issuePair(context, user)
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email    string
	Password string
}

/*
Login validates user credentials and issues a fresh token pair.

Description: Unknown email and wrong password produce the exact same error
kind and message, so responses cannot be used to enumerate accounts.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *TokenPair: Transport-ready session credentials
  - error: Unauthorized or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*TokenPair, error) {

	user, err := service.userRepository.FindByEmail(context, input.Email)

	// Same generic message as the password branch below; the two failure
	// modes must stay indistinguishable to the client.
	if err != nil {
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	// bcrypt comparison is constant-time against timing attacks.
	if !service.hasher.Verify(input.Password, user.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	return service.issuePair(context, user)
}

/*
issuePair mints an access/refresh token pair and persists the session.

Description: The refresh token's jti doubles as the session primary key.
The session row is committed before the tokens are released to the caller,
so a token the client holds always has a matching row at issuance time.

Parameters:
  - context: context.Context
  - user: *User

Returns:
  - *TokenPair: Freshly minted credentials
  - error: Signing or persistence failures
*/
func (service *Service) issuePair(context context.Context, user *User) (*TokenPair, error) {

	// Short-lived access token with its own random jti.
	accessToken, _, err := service.codec.IssueAccess(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("auth_service_access_token_failed: %w", err)
	}

	// Long-lived refresh token; its jti is the new session id.
	sessionID := uuidv7.New()
	refreshToken, expiresAt, err := service.codec.IssueRefresh(user.ID, user.Email, sessionID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	// Persist before returning: the pair does not exist for the client
	// until its session row does.
	session := &Session{
		ID:        sessionID,
		UserID:    user.ID,
		TokenHash: sec.HashToken(refreshToken, service.tokenPepper),
		ExpiresAt: expiresAt,
	}

	if err := service.sessionRepository.Create(context, session); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: expiresAt,
		User:             user,
	}, nil
}

// # Session Rotation

/*
Refresh implements single-use refresh-token rotation.

Description: Verifies the presented refresh token cryptographically, resolves
its session row by jti, cross-checks ownership and the stored token hash,
then deletes the row. The delete's affected-row count serializes concurrent
attempts: only the caller whose DELETE removed the row may receive new
tokens, so a rotated (already consumed) token can never be replayed.

Every rejection is the same generic Unauthorized; the client learns nothing
about which check failed.

Parameters:
  - context: context.Context
  - rawRefresh: string (the refresh JWT as presented)

Returns:
  - *TokenPair: New rotated credentials
  - error: Unauthorized or storage failures
*/
func (service *Service) Refresh(context context.Context, rawRefresh string) (*TokenPair, error) {

	// 1. Signature and expiry under the refresh secret. An access token
	//    presented here fails signature verification.
	claims, err := service.codec.VerifyRefresh(rawRefresh)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	// 2. Resolve the session row by jti. A missing row means the token was
	//    already consumed, logged out, or fabricated.
	session, err := service.sessionRepository.FindByID(context, claims.SessionID())
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	// 3. The session must belong to the token's subject.
	if session.UserID != claims.UserID() {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	// 4. The presented token must be the one the session was created with.
	if sec.HashToken(rawRefresh, service.tokenPepper) != session.TokenHash {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	// 5. Row-level expiry, independent of the JWT exp claim.
	if time.Now().After(session.ExpiresAt) {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	// 6. Consume the session. Exactly one concurrent caller observes
	//    deleted=true; all others lost the race and are rejected.
	deleted, err := service.sessionRepository.DeleteByID(context, session.ID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	// 7. The subject must still exist before new credentials are minted.
	user, err := service.userRepository.FindByID(context, session.UserID)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	return service.issuePair(context, user)
}

// # Logout

/*
Logout tears down a session and revokes its access token.

Description: Deletes the session row scoped to (sessionID, userID); a row
that is already gone still counts as success, so logout is idempotent. The
current access token, when provided, is decoded WITHOUT signature
verification just to read its jti and exp, and blacklisted for its remaining
lifetime. Blacklisting is best-effort: failures are logged and swallowed so
logout never fails client-side.

Parameters:
  - context: context.Context
  - userID: string (authenticated caller)
  - sessionID: string (refresh jti being terminated)
  - rawAccess: string (current access JWT, may be empty)
*/
func (service *Service) Logout(context context.Context, userID, sessionID, rawAccess string) {

	deleted, err := service.sessionRepository.DeleteByIDForUser(context, sessionID, userID)
	if err != nil {
		service.logger.WarnContext(context, "logout_session_delete_failed",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	} else if deleted == 0 {
		service.logger.DebugContext(context, "logout_session_already_gone",
			slog.String("user_id", userID),
		)
	}

	if rawAccess == "" {
		return
	}

	// Unverified decode is deliberate: even a token we would reject as
	// expired or tampered should land on the blacklist if it names a jti.
	claims, err := sec.DecodeUnverified(rawAccess)
	if err != nil || claims.SessionID() == "" || claims.ExpiresAt == nil {
		return
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if err := service.blacklist.Add(context, claims.SessionID(), ttl); err != nil {
		service.logger.WarnContext(context, "logout_blacklist_failed",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}
}
