// Copyright (c) 2026 Tasknest. All rights reserved.
// Author: dev@tasknest.app

package auth

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {

	/*
		Create persists a brand-new user account to the storage.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: Conflict on duplicate email, or persistence failures
	*/
	Create(context context.Context, user *User) error

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByEmail returns the account with the given email.

		The lookup is case-sensitive: "User@x.com" and "user@x.com" are
		distinct identities backed by a case-sensitive unique index.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)
}

// # Session Data Access

// SessionRepository defines the data access contract for refresh-token sessions.
//
// Rows are keyed by the refresh token's jti, so every lookup and delete is a
// primary-key operation.
type SessionRepository interface {

	/*
		Create persists a new session for an issued refresh token.

		Parameters:
		  - context: context.Context
		  - session: *Session

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, session *Session) error

	/*
		FindByID returns the session with the given id (refresh jti).

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *Session: Hydrated entity
		  - error: apperr.NotFound when absent, or retrieval failures
	*/
	FindByID(context context.Context, id string) (*Session, error)

	/*
		DeleteByID removes the session with the given id.

		The returned flag reports whether a row was actually deleted. Under
		concurrent refresh attempts with the same token, exactly one caller
		observes true; everyone else lost the race and must be rejected.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - bool: true if a row was deleted
		  - error: Deletion failures
	*/
	DeleteByID(context context.Context, id string) (bool, error)

	/*
		DeleteByIDForUser removes the session only if it belongs to userID.

		Used by logout, where a zero count is a success (already logged out).

		Parameters:
		  - context: context.Context
		  - id: string
		  - userID: string

		Returns:
		  - int64: Number of rows deleted (0 or 1)
		  - error: Deletion failures
	*/
	DeleteByIDForUser(context context.Context, id, userID string) (int64, error)

	/*
		DeleteAllForUser removes every session belonging to userID.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Deletion failures
	*/
	DeleteAllForUser(context context.Context, userID string) error

	/*
		DeleteExpired physically removes sessions whose ExpiresAt is in the past.

		Parameters:
		  - context: context.Context

		Returns:
		  - error: Cleanup failures
	*/
	DeleteExpired(context context.Context) error
}

// # Volatile Data Access

// BlacklistStore records revoked access-token ids until their natural expiry.
type BlacklistStore interface {

	/*
		Add marks an access-token id as revoked for the given duration.

		Parameters:
		  - context: context.Context
		  - tokenID: string (jti claim)
		  - ttl: time.Duration (remaining token lifetime)

		Returns:
		  - error: Persistence failures
	*/
	Add(context context.Context, tokenID string, ttl time.Duration) error

	/*
		IsRevoked reports whether the access-token id is on the blacklist.

		Parameters:
		  - context: context.Context
		  - tokenID: string

		Returns:
		  - bool: true if revoked
		  - error: Retrieval failures
	*/
	IsRevoked(context context.Context, tokenID string) (bool, error)
}
