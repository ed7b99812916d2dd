// Copyright (c) 2026 Tasknest. All rights reserved.
// Author: dev@tasknest.app

/*
Package account handles user profile management on top of the auth identities.

It provides the read-through cached profile lookups used by both the HTTP
profile endpoints and the request guard's principal check, plus profile
mutation and account deletion.

# Architecture

  - Entities: This package reuses [auth.User]; it defines no identity of its own.
  - Caching: Profile reads go through Redis ("user:<id>" JSON blobs); every
    mutation drops the cached blob before the write is acknowledged.
  - Security: Account deletion revokes all refresh sessions.
*/
package account

import (
	"context"
	"time"

	"github.com/tasknest/tasknest/internal/users/auth"
)

// # Repository Contracts

// AccountRepository defines the persistence contract for user accounts.
type AccountRepository interface {
	/*
		FindByID retrieves a user record by their unique ID.

		Parameters:
		  - context: context.Context
		  - id: string (UUID)

		Returns:
		  - *auth.User: Loaded account entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id string) (*auth.User, error)

	/*
		Update modifies the mutable profile fields of an existing user.

		Parameters:
		  - context: context.Context
		  - user: *auth.User (Hydrated entity with changes)

		Returns:
		  - error: apperr.Conflict on a taken email, or storage failures
	*/
	Update(context context.Context, user *auth.User) error

	/*
		SoftDelete flags an account as logically deleted.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: Execution failures
	*/
	SoftDelete(context context.Context, id string) error
}

// SessionRevoker terminates refresh sessions when an account goes away.
// Implemented by the auth session repository.
type SessionRevoker interface {
	DeleteAllForUser(context context.Context, userID string) error
}

// # Cache Contract

// ProfileCache holds serialized user profiles keyed by user id.
//
// Values are opaque JSON blobs: the cache never interprets them, it only
// stores and returns bytes. Get reports a miss as apperr.NotFound.
type ProfileCache interface {
	/*
		Get returns the cached profile for the user id.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - *auth.User: Decoded cached profile
		  - error: apperr.NotFound on a miss, or connectivity failures
	*/
	Get(context context.Context, userID string) (*auth.User, error)

	/*
		Set stores the profile under "user:<id>" with the given TTL.

		Parameters:
		  - context: context.Context
		  - user: *auth.User
		  - ttl: time.Duration

		Returns:
		  - error: Serialization or connectivity failures
	*/
	Set(context context.Context, user *auth.User, ttl time.Duration) error

	/*
		Delete drops the cached profile for the user id.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Connectivity failures
	*/
	Delete(context context.Context, userID string) error
}
