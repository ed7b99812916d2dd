// Copyright (c) 2026 Tasknest. All rights reserved.
// Author: dev@tasknest.app

// PostgreSQL implementations of the auth repositories.
//
// # Error Mapping
//
// Storage-specific errors (pgx.ErrNoRows, unique violations) are mapped to
// domain-friendly [apperr.AppError] values via the dberr package so callers
// never see pgx internals.
package auth

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tasknest/tasknest/internal/platform/dberr"
)

// # User Repository

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

/*
Create persists a new user record into the users.account table.

Description: Inserts the account row, initializing timestamps when unset.
A duplicate email surfaces as a Conflict via the unique index.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: apperr.Conflict on duplicate email, or connectivity errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users.account (
			id, name, email, passwordhash, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		return dberr.Wrap(err, "User")
	}

	return nil
}

/*
FindByID retrieves a user record by their unique ID.

Description: Primary key resolution for user accounts, filtering out
soft-deleted rows.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	const query = `
		SELECT id, name, email, passwordhash, createdat, updatedat
		FROM users.account
		WHERE id = $1 AND deletedat IS NULL`

	user := &User{}
	err := repository.pool.QueryRow(context, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		return nil, dberr.Wrap(err, "User")
	}

	return user, nil
}

/*
FindByEmail retrieves a user record by their exact email address.

Description: Case-sensitive lookup backed by a unique index; no lower()
folding is applied, so byte-different addresses are distinct accounts.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	const query = `
		SELECT id, name, email, passwordhash, createdat, updatedat
		FROM users.account
		WHERE email = $1 AND deletedat IS NULL`

	user := &User{}
	err := repository.pool.QueryRow(context, query, email).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		return nil, dberr.Wrap(err, "User")
	}

	return user, nil
}

// # Session Repository

// PostgresSessionRepository implements the SessionRepository interface.
type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new PostgreSQL implementation of SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

/*
Create persists a new session record into the users.session table.

Description: Records an issued refresh token; the row's primary key is the
token's jti claim.

Parameters:
  - context: context.Context
  - session: *Session

Returns:
  - error: Storage failures
*/
func (repository *PostgresSessionRepository) Create(context context.Context, session *Session) error {
	const query = `
		INSERT INTO users.session (
			id, userid, tokenhash, expiresat, createdat
		) VALUES ($1, $2, $3, $4, $5)`

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	_, err := repository.pool.Exec(context, query,
		session.ID,
		session.UserID,
		session.TokenHash,
		session.ExpiresAt,
		session.CreatedAt,
	)

	if err != nil {
		return dberr.Wrap(err, "Session")
	}

	return nil
}

/*
FindByID retrieves a session by its primary key (the refresh jti).

Description: Expired rows are still returned; the service layer decides how
to treat them so it can distinguish "expired" from "never existed".

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Session: Hydrated session row
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresSessionRepository) FindByID(context context.Context, id string) (*Session, error) {
	const query = `
		SELECT id, userid, tokenhash, expiresat, createdat
		FROM users.session
		WHERE id = $1`

	session := &Session{}
	err := repository.pool.QueryRow(context, query, id).Scan(
		&session.ID,
		&session.UserID,
		&session.TokenHash,
		&session.ExpiresAt,
		&session.CreatedAt,
	)

	if err != nil {
		return nil, dberr.Wrap(err, "Session")
	}

	return session, nil
}

/*
DeleteByID removes a session row and reports whether it existed.

Description: This is the serialization point for refresh-token rotation.
When several requests race with the same token, the database guarantees the
DELETE affects a row for exactly one of them; the rest see false.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - bool: true if a row was deleted
  - error: Deletion failures
*/
func (repository *PostgresSessionRepository) DeleteByID(context context.Context, id string) (bool, error) {
	const query = "DELETE FROM users.session WHERE id = $1"

	tag, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return false, dberr.Wrap(err, "Session")
	}

	return tag.RowsAffected() > 0, nil
}

/*
DeleteByIDForUser removes a session only when it belongs to the given user.

Description: Compound-key delete used by logout. Zero affected rows is not
an error; logging out twice is a no-op.

Parameters:
  - context: context.Context
  - id: string
  - userID: string

Returns:
  - int64: Rows deleted (0 or 1)
  - error: Deletion failures
*/
func (repository *PostgresSessionRepository) DeleteByIDForUser(context context.Context, id, userID string) (int64, error) {
	const query = "DELETE FROM users.session WHERE id = $1 AND userid = $2"

	tag, err := repository.pool.Exec(context, query, id, userID)
	if err != nil {
		return 0, dberr.Wrap(err, "Session")
	}

	return tag.RowsAffected(), nil
}

/*
DeleteAllForUser removes every session belonging to the userID.

Description: Session nuking used when an account is deleted or credentials
are rotated.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Batch deletion failures
*/
func (repository *PostgresSessionRepository) DeleteAllForUser(context context.Context, userID string) error {
	const query = "DELETE FROM users.session WHERE userid = $1"

	_, err := repository.pool.Exec(context, query, userID)
	if err != nil {
		return dberr.Wrap(err, "Session")
	}

	return nil
}

/*
DeleteExpired permanently removes all sessions that have passed their expiration.

Description: Cleanup task to reclaim storage from stale sessions.

Parameters:
  - context: context.Context

Returns:
  - error: Cleanup failures
*/
func (repository *PostgresSessionRepository) DeleteExpired(context context.Context) error {
	const query = "DELETE FROM users.session WHERE expiresat <= NOW()"

	_, err := repository.pool.Exec(context, query)
	if err != nil {
		return dberr.Wrap(err, "Session")
	}

	return nil
}
