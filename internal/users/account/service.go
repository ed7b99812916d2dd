// Copyright (c) 2026 Tasknest. All rights reserved.
// Author: dev@tasknest.app

package account

import (
	"context"
	"log/slog"
	"time"

	"github.com/tasknest/tasknest/internal/platform/apperr"
	"github.com/tasknest/tasknest/internal/users/auth"
)

// # Service Layer

// Service orchestrates profile reads and mutations around the cache.
//
// # Consistency Contract
//
// Reads are served read-through: cache first, database on a miss, populate,
// return. Mutations persist first and then drop the cached blob BEFORE the
// operation is acknowledged — a failed invalidation fails the request, so a
// client that got a 2xx can never read its own stale profile afterwards.
type Service struct {
	accountRepository AccountRepository
	sessions          SessionRevoker
	cache             ProfileCache
	cacheTTL          time.Duration
	logger            *slog.Logger
}

// NewService constructs a new account [Service] with its dependencies.
func NewService(
	accountRepo AccountRepository,
	sessions SessionRevoker,
	cache ProfileCache,
	cacheTTL time.Duration,
	logger *slog.Logger,
) *Service {
	return &Service{
		accountRepository: accountRepo,
		sessions:          sessions,
		cache:             cache,
		cacheTTL:          cacheTTL,
		logger:            logger,
	}
}

// # Profile Management

/*
GetProfile retrieves a user's profile through the read-through cache.

Description: Cache hit returns immediately. On a miss the database row is
fetched and the cache populated; a failed populate is logged but does not
fail the read, since the authoritative answer is already in hand.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *auth.User: The hydrated user profile
  - error: apperr.NotFound or execution failures
*/
func (service *Service) GetProfile(context context.Context, userID string) (*auth.User, error) {

	cached, err := service.cache.Get(context, userID)
	if err == nil {
		return cached, nil
	}
	if !apperr.IsNotFound(err) {
		// Redis being down degrades reads to the database, it does not
		// take profile lookups offline.
		service.logger.WarnContext(context, "profile_cache_read_failed",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}

	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	if err := service.cache.Set(context, user, service.cacheTTL); err != nil {
		service.logger.WarnContext(context, "profile_cache_populate_failed",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}

	return user, nil
}

/*
Exists reports whether the user id resolves to a live account.

Description: Answers through the same read-through path as GetProfile, so
the request guard's per-request principal check stays off the database on
the hot path.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - bool: true if the account exists and is not deleted
  - error: Infrastructure failures (never NotFound)
*/
func (service *Service) Exists(context context.Context, userID string) (bool, error) {
	_, err := service.GetProfile(context, userID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// UpdateProfileInput defines the mutable subset of user profile fields.
type UpdateProfileInput struct {
	Name  *string
	Email *string
}

/*
UpdateProfile applies a partial set of changes to a user's account.

Description: Fetches the current row, overlays the provided fields, persists,
and drops the cached profile before acknowledging. Changing the email to one
another account holds yields Conflict from the unique index.

Parameters:
  - context: context.Context
  - userID: string
  - input: UpdateProfileInput

Returns:
  - *auth.User: The updated user profile
  - error: Conflict, invalidation, or storage failures
*/
func (service *Service) UpdateProfile(context context.Context, userID string, input UpdateProfileInput) (*auth.User, error) {

	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		user.Name = *input.Name
	}

	if input.Email != nil {
		user.Email = *input.Email
	}

	if err := service.accountRepository.Update(context, user); err != nil {
		return nil, err
	}

	// Invalidate-before-acknowledge: if the drop fails the client gets an
	// error, not a success that could later serve the old blob.
	if err := service.cache.Delete(context, userID); err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "user_profile_updated", slog.String("user_id", userID))

	return user, nil
}

/*
DeleteAccount performs an idempotent soft-deletion of a user account.

Description: Flags the account as deleted, terminates every refresh session
to force a global sign-out, and drops the cached profile so the request
guard stops recognizing outstanding access tokens on their next check.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Execution failures
*/
func (service *Service) DeleteAccount(context context.Context, userID string) error {

	if err := service.accountRepository.SoftDelete(context, userID); err != nil {
		return err
	}

	// Global revocation: no refresh token survives the account.
	if err := service.sessions.DeleteAllForUser(context, userID); err != nil {
		service.logger.ErrorContext(context, "account_session_revocation_failed",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}

	if err := service.cache.Delete(context, userID); err != nil {
		return err
	}

	service.logger.WarnContext(context, "user_account_deleted", slog.String("user_id", userID))

	return nil
}
