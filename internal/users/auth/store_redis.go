// Copyright (c) 2026 Tasknest. All rights reserved.
// Author: dev@tasknest.app

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tasknest/tasknest/internal/platform/apperr"
	"github.com/tasknest/tasknest/internal/platform/constants"
)

// # Blacklist Store

// RedisBlacklistStore implements BlacklistStore on Redis.
//
// Entries live under "blacklist:access:<jti>" and expire on their own once
// the revoked token would have expired anyway, so the set never needs manual
// cleanup.
type RedisBlacklistStore struct {
	client *redis.Client
}

// NewBlacklistStore creates a new Redis-backed BlacklistStore.
func NewBlacklistStore(client *redis.Client) *RedisBlacklistStore {
	return &RedisBlacklistStore{client: client}
}

/*
Add marks an access-token id as revoked until its natural expiry.

Description: A non-positive ttl means the token is already expired, so there
is nothing to revoke and the call is a no-op.

Parameters:
  - context: context.Context
  - tokenID: string (jti claim)
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (store *RedisBlacklistStore) Add(context context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	key := constants.RedisPrefixBlacklist + tokenID

	if err := store.client.Set(context, key, "1", ttl).Err(); err != nil {
		return apperr.Unavailable(err)
	}

	return nil
}

/*
IsRevoked reports whether the access-token id is on the blacklist.

Description: Consulted by the auth guard on every authenticated request.
Errors are returned so the caller can fail closed rather than admit a
possibly-revoked token.

Parameters:
  - context: context.Context
  - tokenID: string

Returns:
  - bool: true if the token id is present
  - error: Connectivity errors
*/
func (store *RedisBlacklistStore) IsRevoked(context context.Context, tokenID string) (bool, error) {
	key := constants.RedisPrefixBlacklist + tokenID

	_, err := store.client.Get(context, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, apperr.Unavailable(err)
	}

	return true, nil
}
