// Copyright (c) 2026 Tasknest. All rights reserved.
// Author: dev@tasknest.app

package account

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tasknest/tasknest/internal/platform/apperr"
	"github.com/tasknest/tasknest/internal/platform/constants"
	"github.com/tasknest/tasknest/internal/users/auth"
)

// # Profile Cache

// RedisProfileCache implements ProfileCache on Redis.
//
// Profiles are stored as JSON blobs under "user:<id>". The blob is the
// transport-serialized profile, so the password hash (json:"-") never
// reaches Redis.
type RedisProfileCache struct {
	client *redis.Client
}

// NewProfileCache creates a new Redis-backed ProfileCache.
func NewProfileCache(client *redis.Client) *RedisProfileCache {
	return &RedisProfileCache{client: client}
}

/*
Get returns the cached profile for the user id.

Description: A missing key and an unparsable blob both report a miss; a
broken blob is additionally deleted so the next read repopulates it.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *auth.User: Decoded profile
  - error: apperr.NotFound on miss, or connectivity errors
*/
func (cache *RedisProfileCache) Get(context context.Context, userID string) (*auth.User, error) {
	key := constants.RedisPrefixProfile + userID

	payload, err := cache.client.Get(context, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.NotFound("User")
		}
		return nil, apperr.Unavailable(err)
	}

	user := &auth.User{}
	if err := json.Unmarshal(payload, user); err != nil {
		_ = cache.client.Del(context, key).Err()
		return nil, apperr.NotFound("User")
	}

	return user, nil
}

/*
Set stores the profile under "user:<id>" with the given TTL.

Parameters:
  - context: context.Context
  - user: *auth.User
  - ttl: time.Duration

Returns:
  - error: Serialization or connectivity errors
*/
func (cache *RedisProfileCache) Set(context context.Context, user *auth.User, ttl time.Duration) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return apperr.Internal(err)
	}

	key := constants.RedisPrefixProfile + user.ID
	if err := cache.client.Set(context, key, payload, ttl).Err(); err != nil {
		return apperr.Unavailable(err)
	}

	return nil
}

/*
Delete drops the cached profile for the user id.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Connectivity errors
*/
func (cache *RedisProfileCache) Delete(context context.Context, userID string) error {
	key := constants.RedisPrefixProfile + userID

	if err := cache.client.Del(context, key).Err(); err != nil {
		return apperr.Unavailable(err)
	}

	return nil
}
