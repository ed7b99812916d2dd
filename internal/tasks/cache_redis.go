// Copyright (c) 2026 Tasknest. All rights reserved.
// Author: dev@tasknest.app

package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tasknest/tasknest/internal/platform/apperr"
	"github.com/tasknest/tasknest/internal/platform/constants"
	"github.com/tasknest/tasknest/pkg/pagination"
)

// # Redis List Cache

// RedisListCache implements ListCache with one JSON blob per rendered page.
//
// Keys follow the pattern tasks:<userID>:<page>:<limit>:<status>:<due>, so
// every page a user could be served lives under a common per-user prefix and
// can be dropped wholesale when any of their tasks change.
type RedisListCache struct {
	client *redis.Client
}

// NewListCache creates a list cache backed by the given client.
func NewListCache(client *redis.Client) *RedisListCache {
	return &RedisListCache{client: client}
}

// cachedPage is the stored shape of one list page.
type cachedPage struct {
	Tasks []Task          `json:"tasks"`
	Meta  pagination.Meta `json:"meta"`
}

// ListCacheKey builds the cache key for one filtered page.
func ListCacheKey(userID string, filter ListFilter, params pagination.Params) string {
	due := ""
	if filter.DueBefore != nil {
		due = filter.DueBefore.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("%s%s:%d:%d:%s:%s",
		constants.RedisPrefixTaskList, userID, params.Page, params.Limit, filter.Status, due)
}

// Get returns the cached page for the key, or a not-found error on a miss.
// A blob that no longer parses is dropped and treated as a miss.
func (c *RedisListCache) Get(ctx context.Context, key string) ([]Task, *pagination.Meta, error) {
	blob, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil, apperr.NotFound("Task list page")
		}
		return nil, nil, apperr.Unavailable(err)
	}

	var page cachedPage
	if err := json.Unmarshal(blob, &page); err != nil {
		c.client.Del(ctx, key)
		return nil, nil, apperr.NotFound("Task list page")
	}
	return page.Tasks, &page.Meta, nil
}

// Set stores one rendered page under the key with the given TTL.
func (c *RedisListCache) Set(ctx context.Context, key string, tasks []Task, meta pagination.Meta, ttl time.Duration) error {
	blob, err := json.Marshal(cachedPage{Tasks: tasks, Meta: meta})
	if err != nil {
		return apperr.Internal(err)
	}
	if err := c.client.Set(ctx, key, blob, ttl).Err(); err != nil {
		return apperr.Unavailable(err)
	}
	return nil
}

// InvalidateUser removes every cached page belonging to one owner. Keys are
// discovered with SCAN so large keyspaces never block the server.
func (c *RedisListCache) InvalidateUser(ctx context.Context, userID string) error {
	pattern := constants.RedisPrefixTaskList + userID + ":*"

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return apperr.Unavailable(err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return apperr.Unavailable(err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
