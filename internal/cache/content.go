// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// content.go provides a Valkey-backed cache for public content responses.
// A published item's JSON body depends only on its slug and the viewer's
// tier (the paywall truncates blocks per tier), so responses are cached
// per slug and tier and served without touching Postgres.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// contentKeyPrefix is the Valkey key prefix for cached responses.
	contentKeyPrefix = "content:"

	// DefaultContentTTL is how long a cached response stays valid when
	// nothing invalidates it first.
	DefaultContentTTL = 5 * time.Minute
)

// ContentCache manages public content response caching in Valkey.
type ContentCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewContentCache creates a content cache backed by the given Valkey client.
func NewContentCache(client *redis.Client, ttl time.Duration) *ContentCache {
	if ttl == 0 {
		ttl = DefaultContentTTL
	}
	return &ContentCache{client: client, ttl: ttl}
}

// Key returns the cache key for a slug as seen by a viewer tier.
// Slugs never contain ":" so the two parts cannot collide.
func Key(slug, tier string) string {
	return slug + ":" + tier
}

// Get retrieves a cached response body. Returns false on miss.
func (cc *ContentCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := cc.client.Get(ctx, contentKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("content cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("content cache hit", "key", key)
	return val, true
}

// Set stores a response body for a key with the configured TTL.
func (cc *ContentCache) Set(ctx context.Context, key string, body []byte) {
	if err := cc.client.Set(ctx, contentKeyPrefix+key, body, cc.ttl).Err(); err != nil {
		slog.Warn("content cache set error", "key", key, "error", err)
	}
}

// InvalidateSlug removes every tier variant cached for a slug.
// Called after any change that affects what the public sees: publish,
// unpublish, archive, metadata or block updates, and deletes.
func (cc *ContentCache) InvalidateSlug(ctx context.Context, slug string) {
	cc.deleteByPattern(ctx, contentKeyPrefix+slug+":*")
	slog.Debug("content cache invalidated", "slug", slug)
}

// InvalidateAll removes all cached responses by scanning for the prefix.
func (cc *ContentCache) InvalidateAll(ctx context.Context) {
	deleted := cc.deleteByPattern(ctx, contentKeyPrefix+"*")
	if deleted > 0 {
		slog.Info("content cache fully cleared", "deleted", deleted)
	}
}

func (cc *ContentCache) deleteByPattern(ctx context.Context, pattern string) int {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := cc.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			slog.Warn("content cache scan error", "error", err)
			return deleted
		}
		if len(keys) > 0 {
			if err := cc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("content cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	return deleted
}
