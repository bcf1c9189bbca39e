package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/pictora/pictora/internal/model"
)

// Cache key prefixes and TTLs.
const (
	postKeyPrefix     = "post:"
	negCacheKeySuffix = ":neg"

	// DefaultPostTTL is the TTL for cached post documents.
	DefaultPostTTL = 10 * time.Minute

	// NegativeCacheTTL is the TTL for negative cache entries.
	NegativeCacheTTL = time.Minute
)

// GetPost retrieves a post from cache by ID.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetPost(ctx context.Context, id string) (*model.Post, error) {
	data, err := c.client.Get(ctx, postKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var post model.Post
	if err := json.Unmarshal(data, &post); err != nil {
		c.client.Del(ctx, postKeyPrefix+id)
		return nil, ErrCacheMiss
	}

	return &post, nil
}

// SetPost stores a post in cache and clears any negative entry for it.
func (c *Cache) SetPost(ctx context.Context, post *model.Post) error {
	data, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("marshal post: %w", err)
	}

	key := postKeyPrefix + post.ID

	pipe := c.client.Pipeline()
	pipe.Set(ctx, key, data, DefaultPostTTL)
	pipe.Del(ctx, key+negCacheKeySuffix)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache post: %w", err)
	}

	return nil
}

// DeletePost removes a post and its negative entry from cache.
func (c *Cache) DeletePost(ctx context.Context, id string) error {
	key := postKeyPrefix + id

	if err := c.client.Del(ctx, key, key+negCacheKeySuffix).Err(); err != nil {
		return fmt.Errorf("failed to delete post from cache: %w", err)
	}

	return nil
}

// IsPostNegativelyCached checks if a post ID is known to be missing.
func (c *Cache) IsPostNegativelyCached(ctx context.Context, id string) (bool, error) {
	exists, err := c.client.Exists(ctx, postKeyPrefix+id+negCacheKeySuffix).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check negative cache: %w", err)
	}

	return exists > 0, nil
}

// SetPostNegativeCache marks a post ID as not found.
func (c *Cache) SetPostNegativeCache(ctx context.Context, id string) error {
	err := c.client.SetEx(ctx, postKeyPrefix+id+negCacheKeySuffix, "", NegativeCacheTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to set negative cache: %w", err)
	}

	return nil
}
