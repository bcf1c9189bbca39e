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

const (
	// sessionKeyPrefix is the Redis key prefix for sessions, keyed by token hash.
	sessionKeyPrefix = "session:"
	// accountSessionsPrefix indexes the token hashes issued to an account.
	accountSessionsPrefix = "account:sessions:"
)

// sessionKey returns the Redis key for a session token hash.
func sessionKey(tokenHash string) string {
	return sessionKeyPrefix + tokenHash
}

// CreateSession stores a session under its token hash until it expires.
func (c *Cache) CreateSession(ctx context.Context, tokenHash string, session *model.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired at %s", session.ExpiresAt.Format(time.RFC3339))
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	indexKey := accountSessionsPrefix + session.AccountID

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, sessionKey(tokenHash), data, ttl)
	pipe.SAdd(ctx, indexKey, tokenHash)
	pipe.Expire(ctx, indexKey, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// GetSession loads a session by token hash.
// Returns ErrCacheMiss if the session does not exist or has expired.
func (c *Cache) GetSession(ctx context.Context, tokenHash string) (*model.Session, error) {
	data, err := c.client.Get(ctx, sessionKey(tokenHash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get session failed: %w", err)
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		// Corrupted entry; drop it and treat as missing.
		c.client.Del(ctx, sessionKey(tokenHash))
		return nil, ErrCacheMiss
	}

	return &session, nil
}

// DeleteSession removes a session. Deleting an unknown session is not an error.
func (c *Cache) DeleteSession(ctx context.Context, tokenHash, accountID string) error {
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, sessionKey(tokenHash))
	if accountID != "" {
		pipe.SRem(ctx, accountSessionsPrefix+accountID, tokenHash)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteAccountSessions removes every session issued to an account.
func (c *Cache) DeleteAccountSessions(ctx context.Context, accountID string) error {
	indexKey := accountSessionsPrefix + accountID

	hashes, err := c.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return fmt.Errorf("failed to list account sessions: %w", err)
	}

	keys := make([]string, 0, len(hashes)+1)
	for _, h := range hashes {
		keys = append(keys, sessionKey(h))
	}
	keys = append(keys, indexKey)

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete account sessions: %w", err)
	}
	return nil
}
