package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// oauthStatePrefix is the Redis key prefix for pending sign-in states.
	oauthStatePrefix = "oauth:state:"
	// revokedSessionPrefix is the Redis key prefix for signed-out session ids.
	revokedSessionPrefix = "session:revoked:"
)

// SaveOAuthState stores the callback URL for a pending sign-in.
func (c *Cache) SaveOAuthState(ctx context.Context, state, callbackURL string, ttl time.Duration) error {
	if err := c.client.Set(ctx, oauthStatePrefix+state, callbackURL, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save oauth state: %w", err)
	}
	return nil
}

// ConsumeOAuthState atomically reads and deletes a pending sign-in state.
// found is false when the state is unknown or expired.
func (c *Cache) ConsumeOAuthState(ctx context.Context, state string) (string, bool, error) {
	callbackURL, err := c.client.GetDel(ctx, oauthStatePrefix+state).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to consume oauth state: %w", err)
	}
	return callbackURL, true, nil
}

// RevokeSession marks a session id as signed out for ttl.
func (c *Cache) RevokeSession(ctx context.Context, sessionID string, ttl time.Duration) error {
	if err := c.client.Set(ctx, revokedSessionPrefix+sessionID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// IsSessionRevoked reports whether a session id was signed out.
func (c *Cache) IsSessionRevoked(ctx context.Context, sessionID string) (bool, error) {
	n, err := c.client.Exists(ctx, revokedSessionPrefix+sessionID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check session revocation: %w", err)
	}
	return n > 0, nil
}
