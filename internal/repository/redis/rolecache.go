package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/crmforge/crmforge/internal/domain"
	"github.com/google/uuid"
)

const roleCachePrefix = "role:"

// RoleCache caches workspace membership roles. Entries are
// invalidated on every member mutation, so a stale grant never
// outlives the TTL.
type RoleCache struct {
	client *Client
	ttl    time.Duration
}

// NewRoleCache creates a new role cache
func NewRoleCache(client *Client, ttl time.Duration) *RoleCache {
	return &RoleCache{client: client, ttl: ttl}
}

func roleKey(workspaceID, userID uuid.UUID) string {
	return fmt.Sprintf("%s%s:%s", roleCachePrefix, workspaceID, userID)
}

// Get retrieves a cached role. The second return is false on a miss.
func (c *RoleCache) Get(ctx context.Context, workspaceID, userID uuid.UUID) (domain.Role, bool) {
	val, err := c.client.rdb.Get(ctx, roleKey(workspaceID, userID)).Result()
	if err != nil {
		return "", false // Cache miss
	}

	role := domain.Role(val)
	if !role.Valid() {
		return "", false
	}

	return role, true
}

// Set caches a member's role
func (c *RoleCache) Set(ctx context.Context, workspaceID, userID uuid.UUID, role domain.Role) error {
	return c.client.rdb.Set(ctx, roleKey(workspaceID, userID), string(role), c.ttl).Err()
}

// Invalidate removes one member's cached role
func (c *RoleCache) Invalidate(ctx context.Context, workspaceID, userID uuid.UUID) error {
	return c.client.rdb.Del(ctx, roleKey(workspaceID, userID)).Err()
}

// InvalidateWorkspace removes every cached role of a workspace
func (c *RoleCache) InvalidateWorkspace(ctx context.Context, workspaceID uuid.UUID) error {
	pattern := fmt.Sprintf("%s%s:*", roleCachePrefix, workspaceID)
	var cursor uint64

	for {
		keys, nextCursor, err := c.client.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan keys: %w", err)
		}

		if len(keys) > 0 {
			if err := c.client.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete keys: %w", err)
			}
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return nil
}
