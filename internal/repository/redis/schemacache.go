package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/crmforge/crmforge/internal/domain"
	"github.com/google/uuid"
)

const entityCachePrefix = "entity:"

// EntityCache caches entity schema definitions. Record validation
// reads the schema on every write, so this sits on the hot path.
type EntityCache struct {
	client *Client
	ttl    time.Duration
}

// NewEntityCache creates a new entity cache
func NewEntityCache(client *Client, ttl time.Duration) *EntityCache {
	return &EntityCache{client: client, ttl: ttl}
}

func entityKey(workspaceID, entityID uuid.UUID) string {
	return fmt.Sprintf("%s%s:%s", entityCachePrefix, workspaceID, entityID)
}

// Get retrieves a cached entity definition
func (c *EntityCache) Get(ctx context.Context, workspaceID, entityID uuid.UUID) (*domain.Entity, error) {
	data, err := c.client.rdb.Get(ctx, entityKey(workspaceID, entityID)).Bytes()
	if err != nil {
		return nil, nil // Cache miss
	}

	var entity domain.Entity
	if err := json.Unmarshal(data, &entity); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entity: %w", err)
	}

	return &entity, nil
}

// Set caches an entity definition
func (c *EntityCache) Set(ctx context.Context, entity *domain.Entity) error {
	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	return c.client.rdb.Set(ctx, entityKey(entity.WorkspaceID, entity.ID), data, c.ttl).Err()
}

// Invalidate removes a cached entity definition
func (c *EntityCache) Invalidate(ctx context.Context, workspaceID, entityID uuid.UUID) error {
	return c.client.rdb.Del(ctx, entityKey(workspaceID, entityID)).Err()
}
