package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"melotree/core/catalog"

	"github.com/go-redis/redis/v8"
)

// treeTTL bounds how long a built tree projection stays cached. Trees are
// rebuilt from the raw CSV in object storage on a miss, so expiry is safe.
const treeTTL = 24 * time.Hour

// GetTreeKey generates the redis key for a library's cached tree projection.
func GetTreeKey(libraryID string) string {
	return fmt.Sprintf("tree:%s", libraryID)
}

// SetLibraryTree caches the JSON projection of a library's browse tree.
func SetLibraryTree(ctx context.Context, libraryID string, view *catalog.TreeView) error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	payload, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("failed to marshal tree projection: %w", err)
	}

	if err := RedisClient.Set(ctx, GetTreeKey(libraryID), payload, treeTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache tree projection: %w", err)
	}
	return nil
}

// GetLibraryTree returns the cached projection, or nil on a cache miss.
func GetLibraryTree(ctx context.Context, libraryID string) (*catalog.TreeView, error) {
	if RedisClient == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}

	payload, err := RedisClient.Get(ctx, GetTreeKey(libraryID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached tree: %w", err)
	}

	var view catalog.TreeView
	if err := json.Unmarshal([]byte(payload), &view); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached tree: %w", err)
	}
	return &view, nil
}

// ClearLibraryTree drops a library's cached projection.
func ClearLibraryTree(ctx context.Context, libraryID string) error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	if err := RedisClient.Del(ctx, GetTreeKey(libraryID)).Err(); err != nil {
		return fmt.Errorf("failed to clear cached tree: %w", err)
	}
	return nil
}
