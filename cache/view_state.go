package cache

import (
	"context"
	"fmt"
	"time"
)

// viewStateTTL expires abandoned per-user expand/collapse state. The state is
// pure presentation: losing it collapses the tree, nothing else.
const viewStateTTL = 7 * 24 * time.Hour

// GetViewStateKey generates the redis key holding the set of expanded node
// identities for one user viewing one library.
func GetViewStateKey(userID int64, libraryID string) string {
	return fmt.Sprintf("viewstate:%d:%s", userID, libraryID)
}

// SetNodeExpanded records whether a node is expanded for the given user.
func SetNodeExpanded(ctx context.Context, userID int64, libraryID, nodeID string, expanded bool) error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	key := GetViewStateKey(userID, libraryID)
	var err error
	if expanded {
		err = RedisClient.SAdd(ctx, key, nodeID).Err()
	} else {
		err = RedisClient.SRem(ctx, key, nodeID).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to update view state: %w", err)
	}

	if err := RedisClient.Expire(ctx, key, viewStateTTL).Err(); err != nil {
		return fmt.Errorf("failed to set view state expiration: %w", err)
	}
	return nil
}

// GetExpandedNodes returns the set of expanded node identities for a user and
// library. A missing key yields an empty set.
func GetExpandedNodes(ctx context.Context, userID int64, libraryID string) (map[string]bool, error) {
	if RedisClient == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}

	members, err := RedisClient.SMembers(ctx, GetViewStateKey(userID, libraryID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get view state: %w", err)
	}

	expanded := make(map[string]bool, len(members))
	for _, id := range members {
		expanded[id] = true
	}
	return expanded, nil
}

// ClearViewState drops a user's expand/collapse state for a library.
func ClearViewState(ctx context.Context, userID int64, libraryID string) error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	if err := RedisClient.Del(ctx, GetViewStateKey(userID, libraryID)).Err(); err != nil {
		return fmt.Errorf("failed to clear view state: %w", err)
	}
	return nil
}
