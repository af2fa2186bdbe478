package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeDelete deletes keys and only logs failures
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// GroupListKey is the cache key of a user's group list
func GroupListKey(userID uint) string {
	return fmt.Sprintf("list:user:%d", userID)
}

// UserListKey is the cache key of the login picker list
const UserListKey = "list"

// InvalidateUserCache drops the cached login picker list
func InvalidateUserCache(ctx context.Context, cm *CacheManager) {
	SafeDelete(ctx, cm.Users, UserListKey)
}

// InvalidateGroupCache drops the cached group lists of a user
func InvalidateGroupCache(ctx context.Context, cm *CacheManager, userID uint) {
	SafeDelete(ctx, cm.Groups, GroupListKey(userID))
}
