// Package cache provides a write-through caching layer in front of the
// model APIs: about-value resolution, permission sets, and
// recent-activity listings.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"fluidinfo/logger"
	"fluidinfo/modelapi"
	"fluidinfo/permission"
	"fluidinfo/store"
)

const (
	aboutKeyPrefix         = "about:"
	namespacePermKeyPrefix = "permission:namespace:"
	tagPermKeyPrefix       = "permission:tag:"
	recentActObjectPrefix  = "recentactivity:object:"
	recentActUserPrefix    = "recentactivity:user:"
)

// Cache wraps the model APIs with a read-through Redis cache. Any Redis
// error is logged and treated as a full cache miss: a caching
// outage degrades to uncached operation, it never fails a request.
type Cache struct {
	client      *redis.Client
	ttl         time.Duration
	objects     *modelapi.ObjectAPI
	permissions *modelapi.PermissionAPI
	activity    *modelapi.RecentActivityAPI
}

// New builds a Cache backed by a Redis client at addr, with the given
// connection pool size and per-entry TTL (config.CacheConfig's Address/
// PoolSize/ExpireTimeout).
func New(addr string, poolSize int, ttl time.Duration, objects *modelapi.ObjectAPI, permissions *modelapi.PermissionAPI, activity *modelapi.RecentActivityAPI) *Cache {
	return &Cache{
		client:      redis.NewClient(&redis.Options{Addr: addr, PoolSize: poolSize}),
		ttl:         ttl,
		objects:     objects,
		permissions: permissions,
		activity:    activity,
	}
}

// Close releases the underlying Redis connection pool.
func (c *Cache) Close() error { return c.client.Close() }

// ResolveAbout implements the `about:<value>` category: resolves a
// normalized about-value to its object ID, falling through to
// store.GetObjectByAbout on a miss.
func (c *Cache) ResolveAbout(ctx context.Context, q store.Querier, about string) (uuid.UUID, bool, error) {
	key := aboutKeyPrefix + about
	if raw, err := c.client.Get(ctx, key).Result(); err == nil {
		var id uuid.UUID
		if perr := id.UnmarshalText([]byte(raw)); perr == nil {
			return id, true, nil
		}
	} else if err != redis.Nil {
		logger.Error("cache: GET %s: %v", key, err)
	}

	id, ok, err := store.GetObjectByAbout(ctx, q, about)
	if err != nil || !ok {
		return id, ok, err
	}
	if setErr := c.client.Set(ctx, key, id.String(), c.ttl).Err(); setErr != nil {
		logger.Error("cache: SET %s: %v", key, setErr)
	}
	return id, true, nil
}

// NamespacePermissions implements the `permission:namespace:<path>`
// category: the full permission Set for path, falling through to
// store.NamespacePermissions on a miss.
func (c *Cache) NamespacePermissions(ctx context.Context, q store.Querier, path string) (permission.Set, error) {
	return c.permissionSet(ctx, namespacePermKeyPrefix+path, func() (permission.Set, error) {
		sets, err := store.NamespacePermissions(ctx, q, []string{path})
		if err != nil {
			return nil, err
		}
		return sets[path], nil
	})
}

// TagPermissions implements the `permission:tag:<path>` category: the
// full permission Set for path, falling through to store.TagPermissions
// on a miss.
func (c *Cache) TagPermissions(ctx context.Context, q store.Querier, path string) (permission.Set, error) {
	return c.permissionSet(ctx, tagPermKeyPrefix+path, func() (permission.Set, error) {
		sets, err := store.TagPermissions(ctx, q, []string{path})
		if err != nil {
			return nil, err
		}
		return sets[path], nil
	})
}

func (c *Cache) permissionSet(ctx context.Context, key string, load func() (permission.Set, error)) (permission.Set, error) {
	if raw, err := c.client.Get(ctx, key).Result(); err == nil {
		var set permission.Set
		if jerr := json.Unmarshal([]byte(raw), &set); jerr == nil {
			return set, nil
		}
	} else if err != redis.Nil {
		logger.Error("cache: GET %s: %v", key, err)
	}

	set, err := load()
	if err != nil {
		return nil, err
	}
	if set == nil {
		// Nonexistent path: never cached, so a later create is visible
		// immediately without an invalidation round.
		return nil, nil
	}
	if encoded, jerr := json.Marshal(set); jerr == nil {
		if setErr := c.client.Set(ctx, key, encoded, c.ttl).Err(); setErr != nil {
			logger.Error("cache: SET %s: %v", key, setErr)
		}
	}
	return set, nil
}

// InvalidateNamespacePermission drops the cached Set for a namespace
// path, called on namespace delete and on PermissionAPI.set.
func (c *Cache) InvalidateNamespacePermission(ctx context.Context, path string) {
	c.del(ctx, namespacePermKeyPrefix+path)
}

// InvalidateTagPermission drops the cached Set for a tag path.
func (c *Cache) InvalidateTagPermission(ctx context.Context, path string) {
	c.del(ctx, tagPermKeyPrefix+path)
}

// RecentActivityForObject implements the `recentactivity:object:<uuid>`
// category. The recent-activity cache is single-key only;
// callers fetching activity for multiple objects must bypass it and call
// modelapi.RecentActivityAPI.GetForObjects directly.
func (c *Cache) RecentActivityForObject(ctx context.Context, q store.Querier, objectID uuid.UUID) ([]store.Activity, error) {
	key := recentActObjectPrefix + objectID.String()
	if activity, ok := c.getActivity(ctx, key); ok {
		return activity, nil
	}
	byObject, err := c.activity.GetForObjects(ctx, q, []uuid.UUID{objectID})
	if err != nil {
		return nil, err
	}
	activity := byObject[objectID]
	c.setActivity(ctx, key, activity)
	return activity, nil
}

// RecentActivityForUser implements the `recentactivity:user:<username>`
// category, single-key only.
func (c *Cache) RecentActivityForUser(ctx context.Context, q store.Querier, username string) ([]store.Activity, error) {
	key := recentActUserPrefix + username
	if activity, ok := c.getActivity(ctx, key); ok {
		return activity, nil
	}
	byUser, err := c.activity.GetForUsers(ctx, q, []string{username})
	if err != nil {
		return nil, err
	}
	activity := byUser[username]
	c.setActivity(ctx, key, activity)
	return activity, nil
}

func (c *Cache) getActivity(ctx context.Context, key string) ([]store.Activity, bool) {
	raw, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			logger.Error("cache: GET %s: %v", key, err)
		}
		return nil, false
	}
	var activity []store.Activity
	if jerr := json.Unmarshal([]byte(raw), &activity); jerr != nil {
		return nil, false
	}
	return activity, true
}

func (c *Cache) setActivity(ctx context.Context, key string, activity []store.Activity) {
	encoded, err := json.Marshal(activity)
	if err != nil {
		return
	}
	if setErr := c.client.Set(ctx, key, encoded, c.ttl).Err(); setErr != nil {
		logger.Error("cache: SET %s: %v", key, setErr)
	}
}

// InvalidateRecentActivityForObject drops cached activity for objectID,
// called on every tag-value set/delete affecting it.
func (c *Cache) InvalidateRecentActivityForObject(ctx context.Context, objectID uuid.UUID) {
	c.del(ctx, recentActObjectPrefix+objectID.String())
}

// InvalidateRecentActivityForUser drops cached activity for username,
// called for the acting user on every tag-value set/delete.
func (c *Cache) InvalidateRecentActivityForUser(ctx context.Context, username string) {
	c.del(ctx, recentActUserPrefix+username)
}

func (c *Cache) del(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		logger.Error("cache: DEL %s: %v", key, err)
	}
}
