// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// category.go provides a Valkey-backed read-through cache in front of a
// category repository. Hot reads (single categories, children, parents and
// the top-level list) are served from Valkey. Entries are keyed by a
// generation counter that every write bumps, so a read that raced a write
// can only ever fill a key no reader will look up again.

package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"taxonomy/internal/models"
	"taxonomy/internal/store"
)

const (
	// categoryKeyPrefix is the Valkey key prefix for cached category reads.
	categoryKeyPrefix = "category:v"

	// GenerationKey holds the current cache generation.
	GenerationKey = "category:gen"

	// DefaultCategoryTTL is how long a cached category read stays valid.
	DefaultCategoryTTL = 5 * time.Minute
)

// CachedCategoryStore wraps a CategoryRepository with a Valkey cache.
type CachedCategoryStore struct {
	store.CategoryRepository

	client *redis.Client
	ttl    time.Duration
}

var _ store.CategoryRepository = (*CachedCategoryStore)(nil)

// NewCachedCategoryStore creates a cache in front of repo.
func NewCachedCategoryStore(repo store.CategoryRepository, client *redis.Client, ttl time.Duration) *CachedCategoryStore {
	if ttl == 0 {
		ttl = DefaultCategoryTTL
	}
	return &CachedCategoryStore{CategoryRepository: repo, client: client, ttl: ttl}
}

func genPrefix(gen int64) string {
	return categoryKeyPrefix + strconv.FormatInt(gen, 10) + ":"
}

// FindKey returns the cache key for a single category.
func FindKey(gen int64, id string) string {
	return genPrefix(gen) + "id:" + id
}

// ChildrenKey returns the cache key for the children of a category.
func ChildrenKey(gen int64, parentID string) string {
	return genPrefix(gen) + "children:" + parentID
}

// ParentsKey returns the cache key for the parents of a category.
func ParentsKey(gen int64, childID string) string {
	return genPrefix(gen) + "parents:" + childID
}

// TopLevelKey returns the cache key for the top-level category list.
func TopLevelKey(gen int64) string {
	return genPrefix(gen) + "top"
}

// Find serves a category from the cache, loading it on a miss. Absent
// categories are not cached.
func (cs *CachedCategoryStore) Find(ctx context.Context, id string) (*models.Category, error) {
	gen, ok := cs.generation(ctx)
	if !ok {
		return cs.CategoryRepository.Find(ctx, id)
	}

	var cached models.Category
	if cs.get(ctx, FindKey(gen, id), &cached) {
		return &cached, nil
	}

	c, err := cs.CategoryRepository.Find(ctx, id)
	if err != nil || c == nil {
		return c, err
	}
	cs.set(ctx, FindKey(gen, id), c)
	return c, nil
}

// GetChildren serves the children of parent from the cache.
func (cs *CachedCategoryStore) GetChildren(ctx context.Context, parent *models.Category) ([]models.Category, error) {
	if parent == nil {
		return nil, nil
	}
	return cs.list(ctx, func(gen int64) string { return ChildrenKey(gen, parent.ID) }, func() ([]models.Category, error) {
		return cs.CategoryRepository.GetChildren(ctx, parent)
	})
}

// GetParents serves the parents of child from the cache.
func (cs *CachedCategoryStore) GetParents(ctx context.Context, child *models.Category) ([]models.Category, error) {
	if child == nil {
		return nil, nil
	}
	return cs.list(ctx, func(gen int64) string { return ParentsKey(gen, child.ID) }, func() ([]models.Category, error) {
		return cs.CategoryRepository.GetParents(ctx, child)
	})
}

// FindTopLevelCategories serves the top-level list from the cache.
func (cs *CachedCategoryStore) FindTopLevelCategories(ctx context.Context) ([]models.Category, error) {
	return cs.list(ctx, TopLevelKey, func() ([]models.Category, error) {
		return cs.CategoryRepository.FindTopLevelCategories(ctx)
	})
}

// Save writes through and clears the cache.
func (cs *CachedCategoryStore) Save(ctx context.Context, c *models.Category) (*models.Category, error) {
	saved, err := cs.CategoryRepository.Save(ctx, c)
	if err == nil {
		cs.InvalidateAll(ctx)
	}
	return saved, err
}

// Delete writes through and clears the cache.
func (cs *CachedCategoryStore) Delete(ctx context.Context, c *models.Category) error {
	return cs.invalidateAfter(ctx, cs.CategoryRepository.Delete(ctx, c))
}

// AddChild writes through and clears the cache.
func (cs *CachedCategoryStore) AddChild(ctx context.Context, parent, child *models.Category, relationType string) error {
	return cs.invalidateAfter(ctx, cs.CategoryRepository.AddChild(ctx, parent, child, relationType))
}

// RemoveChildren writes through and clears the cache.
func (cs *CachedCategoryStore) RemoveChildren(ctx context.Context, parent *models.Category) error {
	return cs.invalidateAfter(ctx, cs.CategoryRepository.RemoveChildren(ctx, parent))
}

// SortChildren writes through and clears the cache.
func (cs *CachedCategoryStore) SortChildren(ctx context.Context, parentID string) error {
	return cs.invalidateAfter(ctx, cs.CategoryRepository.SortChildren(ctx, parentID))
}

// Reorder writes through and clears the cache.
func (cs *CachedCategoryStore) Reorder(ctx context.Context, items []store.ReorderItem) error {
	return cs.invalidateAfter(ctx, cs.CategoryRepository.Reorder(ctx, items))
}

// invalidateAfter clears the cache when a write succeeded and passes err on.
func (cs *CachedCategoryStore) invalidateAfter(ctx context.Context, err error) error {
	if err == nil {
		cs.InvalidateAll(ctx)
	}
	return err
}

// list serves a category list from the key for the current generation,
// calling load on a miss.
func (cs *CachedCategoryStore) list(ctx context.Context, keyFor func(gen int64) string, load func() ([]models.Category, error)) ([]models.Category, error) {
	gen, ok := cs.generation(ctx)
	if !ok {
		return load()
	}
	key := keyFor(gen)

	var cached []models.Category
	if cs.get(ctx, key, &cached) {
		return cached, nil
	}

	items, err := load()
	if err != nil {
		return nil, err
	}
	cs.set(ctx, key, items)
	return items, nil
}

// generation returns the current cache generation. It must be read before
// the backend so that a write committing during the load moves readers to a
// newer generation. ok is false when Valkey cannot be reached.
func (cs *CachedCategoryStore) generation(ctx context.Context) (int64, bool) {
	gen, err := cs.client.Get(ctx, GenerationKey).Int64()
	if err == redis.Nil {
		return 0, true
	}
	if err != nil {
		slog.Warn("category cache generation error", "error", err)
		return 0, false
	}
	return gen, true
}

// get decodes the cached value at key into dst. Errors count as misses.
func (cs *CachedCategoryStore) get(ctx context.Context, key string, dst any) bool {
	val, err := cs.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		slog.Warn("category cache get error", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(val, dst); err != nil {
		slog.Warn("category cache decode error", "key", key, "error", err)
		return false
	}
	slog.Debug("category cache hit", "key", key)
	return true
}

// set stores value at key with the configured TTL.
func (cs *CachedCategoryStore) set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		slog.Warn("category cache encode error", "key", key, "error", err)
		return
	}
	if err := cs.client.Set(ctx, key, data, cs.ttl).Err(); err != nil {
		slog.Warn("category cache set error", "key", key, "error", err)
	}
}

// InvalidateAll moves readers to a new generation, then removes the cached
// entries by scanning for the prefix.
func (cs *CachedCategoryStore) InvalidateAll(ctx context.Context) {
	if err := cs.client.Incr(ctx, GenerationKey).Err(); err != nil {
		slog.Warn("category cache generation bump error", "error", err)
	}

	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := cs.client.Scan(ctx, cursor, categoryKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("category cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := cs.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("category cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Debug("category cache cleared", "deleted", deleted)
	}
}
