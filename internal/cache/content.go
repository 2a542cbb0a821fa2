// Package cache caches content listings per filter and invalidates exactly
// the listings a content row appears in.
package cache

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"pecommunity/internal/models"
)

const keyPrefix = "content:"

// Store is the subset of fiber.Storage the cache needs.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, val []byte, exp time.Duration) error
	Delete(key string) error
}

// ContentCache caches ListContent results. A nil store disables caching.
type ContentCache struct {
	store Store
	ttl   time.Duration
}

// New creates a content cache over store.
func New(store Store, ttl time.Duration) *ContentCache {
	return &ContentCache{store: store, ttl: ttl}
}

// Key returns the cache key for a listing filter.
func Key(f models.ContentFilter) string {
	return keyPrefix + f.StageID + ":" + f.CategoryID + ":" + f.Type
}

// KeysFor returns every listing key c participates in: each filter field is
// either the row's value or unset.
func KeysFor(c *models.Content) []string {
	keys := make([]string, 0, 8)
	for _, stage := range []string{c.StageID, ""} {
		for _, category := range []string{c.CategoryID, ""} {
			for _, typ := range []string{c.Type, ""} {
				keys = append(keys, Key(models.ContentFilter{StageID: stage, CategoryID: category, Type: typ}))
			}
		}
	}
	return keys
}

// Get returns the cached listing for f.
func (c *ContentCache) Get(f models.ContentFilter) ([]models.Content, bool) {
	if c == nil || c.store == nil {
		return nil, false
	}
	data, err := c.store.Get(Key(f))
	if err != nil {
		slog.Warn("content cache read failed", "key", Key(f), "error", err)
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	var items []models.Content
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false
	}
	return items, true
}

// Set stores the listing for f.
func (c *ContentCache) Set(f models.ContentFilter, items []models.Content) {
	if c == nil || c.store == nil {
		return
	}
	data, err := json.Marshal(items)
	if err != nil {
		return
	}
	if err := c.store.Set(Key(f), data, c.ttl); err != nil {
		slog.Warn("content cache write failed", "key", Key(f), "error", err)
	}
}

// Invalidate drops every listing that contains content.
func (c *ContentCache) Invalidate(content *models.Content) error {
	if c == nil || c.store == nil || content == nil {
		return nil
	}
	var errs []error
	for _, key := range KeysFor(content) {
		if err := c.store.Delete(key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
