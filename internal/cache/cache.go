// Package cache is an optional collaborator that stores provider
// results as JSON files, one per key. Adapters constructed with a cache
// consult it before going to the network; a nil *Cache disables caching.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gosimple/slug"
)

// Cache persists values under slugged keys inside a directory.
type Cache struct {
	dir string
}

// New creates the cache directory if needed.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Key builds a stable filesystem-safe key from its parts.
func Key(parts ...string) string {
	joined := ""
	for i, p := range parts {
		if i > 0 {
			joined += "-"
		}
		joined += p
	}
	return slug.Make(joined)
}

// Get unmarshals the cached value for key into v. Returns false on miss;
// unreadable or corrupt entries count as misses.
func (c *Cache) Get(key string, v interface{}) bool {
	if c == nil {
		return false
	}
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

// Put stores v under key, overwriting any previous value.
func (c *Cache) Put(key string, v interface{}) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if err := os.WriteFile(c.path(key), data, 0644); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}
