package tsconfig

import (
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache memoizes loaded configs by absolute path. Entries are immutable once
// stored and are kept for the life of the cache.
type Cache struct {
	mu      sync.RWMutex
	configs map[string]*Config
	group   singleflight.Group
}

// NewCache constructs an empty Cache.
func NewCache() *Cache {
	return &Cache{configs: make(map[string]*Config)}
}

var processCache = NewCache()

// ProcessCache returns the process-lifetime cache.
func ProcessCache() *Cache {
	return processCache
}

// Load returns the config at filename, reading it at most once. Failed loads
// are not cached.
func (c *Cache) Load(filename string) (*Config, error) {
	abs, err := filepath.Abs(filename)
	if err != nil {
		return nil, err
	}
	c.mu.RLock()
	cfg, ok := c.configs[abs]
	c.mu.RUnlock()
	if ok {
		return cfg, nil
	}
	v, err, _ := c.group.Do(abs, func() (interface{}, error) {
		cfg, err := Load(abs)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.configs[abs] = cfg
		c.mu.Unlock()
		return cfg, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Config), nil
}

// Discover locates the config for a project rooted at cwd. The PathEnvVar
// environment variable, when set, names the file directly (relative to cwd).
// A nil config and nil error are returned when nothing is found.
func (c *Cache) Discover(cwd string) (*Config, error) {
	if env := os.Getenv(PathEnvVar); env != "" {
		if !filepath.IsAbs(env) {
			env = filepath.Join(cwd, env)
		}
		return c.Load(env)
	}
	filename, err := Find(cwd, DefaultFilename)
	if err != nil {
		return nil, err
	}
	if filename == "" {
		return nil, nil
	}
	return c.Load(filename)
}
