package host

import "sync"

// ModuleCache implements resolver.ModuleCache over a mutex-guarded map.
type ModuleCache struct {
	mu      sync.Mutex
	modules map[string]any
}

// NewModuleCache constructs an empty ModuleCache.
func NewModuleCache() *ModuleCache {
	return &ModuleCache{modules: make(map[string]any)}
}

// Load implements resolver.ModuleCache.
func (c *ModuleCache) Load(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	mod, ok := c.modules[key]
	return mod, ok
}

// Store implements resolver.ModuleCache.
func (c *ModuleCache) Store(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modules[key] = value
}

// Delete implements resolver.ModuleCache.
func (c *ModuleCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.modules, key)
}

// LoadOrStore returns the module cached under key, calling load to populate
// it on a miss. Loads for the same key are serialized.
func (c *ModuleCache) LoadOrStore(key string, load func() (any, error)) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if mod, ok := c.modules[key]; ok {
		return mod, nil
	}
	mod, err := load()
	if err != nil {
		return nil, err
	}
	c.modules[key] = mod
	return mod, nil
}

// Keys returns the cached keys in no particular order.
func (c *ModuleCache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.modules))
	for k := range c.modules {
		keys = append(keys, k)
	}
	return keys
}
