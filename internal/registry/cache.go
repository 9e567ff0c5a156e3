package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// RunCache persists each plugin's last-run summary between sessions so the
// list view can show when a report was last produced.
type RunCache struct {
	path    string
	mu      sync.RWMutex
	version string
	runs    map[string]CachedRun
}

// NewRunCache creates a RunCache instance and loads it from disk.
func NewRunCache(path string) (*RunCache, error) {
	c := &RunCache{
		path:    path,
		version: "1.0",
		runs:    make(map[string]CachedRun),
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	// Missing file means first launch; start empty.
	if err := c.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	return c, nil
}

// Load reads the cache from disk.
func (c *RunCache) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if err != nil {
		return err
	}

	var file RunCacheFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse run cache: %w", err)
	}

	c.version = file.Version
	c.runs = file.Runs
	if c.runs == nil {
		c.runs = make(map[string]CachedRun)
	}

	return nil
}

// Save writes the cache to disk atomically.
func (c *RunCache) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	file := RunCacheFile{
		Version: c.version,
		Runs:    c.runs,
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run cache: %w", err)
	}

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tmpPath, c.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// Get retrieves the cached last run for a plugin.
func (c *RunCache) Get(pluginName string) (CachedRun, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	run, ok := c.runs[pluginName]
	return run, ok
}

// Set updates the cached last run for a plugin.
func (c *RunCache) Set(pluginName string, run CachedRun) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.runs[pluginName] = run
}

// Invalidate removes the cached run for a plugin.
func (c *RunCache) Invalidate(pluginName string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.runs, pluginName)
}
