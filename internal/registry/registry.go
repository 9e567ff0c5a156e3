package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/opskit/toolbox/internal/logger"
	"github.com/opskit/toolbox/internal/metadata"
	"github.com/opskit/toolbox/internal/script"
)

const (
	scriptExtension = ".lua"

	// Header parsing is file IO bound; a small pool is plenty.
	discoverParallelism = 8
)

// Registry is the in-memory catalog of discovered plugins. It is built once
// per scan and never mutated afterwards, so it may be read freely from any
// UI callback. Re-scanning produces a new Registry.
type Registry struct {
	dir     string
	names   []string
	plugins map[string]Plugin
}

// Discover scans dir for candidate plugin scripts and parses their metadata
// headers without executing any script code. Files whose header does not
// parse, or that lack a name, are skipped with a warning; one malformed
// plugin never prevents others from loading.
func Discover(dir string, log *logger.Logger) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scripts directory %s: %w", dir, err)
	}

	var candidates []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if filepath.Ext(name) != scriptExtension {
			continue
		}
		// Reserved naming: underscore and dot prefixes are private.
		if strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") {
			continue
		}
		candidates = append(candidates, name)
	}
	// ReadDir sorts by filename already; keep the guarantee explicit since
	// listing order and duplicate-name resolution both depend on it.
	sort.Strings(candidates)

	metas := make([]*metadata.Metadata, len(candidates))
	errs := make([]error, len(candidates))

	var g errgroup.Group
	g.SetLimit(discoverParallelism)
	for i, name := range candidates {
		g.Go(func() error {
			metas[i], errs[i] = metadata.Extract(filepath.Join(dir, name))
			return nil
		})
	}
	_ = g.Wait()

	r := &Registry{
		dir:     dir,
		plugins: make(map[string]Plugin, len(candidates)),
	}

	for i, name := range candidates {
		if errs[i] != nil {
			log.WithFields(map[string]any{"file": name}).Warn(fmt.Sprintf("skipping plugin: %v", errs[i]))
			continue
		}

		meta := metas[i]
		if prev, exists := r.plugins[meta.Name]; exists {
			// Deterministic last-wins by sort order.
			log.WithFields(map[string]any{
				"name":     meta.Name,
				"replaced": filepath.Base(prev.Ref.Path),
				"file":     name,
			}).Warn("duplicate plugin name, keeping later file")
		} else {
			r.names = append(r.names, meta.Name)
		}
		r.plugins[meta.Name] = Plugin{
			Meta: meta,
			Ref:  script.NewReference(filepath.Join(dir, name)),
		}

		log.WithFields(map[string]any{"name": meta.Name, "file": name}).Debug("discovered plugin")
	}

	return r, nil
}

// Dir returns the directory this registry was built from.
func (r *Registry) Dir() string {
	return r.dir
}

// List returns all plugins in discovery (filename) order.
func (r *Registry) List() []Plugin {
	out := make([]Plugin, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.plugins[name])
	}
	return out
}

// Get retrieves a plugin by name.
func (r *Registry) Get(name string) (Plugin, bool) {
	p, ok := r.plugins[name]
	return p, ok
}

// Len returns the number of discovered plugins.
func (r *Registry) Len() int {
	return len(r.names)
}
