// Package plugins loads YAML plugin definitions from the embedded samples
// and the user's plugin directory.
package plugins

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/doeshing/fabsh/assets"
	"github.com/doeshing/fabsh/internal/domain"
	"github.com/doeshing/fabsh/internal/ports"
)

// Registry implements ports.PluginRegistry. Embedded samples load first;
// a user file with the same plugin name shadows them. Invalid files are
// logged and skipped, never fatal.
type Registry struct {
	dir    string
	logger ports.Logger

	mu      sync.RWMutex
	plugins map[string]domain.PluginSpec
}

// NewRegistry builds a registry reading user plugins from dir. Call Load
// before first use.
func NewRegistry(dir string, logger ports.Logger) *Registry {
	return &Registry{dir: dir, logger: logger, plugins: map[string]domain.PluginSpec{}}
}

// Load reads all plugin definitions from scratch. Safe to call again to
// pick up edits; lookups during a reload see either the old or new set.
func (r *Registry) Load() error {
	loaded := map[string]domain.PluginSpec{}

	r.loadFS(loaded, assets.Plugins, "plugins")

	if r.dir != "" {
		if err := os.MkdirAll(r.dir, 0o755); err != nil {
			return err
		}
		r.loadFS(loaded, os.DirFS(r.dir), ".")
	}

	r.mu.Lock()
	r.plugins = loaded
	r.mu.Unlock()

	r.logger.Debug("plugins loaded", map[string]interface{}{"count": len(loaded)})
	return nil
}

func (r *Registry) loadFS(into map[string]domain.PluginSpec, fsys fs.FS, root string) {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !yamlFile(entry.Name()) {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(root, entry.Name()))
		if err != nil {
			r.logger.Warn("plugin read failed", map[string]interface{}{"file": entry.Name(), "error": err.Error()})
			continue
		}
		spec, err := Parse(entry.Name(), data)
		if err != nil {
			r.logger.Warn("plugin skipped", map[string]interface{}{"file": entry.Name(), "error": err.Error()})
			continue
		}
		into[spec.Name] = spec
	}
}

// Get implements ports.PluginRegistry.
func (r *Registry) Get(name string) (domain.PluginSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.plugins[name]
	return spec, ok
}

// List returns plugins sorted by name, optionally filtered by category.
func (r *Registry) List(category string) []domain.PluginSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.PluginSpec, 0, len(r.plugins))
	for _, spec := range r.plugins {
		if category != "" && spec.Category != category {
			continue
		}
		out = append(out, spec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Categories groups plugin names by category, each group sorted.
func (r *Registry) Categories() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := map[string][]string{}
	for _, spec := range r.plugins {
		out[spec.Category] = append(out[spec.Category], spec.Name)
	}
	for _, names := range out {
		sort.Strings(names)
	}
	return out
}

func yamlFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

var _ ports.PluginRegistry = (*Registry)(nil)
