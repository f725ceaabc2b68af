// Package assets provides the emitted-asset maps the finalization pass
// rewrites: an in-memory map for hosts that keep the bundle in memory, and a
// directory-backed map for an output directory on disk.
package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultPatterns selects the text assets of a bundle, including the style
// extensions used by mini-program targets.
var DefaultPatterns = []string{"**/*.{js,mjs,cjs,css,html,wxss,acss,ttss,qss,jxss}"}

// Map is a host's set of emitted assets.
type Map interface {
	Names() []string
	Source(name string) (string, error)
	Update(name, source string) error
}

// Memory is an in-memory asset map. It counts updates per asset.
type Memory struct {
	mu      sync.RWMutex
	files   map[string]string
	updates map[string]int
}

// NewMemory creates a map holding a copy of files.
func NewMemory(files map[string]string) *Memory {
	m := &Memory{
		files:   make(map[string]string, len(files)),
		updates: make(map[string]int),
	}
	for name, src := range files {
		m.files[name] = src
	}
	return m
}

// Names implements Map, sorted.
func (m *Memory) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.files))
	for name := range m.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Source implements Map.
func (m *Memory) Source(name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	src, ok := m.files[name]
	if !ok {
		return "", fmt.Errorf("asset %s: %w", name, os.ErrNotExist)
	}
	return src, nil
}

// Update implements Map.
func (m *Memory) Update(name, source string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files[name] = source
	m.updates[name]++
	return nil
}

// Updates reports how often name was rewritten.
func (m *Memory) Updates(name string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.updates[name]
}

// Dir exposes the files of an output directory that match patterns.
type Dir struct {
	root     string
	patterns []string
}

// NewDir creates a directory-backed map. Nil patterns select DefaultPatterns.
func NewDir(root string, patterns []string) (*Dir, error) {
	if patterns == nil {
		patterns = DefaultPatterns
	}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid asset pattern %q", p)
		}
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("asset dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("asset dir %s is not a directory", root)
	}

	return &Dir{root: root, patterns: patterns}, nil
}

// Names implements Map. Names are slash-separated paths relative to the root.
func (d *Dir) Names() []string {
	fsys := os.DirFS(d.root)
	seen := make(map[string]bool)
	var names []string

	for _, pattern := range d.patterns {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			continue
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				names = append(names, m)
			}
		}
	}

	sort.Strings(names)
	return names
}

// Source implements Map.
func (d *Dir) Source(name string) (string, error) {
	// #nosec G304 - name comes from Names
	data, err := os.ReadFile(d.path(name))
	if err != nil {
		return "", fmt.Errorf("read asset: %w", err)
	}
	return string(data), nil
}

// Update implements Map. The file mode is preserved.
func (d *Dir) Update(name, source string) error {
	path := d.path(name)

	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, []byte(source), mode); err != nil {
		return fmt.Errorf("write asset: %w", err)
	}
	return nil
}

func (d *Dir) path(name string) string {
	return filepath.Join(d.root, filepath.FromSlash(name))
}
