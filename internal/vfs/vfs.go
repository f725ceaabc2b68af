// Package vfs stores the virtual modules served for the generated
// stylesheet entries.
package vfs

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// DefaultPrefix is prepended to virtual module paths to form module ids.
const DefaultPrefix = "_virtual_"

// FS is the write surface the live-update path needs.
type FS interface {
	// Prefix is the module id prefix in front of every virtual path.
	Prefix() string
	// Modules lists the known module ids.
	Modules() []string
	// WriteModule replaces the content of a module, registering it if new.
	WriteModule(id, code string) error
}

// Memory keeps virtual modules in memory.
type Memory struct {
	mu      sync.RWMutex
	prefix  string
	modules map[string]string
	order   []string
}

// NewMemory creates an empty store.
func NewMemory(prefix string) *Memory {
	return &Memory{
		prefix:  prefix,
		modules: make(map[string]string),
	}
}

// Prefix implements FS.
func (m *Memory) Prefix() string {
	return m.prefix
}

// Modules implements FS. Ids are returned in registration order.
func (m *Memory) Modules() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.order)
}

// WriteModule implements FS.
func (m *Memory) WriteModule(id, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.modules[id]; !ok {
		m.order = append(m.order, id)
	}
	m.modules[id] = code
	return nil
}

// ReadModule returns the content of a module.
func (m *Memory) ReadModule(id string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	code, ok := m.modules[id]
	return code, ok
}

// ModuleID joins prefix and path into a module id.
func ModuleID(prefix, path string) string {
	return prefix + path
}

// ModulePath strips prefix from id and normalises separators.
func ModulePath(prefix, id string) string {
	return strings.ReplaceAll(strings.TrimPrefix(id, prefix), `\`, "/")
}

// Dir mirrors every module write into a directory, so tools outside the
// process can pick the stylesheets up.
type Dir struct {
	*Memory
	root string
}

// NewDir creates a directory-backed store rooted at root.
func NewDir(root, prefix string) *Dir {
	return &Dir{Memory: NewMemory(prefix), root: root}
}

// WriteModule implements FS.
func (d *Dir) WriteModule(id, code string) error {
	target := d.File(id)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create module dir: %w", err)
	}
	if err := os.WriteFile(target, []byte(code), 0o644); err != nil {
		return fmt.Errorf("write module %s: %w", id, err)
	}
	return d.Memory.WriteModule(id, code)
}

// File returns the file a module id is mirrored to.
func (d *Dir) File(id string) string {
	return filepath.Join(d.root, filepath.FromSlash(strings.TrimPrefix(ModulePath(d.prefix, id), "/")))
}
