package engine

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Default module patterns scanned for utility usage.
var (
	DefaultInclude = []string{"**/*.{js,jsx,ts,tsx,mjs,vue,svelte,html,mdx,nvue}"}
	DefaultExclude = []string{"**/node_modules/**", "**/.git/**"}
)

// Filter decides which module ids take part in extraction.
type Filter struct {
	include []string
	exclude []string
}

// NewFilter validates the glob patterns and builds a filter. An empty include
// list and a nil exclude list fall back to the defaults.
func NewFilter(include, exclude []string) (*Filter, error) {
	if len(include) == 0 {
		include = DefaultInclude
	}
	if exclude == nil {
		exclude = DefaultExclude
	}

	for _, p := range append(append([]string{}, include...), exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid glob pattern %q", p)
		}
	}

	return &Filter{include: include, exclude: exclude}, nil
}

// Match reports whether id should be extracted. The query string is ignored.
func (f *Filter) Match(id string) bool {
	path := id
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimPrefix(filepath.ToSlash(path), "/")

	for _, p := range f.exclude {
		if ok, _ := doublestar.Match(p, path); ok {
			return false
		}
	}
	for _, p := range f.include {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}
