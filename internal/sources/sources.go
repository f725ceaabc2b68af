// Package sources discovers the module sources a build feeds through the
// plugin's transform hook.
package sources

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
)

// DefaultPatterns are the source globs scanned when none are configured.
var DefaultPatterns = []string{"src/**/*.{js,jsx,ts,tsx,mjs,vue,svelte,mdx,nvue}"}

// Stats tracks file discovery
type Stats struct {
	Discovered int `json:"discovered"` // files matched by the glob patterns
	Scanned    int `json:"scanned"`    // files kept after filtering
	Skipped    int `json:"skipped"`    // generated or gitignored files
}

// Scanner expands glob patterns under a project root.
type Scanner struct {
	root   string
	ignore *ignore.GitIgnore
}

// NewScanner creates a scanner rooted at root. The root's .gitignore is
// honoured when present.
func NewScanner(root string) *Scanner {
	s := &Scanner{root: root}
	// No .gitignore is fine
	if gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
		s.ignore = gi
	}
	return s
}

// Root returns the project root.
func (s *Scanner) Root() string {
	return s.root
}

// isGenerated reports bundler output and declaration files, which never carry
// utility usage of their own.
func isGenerated(path string) bool {
	return strings.HasSuffix(path, ".d.ts") ||
		strings.HasSuffix(path, ".min.js") ||
		strings.HasSuffix(path, ".map")
}

// Skip determines if a root-relative path should be excluded.
//
// Two-layer filtering:
// 1. Pattern check: generated files
// 2. Gitignore check
func (s *Scanner) Skip(path string) bool {
	if isGenerated(path) {
		return true
	}
	return s.ignore != nil && s.ignore.MatchesPath(path)
}

// Expand expands patterns to root-relative, slash-separated file paths in
// pattern order, without duplicates.
func (s *Scanner) Expand(patterns []string) ([]string, Stats, error) {
	var files []string
	seen := make(map[string]bool)
	stats := Stats{}
	fsys := os.DirFS(s.root)

	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, filepath.ToSlash(pattern), doublestar.WithFilesOnly())
		if err != nil {
			return nil, stats, err
		}

		for _, match := range matches {
			if seen[match] {
				continue
			}
			seen[match] = true
			stats.Discovered++

			if s.Skip(match) {
				stats.Skipped++
				continue
			}
			files = append(files, match)
			stats.Scanned++
		}
	}

	return files, stats, nil
}

// Read returns the content of a root-relative path.
func (s *Scanner) Read(path string) (string, error) {
	data, err := os.ReadFile(s.Abs(path))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Abs joins a root-relative path onto the root.
func (s *Scanner) Abs(path string) string {
	return filepath.Join(s.root, filepath.FromSlash(path))
}

// Rel converts an absolute or working-directory-relative path into a
// root-relative, slash-separated one. ok is false outside the root.
func (s *Scanner) Rel(path string) (string, bool) {
	absRoot, err := filepath.Abs(s.root)
	if err != nil {
		return "", false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}

	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// RelativePath returns a path relative to the current working directory
func RelativePath(absPath string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return absPath
	}

	rel, err := filepath.Rel(cwd, absPath)
	if err != nil {
		return absPath
	}

	return rel
}
