// Package entry maps requested module ids onto canonical virtual entries and
// derives the CSS layer each entry serves.
//
// Users import the generated stylesheet through an alias:
//
//	import "uno.css"                // every layer
//	import "virtual:uno:base.css"   // one layer
//
// which resolves to the canonical entries "/__uno.css" and "/__uno_base.css".
package entry

import (
	"regexp"
	"strings"

	"github.com/yacobolo/unoinject/internal/placeholder"
)

var (
	// uno.css, virtual:uno.css, uno:<layer>.css, virtual:uno:<layer>.css
	aliasPattern = regexp.MustCompile(`^(?:virtual:)?uno(?::(.+))?\.css(\?.*)?$`)

	resolvedWithQuery = regexp.MustCompile(`[/\\]__uno(?:_(.*?))?\.css(\?.*)?$`)
	resolvedPattern   = regexp.MustCompile(`[/\\]__uno(?:_(.*?))?\.css$`)
)

// ResolveID returns the canonical entry for a requested id, without its query.
// Ids that are already canonical resolve to themselves.
func ResolveID(id string) (string, bool) {
	if resolvedWithQuery.MatchString(id) {
		return Path(id), true
	}

	m := aliasPattern.FindStringSubmatch(id)
	if m == nil {
		return "", false
	}
	if m[1] != "" {
		return "/__uno_" + m[1] + ".css", true
	}
	return "/__uno.css", true
}

// ResolveLayer derives the layer served by a path or entry. The bare entry
// serves placeholder.LayerMarkAll.
func ResolveLayer(id string) (string, bool) {
	m := resolvedPattern.FindStringSubmatch(id)
	if m == nil {
		return "", false
	}
	if m[1] != "" {
		return m[1], true
	}
	return placeholder.LayerMarkAll, true
}

// Path strips the query string from id.
func Path(id string) string {
	if i := strings.IndexByte(id, '?'); i >= 0 {
		return id[:i]
	}
	return id
}

// Query returns the query string of id including its leading '?', or "".
func Query(id string) string {
	if i := strings.IndexByte(id, '?'); i >= 0 {
		return id[i:]
	}
	return ""
}
