// Package placeholder encodes and decodes the textual markers that stand in
// for generated CSS until the bundle is finalized.
//
// Two marker kinds exist:
//
//	#--unocss--{layer:<name>}            layer placeholder
//	#--unocss-hash--{content:"<hash>"}   hash placeholder (cache busting only)
//
// A layer placeholder may sit inside a string literal of the emitted code. The
// recognizer captures the quote that opens the literal ("" for raw code, `"`
// for a string literal, `\"` for a literal nested in an eval'd string) so the
// substitution can apply the matching number of escaping passes.
package placeholder

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

// LayerMarkAll is the reserved layer name meaning "every layer not served by
// a dedicated entry".
const LayerMarkAll = "__ALL__"

// Quote kinds captured in front of a layer placeholder.
const (
	QuoteNone    = ""
	QuoteDouble  = `"`
	QuoteEscaped = `\"`
)

var (
	// LayerPattern matches a layer placeholder with its optional leading quote.
	// Group 1 is the quote, group 2 the layer name.
	LayerPattern = regexp.MustCompile(`(\\?")?#--unocss--\s*\{\s*layer\s*:\s*(.+?);?\s*\}`)

	// HashPattern matches a hash placeholder, including escaped quotes around
	// the hash. Group 1 is the hash.
	HashPattern = regexp.MustCompile(`#--unocss-hash--\s*\{\s*content\s*:\s*\\*"(.+?)\\*";?\s*\}`)
)

// Match is one decoded layer placeholder.
type Match struct {
	Quote string
	Layer string
	Start int
	End   int
}

// Layer returns the placeholder text for layer.
func Layer(layer string) string {
	return "#--unocss--{layer:" + layer + "}"
}

// Hash returns the placeholder text carrying a content hash.
func Hash(hash string) string {
	return `#--unocss-hash--{content:"` + hash + `"}`
}

// StripHashes removes every hash placeholder from code.
func StripHashes(code string) string {
	if !strings.Contains(code, "#--unocss-hash--") {
		return code
	}
	return HashPattern.ReplaceAllString(code, "")
}

// FindLayers decodes every layer placeholder in code, in order of appearance.
func FindLayers(code string) []Match {
	locs := LayerPattern.FindAllStringSubmatchIndex(code, -1)
	if len(locs) == 0 {
		return nil
	}

	matches := make([]Match, 0, len(locs))
	for _, loc := range locs {
		m := Match{
			Layer: code[loc[4]:loc[5]],
			Start: loc[0],
			End:   loc[1],
		}
		if loc[2] >= 0 {
			m.Quote = code[loc[2]:loc[3]]
		}
		matches = append(matches, m)
	}
	return matches
}

// ReplaceLayers substitutes every layer placeholder in code with the CSS that
// resolve returns for its layer, escaped for the captured quote context.
// It returns the new text and the number of placeholders replaced.
func ReplaceLayers(code string, resolve func(layer string) string) (string, int) {
	matches := FindLayers(code)
	if len(matches) == 0 {
		return code, 0
	}

	var b strings.Builder
	b.Grow(len(code))
	last := 0
	for _, m := range matches {
		b.WriteString(code[last:m.Start])
		b.WriteString(Quote(resolve(m.Layer), m.Quote))
		last = m.End
	}
	b.WriteString(code[last:])

	return b.String(), len(matches)
}

// Quote prepares css for insertion after the given quote. Without a quote the
// text is returned as is. Inside a string literal it is escaped once, and
// twice when the literal itself is escaped (eval'd module code).
func Quote(css, quote string) string {
	if quote == QuoteNone {
		return css
	}

	escaped := escapeString(css)
	if quote == QuoteEscaped {
		escaped = escapeString(escaped)
	}
	return quote + escaped
}

// escapeString returns s as the body of a JSON string literal, without the
// surrounding quotes. HTML characters are left alone.
func escapeString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail.
	_ = enc.Encode(s)

	out := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	return string(out[1 : len(out)-1])
}
