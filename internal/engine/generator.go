package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultLayer holds rules that do not name a layer.
const DefaultLayer = "default"

// GenerateOptions controls a generation run.
type GenerateOptions struct {
	Minify bool
}

// Result answers CSS lookups for one generation run.
type Result interface {
	// Layer returns the CSS of one layer. ok is false when nothing was
	// generated for it.
	Layer(name string) (css string, ok bool)
	// Layers concatenates the given layers (every generated layer when
	// include is nil) minus exclude, in the generator's layer order.
	Layers(include, exclude []string) string
}

// Generator turns a token set into layered CSS.
type Generator interface {
	Generate(ctx context.Context, tokens *Tokens, opts GenerateOptions) (Result, error)
}

// RuleConfig is a utility rule declared in configuration.
type RuleConfig struct {
	Class string `koanf:"class"`
	CSS   string `koanf:"css"`
	Layer string `koanf:"layer"`
}

// RuleEngine generates CSS for used tokens from a fixed rule table.
type RuleEngine struct {
	mu         sync.RWMutex
	rules      map[string][]Rule
	layerOrder []string
	count      int
}

// NewRuleEngine creates an engine with the given layer order.
func NewRuleEngine(layerOrder ...string) *RuleEngine {
	return &RuleEngine{
		rules:      make(map[string][]Rule),
		layerOrder: slices.Clone(layerOrder),
	}
}

// Add registers rules. Definition order across calls is preserved.
func (e *RuleEngine) Add(rules ...Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, r := range rules {
		if r.Layer == "" {
			r.Layer = DefaultLayer
		}
		r.Order = e.count
		e.count++
		e.rules[r.Class] = append(e.rules[r.Class], r)
	}
}

// AddConfigRules registers rules declared in configuration.
func (e *RuleEngine) AddConfigRules(configs []RuleConfig) error {
	rules := make([]Rule, 0, len(configs))
	for _, rc := range configs {
		if rc.Class == "" {
			return fmt.Errorf("rule without class: %q", rc.CSS)
		}
		body := strings.TrimSpace(rc.CSS)
		if body != "" && !strings.HasSuffix(body, ";") {
			body += ";"
		}
		rules = append(rules, Rule{
			Class:    rc.Class,
			Selector: "." + EscapeClass(rc.Class),
			Layer:    rc.Layer,
			Body:     body,
		})
	}
	e.Add(rules...)
	return nil
}

// LoadStylesheets parses every stylesheet matching patterns under sourceDir
// and registers its class rules. Layers declared by the sheets extend the
// layer order.
func (e *RuleEngine) LoadStylesheets(sourceDir string, patterns []string) (int, error) {
	files, err := scanStylesheets(sourceDir, patterns)
	if err != nil {
		return 0, err
	}

	for _, file := range files {
		sheet, err := parseFile(file, sourceDir)
		if err != nil {
			return 0, fmt.Errorf("parse %s: %w", file, err)
		}
		e.extendLayerOrder(sheet.LayerOrder)
		e.Add(sheet.Rules...)
	}
	return len(files), nil
}

// RuleCount returns the number of registered rules.
func (e *RuleEngine) RuleCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.count
}

func (e *RuleEngine) extendLayerOrder(layers []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, l := range layers {
		if !slices.Contains(e.layerOrder, l) {
			e.layerOrder = append(e.layerOrder, l)
		}
	}
}

// Generate emits the rules of every used token, grouped by layer.
func (e *RuleEngine) Generate(ctx context.Context, tokens *Tokens, opts GenerateOptions) (Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.RLock()
	var matched []Rule
	for _, tok := range tokens.Sorted() {
		matched = append(matched, e.rules[tok]...)
	}
	order := slices.Clone(e.layerOrder)
	e.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Order < matched[j].Order
	})

	byLayer := make(map[string][]string)
	for _, r := range matched {
		byLayer[r.Layer] = append(byLayer[r.Layer], r.CSS())
	}

	res := &Generated{
		layers: make(map[string]string, len(byLayer)),
		minify: opts.Minify,
	}
	for layer, rules := range byLayer {
		css := "/* layer: " + layer + " */\n" + strings.Join(rules, "\n")
		if opts.Minify {
			css = Minify(css)
		}
		res.layers[layer] = css
		res.names = append(res.names, layer)
	}
	res.names = sortLayers(res.names, order)

	return res, nil
}

// Generated is the RuleEngine result.
type Generated struct {
	layers map[string]string
	names  []string
	minify bool
}

// Layer implements Result.
func (g *Generated) Layer(name string) (string, bool) {
	css, ok := g.layers[name]
	return css, ok
}

// Layers implements Result.
func (g *Generated) Layers(include, exclude []string) string {
	names := g.names
	if include != nil {
		names = make([]string, 0, len(include))
		for _, n := range g.names {
			if slices.Contains(include, n) {
				names = append(names, n)
			}
		}
	}

	parts := make([]string, 0, len(names))
	for _, n := range names {
		if slices.Contains(exclude, n) {
			continue
		}
		parts = append(parts, g.layers[n])
	}

	sep := "\n"
	if g.minify {
		sep = ""
	}
	return strings.Join(parts, sep)
}

// LayerNames returns the generated layers in order.
func (g *Generated) LayerNames() []string {
	return slices.Clone(g.names)
}

// sortLayers orders names by their position in order; unknown layers follow
// alphabetically.
func sortLayers(names, order []string) []string {
	rank := func(n string) int {
		if i := slices.Index(order, n); i >= 0 {
			return i
		}
		return len(order)
	}
	sort.Slice(names, func(i, j int) bool {
		ri, rj := rank(names[i]), rank(names[j])
		if ri != rj {
			return ri < rj
		}
		return names[i] < names[j]
	})
	return names
}

// scanStylesheets finds all stylesheets matching patterns
func scanStylesheets(sourceDir string, patterns []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		// Use doublestar for ** glob support
		matches, err := doublestar.FilepathGlob(filepath.Join(sourceDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("glob pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}

	return files, nil
}
