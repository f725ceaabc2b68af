// Package engine holds the collaborators the injection pipeline drives: the
// shared token storage, the CSS generator, the extractor, source
// transformers and the invalidation bus, plus reference implementations of
// each.
package engine

import (
	"context"
	"fmt"
	"sync"
)

// Config is the engine configuration schema.
type Config struct {
	// Layers fixes the output order of layers. Layers declared by
	// stylesheets are appended.
	Layers []string `koanf:"layers"`
	// Rules are utility rules declared inline.
	Rules []RuleConfig `koanf:"rules"`
	// StylesheetDir is the root the Stylesheets patterns are relative to.
	StylesheetDir string `koanf:"stylesheet-dir"`
	// Stylesheets are glob patterns of CSS files whose class rules become
	// utilities.
	Stylesheets []string `koanf:"stylesheets"`
	// Transformers lists built-in transformers by name.
	Transformers []string `koanf:"transformers"`
	// Include and Exclude select the modules that are extracted.
	Include []string `koanf:"include"`
	Exclude []string `koanf:"exclude"`
}

// Context bundles the collaborators shared by one plugin instance.
type Context struct {
	Tokens       *Tokens
	Extractor    Extractor
	Transformers []Transformer
	Filter       *Filter

	mu        sync.RWMutex
	generator Generator
	listeners []func()
}

// NewContext builds a context around an arbitrary generator.
func NewContext(gen Generator, extractor Extractor, filter *Filter, transformers ...Transformer) *Context {
	return &Context{
		Tokens:       NewTokens(),
		Extractor:    extractor,
		Transformers: transformers,
		Filter:       filter,
		generator:    gen,
	}
}

// Load builds a context backed by a RuleEngine from cfg.
func Load(cfg Config) (*Context, error) {
	gen, err := buildEngine(cfg)
	if err != nil {
		return nil, err
	}

	filter, err := NewFilter(cfg.Include, cfg.Exclude)
	if err != nil {
		return nil, err
	}

	transformers, err := buildTransformers(cfg.Transformers)
	if err != nil {
		return nil, err
	}

	return NewContext(gen, SplitExtractor{}, filter, transformers...), nil
}

// Reload swaps the generator for one built from cfg and signals
// invalidation. Extracted tokens are kept.
func (c *Context) Reload(cfg Config) error {
	gen, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.generator = gen
	c.mu.Unlock()

	c.Invalidate()
	return nil
}

// Generate runs the current generator over the shared tokens.
func (c *Context) Generate(ctx context.Context, opts GenerateOptions) (Result, error) {
	c.mu.RLock()
	gen := c.generator
	c.mu.RUnlock()

	return gen.Generate(ctx, c.Tokens, opts)
}

// Generator returns the current generator.
func (c *Context) Generator() Generator {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generator
}

// Extract merges the tokens of one module. Growth of the token set signals
// invalidation.
func (c *Context) Extract(ctx context.Context, code, id string) error {
	before := c.Tokens.Len()
	if err := c.Extractor.Extract(ctx, code, id, c.Tokens); err != nil {
		return fmt.Errorf("extract %s: %w", id, err)
	}
	if c.Tokens.Len() > before {
		c.Invalidate()
	}
	return nil
}

// OnInvalidate registers fn to run on every invalidation.
func (c *Context) OnInvalidate(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Invalidate notifies every listener.
func (c *Context) Invalidate() {
	c.mu.RLock()
	listeners := append([]func(){}, c.listeners...)
	c.mu.RUnlock()

	for _, fn := range listeners {
		fn()
	}
}

func buildEngine(cfg Config) (*RuleEngine, error) {
	e := NewRuleEngine(cfg.Layers...)

	if len(cfg.Stylesheets) > 0 {
		if _, err := e.LoadStylesheets(cfg.StylesheetDir, cfg.Stylesheets); err != nil {
			return nil, fmt.Errorf("load stylesheets: %w", err)
		}
	}
	if err := e.AddConfigRules(cfg.Rules); err != nil {
		return nil, err
	}

	return e, nil
}

func buildTransformers(names []string) ([]Transformer, error) {
	out := make([]Transformer, 0, len(names))
	for _, name := range names {
		t, ok := LookupTransformer(name)
		if !ok {
			return nil, fmt.Errorf("unknown transformer %q", name)
		}
		out = append(out, t)
	}
	return out, nil
}
