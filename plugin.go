package unoinject

import (
	"context"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/yacobolo/unoinject/internal/engine"
	"github.com/yacobolo/unoinject/internal/entry"
	"github.com/yacobolo/unoinject/internal/placeholder"
	"github.com/yacobolo/unoinject/internal/tasks"
	"github.com/yacobolo/unoinject/internal/vfs"
)

// Plugin is one injection instance, bound to one build session. All build
// state lives here: extraction tasks, known entries, module hashes and the
// debounce timer.
type Plugin struct {
	engine       *engine.Context
	opts         Options
	logger       *zap.Logger
	transformers []engine.Transformer
	rewriter     rewriter
	tasks        tasks.Registry
	debounce     *debouncer

	mu      sync.Mutex
	phase   Phase
	entries []string
	seen    map[string]struct{}
	hashes  map[string]string
	vfs     vfs.FS
}

// New creates a plugin over the engine context. Transformers that do not run
// in the pre stage are reported and ignored.
func New(ectx *engine.Context, opts Options) (*Plugin, error) {
	if _, err := ParseCSSMode(string(opts.CSSMode)); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	p := &Plugin{
		engine:   ectx,
		opts:     opts,
		logger:   opts.Logger.Named(PluginName),
		rewriter: newRewriter(opts),
		seen:     make(map[string]struct{}),
		hashes:   make(map[string]string),
	}

	var ignored []string
	for _, t := range ectx.Transformers {
		if t.Enforce() != engine.StagePre {
			ignored = append(ignored, t.Name())
			continue
		}
		p.transformers = append(p.transformers, t)
	}
	if len(ignored) > 0 {
		p.logger.Warn(`only "pre" enforce transformers are supported; the following transformers will be ignored`,
			zap.Strings("transformers", ignored))
	}

	p.debounce = newDebouncer(opts.UpdateDebounce, p.runUpdate)
	ectx.OnInvalidate(p.debounce.trigger)

	return p, nil
}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return PluginName
}

// Enforce returns the stage the plugin's transform runs in.
func (p *Plugin) Enforce() string {
	return engine.StagePre
}

// Mode returns the css mode in effect.
func (p *Plugin) Mode() CSSMode {
	return p.opts.CSSMode
}

// TransformInclude reports whether the module should be transformed.
func (p *Plugin) TransformInclude(id string) bool {
	if strings.HasSuffix(id, ".html") {
		return false
	}
	return p.engine.Filter == nil || p.engine.Filter.Match(id)
}

// Transform runs the pre transformers over code and registers the
// extraction of the result. The returned result is nil when no transformer
// changed the code. Extraction outlives ctx; it is joined by OptimizeAssets.
func (p *Plugin) Transform(ctx context.Context, code, id string) (*engine.TransformResult, error) {
	res, err := engine.ApplyTransformers(ctx, p.transformers, code, id, engine.StagePre)
	if err != nil {
		return nil, err
	}

	source := code
	if res != nil {
		source = res.Code
	}

	p.mu.Lock()
	if p.phase == PhaseIdle {
		p.phase = PhaseCollecting
	}
	p.mu.Unlock()

	p.tasks.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		return p.engine.Extract(ctx, source, id)
	})

	return res, nil
}

// ResolveID maps a requested virtual entry onto its canonical id, keeping
// the query. The entry is remembered for the rest of the session and, with a
// VFS attached, registered as a virtual module.
func (p *Plugin) ResolveID(id string) (string, bool) {
	e, ok := entry.ResolveID(id)
	if !ok {
		return "", false
	}

	p.mu.Lock()
	if _, known := p.seen[e]; !known {
		p.seen[e] = struct{}{}
		p.entries = append(p.entries, e)
	}
	fs := p.vfs
	p.mu.Unlock()

	if fs != nil {
		p.registerModule(fs, e)
	}

	return e + entry.Query(id), true
}

func (p *Plugin) registerModule(fs vfs.FS, e string) {
	moduleID := vfs.ModuleID(fs.Prefix(), e)
	if slices.Contains(fs.Modules(), moduleID) {
		return
	}

	code, _ := p.Load(e)
	if err := fs.WriteModule(moduleID, code); err != nil {
		p.logger.Error("register virtual module", zap.String("module", moduleID), zap.Error(err))
	}
}

// Load serves the placeholder content of a virtual entry: the hash
// placeholder, when a hash is known, followed by the layer placeholder.
// Style mode serves nothing.
func (p *Plugin) Load(id string) (string, bool) {
	if p.opts.CSSMode == CSSModeStyle {
		return "", false
	}

	path := p.modulePath(id)
	layer, ok := entry.ResolveLayer(path)
	if !ok {
		if e, resolved := entry.ResolveID(id); resolved {
			layer, ok = entry.ResolveLayer(e)
		}
	}
	if !ok {
		return "", false
	}

	p.mu.Lock()
	hash := p.hashes[path]
	p.mu.Unlock()

	code := placeholder.Layer(layer)
	if hash != "" {
		code = placeholder.Hash(hash) + code
	}
	return code, true
}

// modulePath strips the query and the VFS prefix from id.
func (p *Plugin) modulePath(id string) string {
	prefix := ""
	p.mu.Lock()
	if p.vfs != nil {
		prefix = p.vfs.Prefix()
	}
	p.mu.Unlock()

	return vfs.ModulePath(prefix, entry.Path(id))
}

// AttachVFS connects the virtual module store the host serves entries from.
func (p *Plugin) AttachVFS(fs vfs.FS) {
	p.mu.Lock()
	p.vfs = fs
	entries := slices.Clone(p.entries)
	p.mu.Unlock()

	for _, e := range entries {
		p.registerModule(fs, e)
	}
}

// Entries returns the known entries in discovery order.
func (p *Plugin) Entries() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.entries)
}

// Hash returns the last content hash computed for a virtual module path.
func (p *Plugin) Hash(path string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.hashes[path]
	return h, ok
}

// Phase returns the finalization state.
func (p *Plugin) Phase() Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phase
}

// Close ends the session: a pending live update is cancelled and later
// invalidations are ignored.
func (p *Plugin) Close() error {
	p.debounce.stop()
	return nil
}

func (p *Plugin) setPhase(phase Phase) {
	p.mu.Lock()
	p.phase = phase
	p.mu.Unlock()
}

// entryLayers maps the known entries to their layers, de-duplicated, in
// discovery order.
func (p *Plugin) entryLayers() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	layers := make([]string, 0, len(p.entries))
	for _, e := range p.entries {
		if l, ok := entry.ResolveLayer(e); ok && !slices.Contains(layers, l) {
			layers = append(layers, l)
		}
	}
	return layers
}
