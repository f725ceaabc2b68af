package main

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/yacobolo/unoinject"
	"github.com/yacobolo/unoinject/internal/engine"
	"github.com/yacobolo/unoinject/internal/report"
	"github.com/yacobolo/unoinject/internal/sources"
)

// stylesheetImport finds quoted stylesheet specifiers; only the virtual
// entries among them resolve.
var stylesheetImport = regexp.MustCompile(`["'\x60]([^"'\x60\s]+\.css(?:\?[^"'\x60\s]*)?)["'\x60]`)

// session plays the host for one plugin instance: it feeds source files
// through the transform hook and resolves the virtual entries they import.
type session struct {
	settings settings
	logger   *zap.Logger
	scanner  *sources.Scanner
	engine   *engine.Context
	plugin   *unoinject.Plugin
	stats    sources.Stats
}

func newSession(s settings, logger *zap.Logger) (*session, error) {
	cfg, err := buildEngineConfig(s.Root)
	if err != nil {
		return nil, err
	}

	ectx, err := engine.Load(cfg)
	if err != nil {
		return nil, fmt.Errorf("loading engine: %w", err)
	}

	plugin, err := unoinject.New(ectx, unoinject.Options{
		CSSMode:        s.CSSMode,
		Platform:       s.Platform,
		UpdateDebounce: s.Debounce,
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}

	return &session{
		settings: s,
		logger:   logger,
		scanner:  sources.NewScanner(s.Root),
		engine:   ectx,
		plugin:   plugin,
	}, nil
}

// transformAll runs every configured source file through the plugin.
func (s *session) transformAll(ctx context.Context) error {
	files, stats, err := s.scanner.Expand(s.settings.Sources)
	if err != nil {
		return fmt.Errorf("expanding sources: %w", err)
	}
	s.stats = stats
	s.logger.Debug("sources discovered",
		zap.Int("scanned", stats.Scanned), zap.Int("skipped", stats.Skipped))

	for _, file := range files {
		if err := s.transformFile(ctx, file); err != nil {
			return err
		}
	}
	return nil
}

// transformFile resolves the entries a module imports and, when the module
// is included, transforms it.
func (s *session) transformFile(ctx context.Context, rel string) error {
	code, err := s.scanner.Read(rel)
	if err != nil {
		return fmt.Errorf("reading %s: %w", rel, err)
	}

	for _, m := range stylesheetImport.FindAllStringSubmatch(code, -1) {
		if id, ok := s.plugin.ResolveID(m[1]); ok {
			s.logger.Debug("entry resolved", zap.String("module", rel), zap.String("entry", id))
		}
	}

	if !s.plugin.TransformInclude(rel) {
		return nil
	}
	if _, err := s.plugin.Transform(ctx, code, rel); err != nil {
		return fmt.Errorf("transforming %s: %w", rel, err)
	}
	return nil
}

func (s *session) summary(pass *unoinject.Pass) report.Summary {
	sum := report.Summary{
		Pass:    pass,
		Sources: s.stats,
		Tokens:  s.engine.Tokens.Len(),
	}
	if re, ok := s.engine.Generator().(*engine.RuleEngine); ok {
		sum.Rules = re.RuleCount()
	}
	return sum
}

func (s *session) close() {
	_ = s.plugin.Close()
	_ = s.logger.Sync()
}
