package unoinject

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.trai.ch/zerr"
	"go.uber.org/zap"

	"github.com/yacobolo/unoinject/internal/assets"
	"github.com/yacobolo/unoinject/internal/engine"
)

// Phase is the state of the finalization barrier.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCollecting
	PhaseAwaiting
	PhaseGenerating
	PhaseRewriting
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCollecting:
		return "collecting"
	case PhaseAwaiting:
		return "awaiting"
	case PhaseGenerating:
		return "generating"
	case PhaseRewriting:
		return "rewriting"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// AssetChange describes one rewritten asset.
type AssetChange struct {
	Name         string `json:"name"`
	Placeholders int    `json:"placeholders"`
}

// Pass summarises one run of the finalization barrier.
type Pass struct {
	Mode      CSSMode       `json:"mode"`
	Layers    []string      `json:"layers"`
	Scanned   int           `json:"scanned"`
	Rewritten []AssetChange `json:"rewritten"`
	Duration  time.Duration `json:"duration"`
}

// OptimizeAssets is the finalization barrier. It joins every extraction task
// registered so far, generates the CSS once and rewrites the assets that
// reference it. Only changed assets are written back.
func (p *Plugin) OptimizeAssets(ctx context.Context, list assets.Map) (*Pass, error) {
	start := time.Now()
	names := list.Names()

	p.setPhase(PhaseAwaiting)
	if err := p.WaitExtraction(ctx); err != nil {
		p.setPhase(PhaseIdle)
		return nil, err
	}

	p.setPhase(PhaseGenerating)
	result, err := p.engine.Generate(ctx, engine.GenerateOptions{Minify: true})
	if err != nil {
		p.setPhase(PhaseIdle)
		return nil, errors.Join(ErrGenerationFailed, err)
	}

	p.setPhase(PhaseRewriting)
	defer p.setPhase(PhaseIdle)

	syn := &synthesis{result: result, entryLayers: p.entryLayers()}
	pass := &Pass{Mode: p.opts.CSSMode}
	if g, ok := result.(*engine.Generated); ok {
		pass.Layers = g.LayerNames()
	}

	for _, name := range names {
		code, err := list.Source(name)
		if err != nil {
			return nil, errors.Join(ErrAssetRewrite, zerr.With(err, "asset", name))
		}
		pass.Scanned++

		rewritten, count, changed := p.rewriter.rewrite(code, syn)
		if !changed {
			continue
		}

		if err := list.Update(name, rewritten); err != nil {
			return nil, errors.Join(ErrAssetRewrite, zerr.With(err, "asset", name))
		}
		pass.Rewritten = append(pass.Rewritten, AssetChange{Name: name, Placeholders: count})
		p.logger.Debug("asset rewritten", zap.String("asset", name), zap.Int("placeholders", count))
	}

	pass.Duration = time.Since(start)
	return pass, nil
}

// WaitExtraction joins every extraction registered so far. Joined tasks are
// released, failed ones included, so hosts without a finalization pass can
// call it after each batch of transforms to keep the registry bounded.
func (p *Plugin) WaitExtraction(ctx context.Context) error {
	if err := p.tasks.Wait(ctx); err != nil {
		return errors.Join(ErrExtractionFailed, err)
	}
	return nil
}
