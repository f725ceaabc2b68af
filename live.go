package unoinject

import (
	"context"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/zerr"
	"go.uber.org/zap"

	"github.com/yacobolo/unoinject/internal/engine"
	"github.com/yacobolo/unoinject/internal/entry"
	"github.com/yacobolo/unoinject/internal/vfs"
)

// ContentHash returns the short content hash of generated CSS.
func ContentHash(code string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(code))[:8]
}

// UpdateModules regenerates the CSS and rewrites every registered virtual
// module with the CSS of its layer, recording the content hash served by the
// next Load. Without an attached VFS it does nothing.
func (p *Plugin) UpdateModules(ctx context.Context) error {
	p.mu.Lock()
	fs := p.vfs
	p.mu.Unlock()
	if fs == nil {
		return nil
	}

	result, err := p.engine.Generate(ctx, engine.GenerateOptions{})
	if err != nil {
		return errors.Join(ErrGenerationFailed, err)
	}

	syn := &synthesis{result: result, entryLayers: p.entryLayers()}
	prefix := fs.Prefix()

	for _, id := range fs.Modules() {
		path := vfs.ModulePath(prefix, id)
		layer, ok := entry.ResolveLayer(path)
		if !ok {
			continue
		}

		code := syn.layer(layer)
		hash := ContentHash(code)

		p.mu.Lock()
		p.hashes[path] = hash
		p.mu.Unlock()

		if err := fs.WriteModule(id, code); err != nil {
			return zerr.With(err, "module", id)
		}
		p.logger.Debug("virtual module updated", zap.String("module", id), zap.String("hash", hash))
	}

	return nil
}

// runUpdate is the debounced invalidation handler.
func (p *Plugin) runUpdate() {
	if err := p.UpdateModules(context.Background()); err != nil {
		p.logger.Error("update virtual modules", zap.Error(err))
	}
}
