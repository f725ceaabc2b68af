// Package unoinject injects generated utility CSS into compiled bundle assets.
//
// Virtual stylesheet entries ("uno.css", "uno:<layer>.css") load as
// placeholder markers. Every transformed module is scanned for utility tokens
// in the background. When the host optimizes its assets the plugin waits for
// all extraction, generates the CSS once and substitutes each placeholder with
// the CSS of its layer, escaped for the string context it sits in.
//
// In style mode the CSS is written into a
// /* unocss-start */ ... /* unocss-end */ block of the emitted styles instead.
//
// During watch builds invalidations are debounced into one refresh of the
// virtual modules, each tagged with a content hash.
package unoinject

import (
	"github.com/yacobolo/unoinject/internal/assets"
	"github.com/yacobolo/unoinject/internal/engine"
	"github.com/yacobolo/unoinject/internal/vfs"
)

type (
	// Assets is the emitted asset map the barrier rewrites.
	Assets = assets.Map
	// VFS is the virtual module store served by the host.
	VFS = vfs.FS
	// Generator produces CSS for a token set.
	Generator = engine.Generator
	// Extractor finds candidate tokens in source code.
	Extractor = engine.Extractor
	// Transformer rewrites source code before extraction.
	Transformer = engine.Transformer
)
