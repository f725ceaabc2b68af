package unoinject

import (
	"errors"

	"go.trai.ch/zerr"
)

var (
	// ErrExtractionFailed is returned when an extraction task of the current
	// pass failed.
	ErrExtractionFailed = zerr.New("extraction failed")

	// ErrGenerationFailed is returned when the CSS engine failed.
	ErrGenerationFailed = zerr.New("css generation failed")

	// ErrAssetRewrite is returned when an asset could not be read or written
	// back during finalization.
	ErrAssetRewrite = zerr.New("asset rewrite failed")

	// ErrInvalidCSSMode is returned for a css mode other than import or style.
	ErrInvalidCSSMode = zerr.New("invalid css mode, expected 'import' or 'style'")
)

func invalidMode(mode string) error {
	return errors.Join(ErrInvalidCSSMode, zerr.With(zerr.New("unknown mode"), "mode", mode))
}
