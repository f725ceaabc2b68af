package unoinject

import (
	"os"
	"time"

	"go.uber.org/zap"
)

// CSSMode selects how generated CSS reaches the bundle.
type CSSMode string

const (
	// CSSModeImport substitutes placeholders emitted by the virtual entries.
	CSSModeImport CSSMode = "import"
	// CSSModeStyle fills a /* unocss-start */ ... /* unocss-end */ block in
	// the emitted styles. Virtual entries serve no placeholders.
	CSSModeStyle CSSMode = "style"
)

const (
	// PluginName identifies the plugin to the host.
	PluginName = "unoinject"

	// DefaultUpdateDebounce collapses bursts of invalidations.
	DefaultUpdateDebounce = 10 * time.Millisecond

	// PlatformEnv names the target platform variable consulted in style mode.
	PlatformEnv = "UNI_PLATFORM"
	// PlatformAppPlus renders styles in a webview where "page" is "body".
	PlatformAppPlus = "app-plus"
)

// Options configures a Plugin.
type Options struct {
	// CSSMode defaults to CSSModeImport.
	CSSMode CSSMode
	// Platform is the target platform. In style mode it defaults to
	// $UNI_PLATFORM.
	Platform string
	// UpdateDebounce defaults to DefaultUpdateDebounce.
	UpdateDebounce time.Duration
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.CSSMode == "" {
		o.CSSMode = CSSModeImport
	}
	if o.CSSMode == CSSModeStyle && o.Platform == "" {
		o.Platform = os.Getenv(PlatformEnv)
	}
	if o.UpdateDebounce <= 0 {
		o.UpdateDebounce = DefaultUpdateDebounce
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// ParseCSSMode validates a user-supplied mode. Empty selects the default.
func ParseCSSMode(s string) (CSSMode, error) {
	switch CSSMode(s) {
	case "":
		return CSSModeImport, nil
	case CSSModeImport, CSSModeStyle:
		return CSSMode(s), nil
	}
	return "", invalidMode(s)
}
