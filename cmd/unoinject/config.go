package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yacobolo/unoinject"
	"github.com/yacobolo/unoinject/internal/assets"
	"github.com/yacobolo/unoinject/internal/engine"
	"github.com/yacobolo/unoinject/internal/sources"
)

const defaultConfigPath = ".unoinject.yaml"

var k = koanf.New(".")

// loadConfig loads configuration with precedence: flags > env > file > defaults.
// It must be called after cobra parses flags (in PreRunE or RunE).
func loadConfig(cmd *cobra.Command) error {
	if err := loadConfigFromPath(configPath(cmd)); err != nil {
		return err
	}

	// 3. CLI flags (highest precedence). Without a koanf instance posflag
	// only loads flags that were explicitly set, so flag defaults never
	// shadow file or env values.
	if err := k.Load(posflag.Provider(cmd.Flags(), ".", nil), nil); err != nil {
		return fmt.Errorf("loading command flags: %w", err)
	}

	return nil
}

func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = defaultConfigPath
	}
	return path
}

// loadConfigFromPath loads configuration from a file and environment variables.
// This is separated from loadConfig to allow testing without a cobra command.
func loadConfigFromPath(configPath string) error {
	// 1. Config file (lowest precedence among providers)
	if _, err := os.Stat(configPath); err == nil {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return fmt.Errorf("loading config file %s: %w", configPath, err)
		}
	}

	// 2. Environment variables (UNOINJECT_* prefix)
	if err := k.Load(env.Provider("UNOINJECT_", ".", envKey), nil); err != nil {
		return fmt.Errorf("loading environment variables: %w", err)
	}

	return nil
}

// envKey maps a variable name onto a config key:
//
//	UNOINJECT_CSS_MODE      -> css-mode
//	UNOINJECT_BUILD_DIST    -> build.dist
//	UNOINJECT_WATCH_OUT_DIR -> watch.out-dir
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, "UNOINJECT_"))
	for _, section := range []string{"build", "watch", "engine"} {
		if rest, ok := strings.CutPrefix(s, section+"_"); ok {
			return section + "." + strings.ReplaceAll(rest, "_", "-")
		}
	}
	return strings.ReplaceAll(s, "_", "-")
}

// settings is the CLI configuration resolved from koanf state.
type settings struct {
	Root         string
	CSSMode      unoinject.CSSMode
	Platform     string
	Sources      []string
	Dist         string
	Assets       []string
	OutDir       string
	Debounce     time.Duration
	OutputFormat string
	Verbose      bool
	Quiet        bool
	Color        bool
}

// buildSettings constructs the CLI settings from koanf state.
func buildSettings() (settings, error) {
	mode, err := unoinject.ParseCSSMode(getStringWithFallback("css-mode", "css-mode", string(unoinject.CSSModeImport)))
	if err != nil {
		return settings{}, err
	}

	return settings{
		Root:         getStringWithFallback("root", "root", "."),
		CSSMode:      mode,
		Platform:     getStringWithFallback("platform", "platform", ""),
		Sources:      getStringsWithFallback("sources", "build.sources", sources.DefaultPatterns),
		Dist:         getStringWithFallback("dist", "build.dist", "dist"),
		Assets:       getStringsWithFallback("assets", "build.assets", assets.DefaultPatterns),
		OutDir:       getStringWithFallback("out-dir", "watch.out-dir", ".unoinject/modules"),
		Debounce:     getDurationWithFallback("debounce", "watch.debounce", unoinject.DefaultUpdateDebounce),
		OutputFormat: getStringWithFallback("output-format", "build.output-format", ""),
		Verbose:      getBoolWithFallback("verbose", "verbose", false),
		Quiet:        getBoolWithFallback("quiet", "quiet", false),
		Color:        getBoolWithFallback("color", "color", false),
	}, nil
}

// buildEngineConfig constructs the engine configuration from koanf state.
func buildEngineConfig(root string) (engine.Config, error) {
	return engineConfigFrom(k, root)
}

// engineConfigFrom decodes the engine section of ko. A relative stylesheet
// directory is resolved against root.
func engineConfigFrom(ko *koanf.Koanf, root string) (engine.Config, error) {
	var cfg engine.Config
	if err := ko.Unmarshal("engine", &cfg); err != nil {
		return cfg, fmt.Errorf("decoding engine config: %w", err)
	}

	if cfg.StylesheetDir == "" {
		cfg.StylesheetDir = root
	} else if !filepath.IsAbs(cfg.StylesheetDir) {
		cfg.StylesheetDir = filepath.Join(root, cfg.StylesheetDir)
	}

	return cfg, nil
}

// newLogger returns a development logger when verbose, and a no-op logger
// otherwise.
func newLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	return zap.NewDevelopment()
}

// getStringWithFallback checks the flag key first, then the config file key, then returns the default.
func getStringWithFallback(flagKey, configKey, defaultVal string) string {
	if v := k.String(flagKey); v != "" {
		return v
	}
	if v := k.String(configKey); v != "" {
		return v
	}
	return defaultVal
}

// getStringsWithFallback checks the flag key first, then the config file key, then returns the default.
func getStringsWithFallback(flagKey, configKey string, defaultVal []string) []string {
	if v := k.Strings(flagKey); len(v) > 0 {
		return v
	}
	if v := k.Strings(configKey); len(v) > 0 {
		return v
	}
	return defaultVal
}

// getBoolWithFallback checks the flag key first, then the config file key, then returns the default.
func getBoolWithFallback(flagKey, configKey string, defaultVal bool) bool {
	if k.Exists(flagKey) {
		return k.Bool(flagKey)
	}
	if k.Exists(configKey) {
		return k.Bool(configKey)
	}
	return defaultVal
}

// getDurationWithFallback checks the flag key first, then the config file key, then returns the default.
func getDurationWithFallback(flagKey, configKey string, defaultVal time.Duration) time.Duration {
	if k.Exists(flagKey) {
		return k.Duration(flagKey)
	}
	if k.Exists(configKey) {
		return k.Duration(configKey)
	}
	return defaultVal
}
