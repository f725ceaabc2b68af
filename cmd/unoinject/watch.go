package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yacobolo/unoinject/internal/vfs"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the virtual stylesheet modules up to date while sources change",
	Long: `Write one stylesheet per imported virtual entry into --out-dir and refresh
them whenever sources gain new utilities or the config file changes.
Rapid changes are debounced into a single refresh.`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: runWatch,
}

func init() {
	f := watchCmd.Flags()
	f.StringSlice("sources", nil, "Glob patterns of source modules, relative to --root")
	f.String("dist", "", "Bundle output directory, not watched (default dist)")
	f.String("out-dir", "", "Directory the virtual modules are written to (default .unoinject/modules)")
	f.Duration("debounce", 0, "Refresh debounce window (default 10ms)")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	s, err := buildSettings()
	if err != nil {
		return err
	}

	logger, err := newLogger(s.Verbose)
	if err != nil {
		return err
	}

	sess, err := newSession(s, logger)
	if err != nil {
		return err
	}
	defer sess.close()

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	modules := vfs.NewDir(sess.scanner.Abs(s.OutDir), vfs.DefaultPrefix)
	sess.plugin.AttachVFS(modules)

	if err := sess.transformAll(ctx); err != nil {
		return err
	}
	if err := sess.plugin.WaitExtraction(ctx); err != nil {
		return err
	}
	if err := sess.plugin.UpdateModules(ctx); err != nil {
		return err
	}

	watcher, err := sess.scanner.NewWatcher(s.Dist, s.OutDir)
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Stop()
	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}

	go func() {
		for err := range watcher.Errors() {
			logger.Warn("file system error", zap.Error(err))
		}
	}()

	path := configPath(cmd)
	if _, err := os.Stat(path); err == nil {
		fp := file.Provider(path)
		if err := fp.Watch(func(_ interface{}, err error) {
			if err != nil {
				logger.Warn("config watch", zap.Error(err))
				return
			}
			if err := sess.reload(path); err != nil {
				logger.Error("config reload", zap.Error(err))
				return
			}
			logger.Info("config reloaded", zap.String("path", path))
		}); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		defer fp.Unwatch()
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s, writing %s\n", s.Root, s.OutDir)

	for rel := range watcher.Events() {
		if err := sess.transformFile(ctx, rel); err != nil {
			logger.Warn("transform", zap.String("module", rel), zap.Error(err))
			continue
		}
		if err := sess.plugin.WaitExtraction(ctx); err != nil {
			logger.Warn("extraction", zap.String("module", rel), zap.Error(err))
		}
	}

	return nil
}

// reload rebuilds the engine from the config file and the environment.
// Flags are not reapplied; they only shape the session.
func (s *session) reload(path string) error {
	ko := koanf.New(".")
	if err := ko.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("loading config file %s: %w", path, err)
	}
	if err := ko.Load(env.Provider("UNOINJECT_", ".", envKey), nil); err != nil {
		return fmt.Errorf("loading environment variables: %w", err)
	}

	cfg, err := engineConfigFrom(ko, s.settings.Root)
	if err != nil {
		return err
	}
	return s.engine.Reload(cfg)
}
