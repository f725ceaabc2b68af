package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yacobolo/unoinject/internal/assets"
	"github.com/yacobolo/unoinject/internal/report"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Inject generated CSS into built assets",
	Long: `Scan the sources for utility usage, then replace the CSS placeholders
(or the /* unocss-start */ ... /* unocss-end */ block in style mode) in the
bundle output directory.`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	},
	RunE: runBuild,
}

func init() {
	f := buildCmd.Flags()
	f.StringSlice("sources", nil, "Glob patterns of source modules, relative to --root")
	f.String("dist", "", "Bundle output directory, relative to --root (default dist)")
	f.StringSlice("assets", nil, "Glob patterns of assets to rewrite, relative to --dist")
	f.String("output-format", "", "Output format: text|json")
}

func runBuild(cmd *cobra.Command, _ []string) error {
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

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := sess.transformAll(ctx); err != nil {
		return err
	}

	dist, err := assets.NewDir(sess.scanner.Abs(s.Dist), s.Assets)
	if err != nil {
		return fmt.Errorf("opening %s: %w", s.Dist, err)
	}

	pass, err := sess.plugin.OptimizeAssets(ctx, dist)
	if err != nil {
		return err
	}

	format := report.DetermineOutputFormat(s.OutputFormat, s.Quiet)
	report.WriteOutput(cmd.OutOrStdout(), sess.summary(pass), format, report.Config{
		UseColors: s.Color,
		Verbose:   s.Verbose,
	})
	return nil
}
