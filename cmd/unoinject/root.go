package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "unoinject",
	Short: "Inject generated utility CSS into built bundles",
	Long: `Sources import virtual stylesheets ("uno.css", "uno:<layer>.css") that
compile to placeholders. unoinject extracts the utilities every source uses,
generates their CSS once and substitutes each placeholder in the bundle.`,
	// Default behavior: run build when no subcommand is given.
	// We must call loadConfig here because PreRunE of buildCmd
	// is not triggered when delegating via rootCmd.RunE.
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := loadConfig(cmd); err != nil {
			return err
		}
		return runBuild(cmd, nil)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Global persistent flags (inherited by all subcommands)
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().Bool("quiet", false, "Suppress all output (exit code only)")
	rootCmd.PersistentFlags().Bool("color", false, "Force color output")
	rootCmd.PersistentFlags().String("config", defaultConfigPath, "Config file path")
	rootCmd.PersistentFlags().String("root", "", "Project root (default .)")
	rootCmd.PersistentFlags().String("css-mode", "", "CSS mode: import|style (default import)")
	rootCmd.PersistentFlags().String("platform", "", "Target platform, consulted in style mode (default $UNI_PLATFORM)")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(completionCmd)
	rootCmd.AddCommand(versionCmd)
}
