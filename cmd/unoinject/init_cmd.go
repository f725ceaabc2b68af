package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default .unoinject.yaml config file",
	Long:  `Create a .unoinject.yaml configuration file in the current directory with sensible defaults.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		force, _ := cmd.Flags().GetBool("force")

		if _, err := os.Stat(defaultConfigPath); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", defaultConfigPath)
		}

		if err := os.WriteFile(defaultConfigPath, []byte(defaultConfig), 0o644); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", defaultConfigPath)
		return nil
	},
}

const defaultConfig = `# unoinject configuration

# Shared settings
root: .
css-mode: import        # import | style
# platform: app-plus    # style mode only, defaults to $UNI_PLATFORM
verbose: false

# Build settings
build:
  sources:
    - "src/**/*.{js,jsx,ts,tsx,mjs,vue,svelte,mdx,nvue}"
  dist: dist
  assets:
    - "**/*.{js,mjs,cjs,css,html,wxss,acss,ttss,qss,jxss}"
  output-format: text   # text | json

# Watch settings
watch:
  out-dir: .unoinject/modules
  debounce: 10ms

# CSS engine
engine:
  layers:
    - base
    - default
    - utilities
  stylesheet-dir: styles
  stylesheets:
    - "layers/**/*.css"
  transformers:
    - variant-group
  rules:
    - class: p-4
      css: "padding: 1rem"
    - class: m-2
      css: "margin: 0.5rem"
      layer: utilities
`

func init() {
	initCmd.Flags().Bool("force", false, "Overwrite existing config file")
}
