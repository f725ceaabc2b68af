// Package main provides the unoinject CLI, which injects generated utility
// CSS into a built bundle.
package main

import (
	"fmt"
	"os"

	"github.com/yacobolo/unoinject/internal/report"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, report.RenderStyle(report.StyleRed, "Error: "+err.Error(), true))
		os.Exit(1)
	}
}
