// Package report renders the outcome of an injection pass for terminals and
// machines.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/yacobolo/unoinject"
	"github.com/yacobolo/unoinject/internal/sources"
)

// Summary is everything a build reports.
type Summary struct {
	Pass    *unoinject.Pass
	Sources sources.Stats
	Tokens  int
	Rules   int
}

// Config controls terminal output.
type Config struct {
	UseColors bool
	Verbose   bool
}

// Reporter prints a Summary in a human-readable form.
type Reporter struct {
	w         io.Writer
	useColors bool
	verbose   bool
}

// NewReporter creates a new reporter with the given configuration
func NewReporter(w io.Writer, config Config) *Reporter {
	return &Reporter{
		w:         w,
		useColors: shouldUseColors(config),
		verbose:   config.Verbose,
	}
}

// shouldUseColors determines if colors should be enabled
func shouldUseColors(config Config) bool {
	// Explicit flag wins
	if config.UseColors {
		return true
	}

	// Check for FORCE_COLOR environment variable (GitHub Actions, etc.)
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}

	if os.Getenv("GITHUB_ACTIONS") == "true" {
		return true
	}

	// Auto-detect TTY
	if fileInfo, err := os.Stdout.Stat(); err == nil && (fileInfo.Mode()&os.ModeCharDevice) != 0 {
		return true
	}

	return false
}

// PrintAssets lists every rewritten asset.
func (r *Reporter) PrintAssets(pass *unoinject.Pass) {
	if pass == nil {
		return
	}

	for _, change := range pass.Rewritten {
		unit := "placeholder"
		if pass.Mode == unoinject.CSSModeStyle {
			unit = "style block"
		}
		fmt.Fprintf(r.w, "%s %s\n",
			RenderStyle(StyleCyan, change.Name+":", r.useColors),
			pluralizeCount(change.Placeholders, unit, unit+"s"))
	}
}

// PrintSummary outputs the totals of a build.
func (r *Reporter) PrintSummary(s Summary) {
	pass := s.Pass
	if pass == nil {
		pass = &unoinject.Pass{}
	}

	fmt.Fprintln(r.w, "")

	headline := fmt.Sprintf("Injected CSS into %s of %s (%s mode, %s)",
		pluralizeCount(len(pass.Rewritten), "asset", "assets"),
		pluralizeCount(pass.Scanned, "asset", "assets"),
		pass.Mode,
		pass.Duration.Round(time.Millisecond))

	style := StyleGreen
	if len(pass.Rewritten) == 0 {
		style = StyleYellow
	}
	fmt.Fprintln(r.w, RenderStyle(style, headline, r.useColors))

	fmt.Fprintf(r.w, "* sources: %d scanned", s.Sources.Scanned)
	if s.Sources.Skipped > 0 {
		fmt.Fprintf(r.w, " (%d generated/ignored skipped)", s.Sources.Skipped)
	}
	fmt.Fprintln(r.w)
	fmt.Fprintf(r.w, "* tokens: %d\n", s.Tokens)
	if r.verbose {
		fmt.Fprintf(r.w, "* rules: %d\n", s.Rules)
	}
	if len(pass.Layers) > 0 {
		fmt.Fprintf(r.w, "* layers: %s\n", strings.Join(pass.Layers, ", "))
	}

	if len(pass.Rewritten) == 0 {
		fmt.Fprintln(r.w, "")
		hint := `Hint: import "uno.css" from an entry module, or add a /* unocss-start */ /* unocss-end */ block in style mode`
		fmt.Fprintln(r.w, RenderStyle(StyleGray, hint, r.useColors))
	}
}

// pluralizeCount returns a formatted string with count and singular/plural form
func pluralizeCount(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}

// UseColors returns whether colors are enabled
func (r *Reporter) UseColors() bool {
	return r.useColors
}
