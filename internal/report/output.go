package report

import (
	"io"
	"os"
)

// OutputFormat selects how a build is reported.
type OutputFormat string

const (
	OutputText  OutputFormat = "text"
	OutputJSON  OutputFormat = "json"
	OutputQuiet OutputFormat = "quiet"
)

// DetermineOutputFormat selects the appropriate output format based on flags
func DetermineOutputFormat(formatFlag string, quiet bool) OutputFormat {
	// Explicit -quiet flag wins (exit code only)
	if quiet {
		return OutputQuiet
	}

	switch formatFlag {
	case "text":
		return OutputText
	case "json":
		return OutputJSON
	default:
		// Invalid or empty format, fall through to the default
	}

	return DetermineDefaultOutputFormat()
}

// DetermineDefaultOutputFormat returns the default output format
func DetermineDefaultOutputFormat() OutputFormat {
	return OutputText
}

// WriteOutput writes the summary in the specified format
func WriteOutput(w io.Writer, s Summary, format OutputFormat, config Config) {
	switch format {
	case OutputQuiet:
		return

	case OutputText:
		reporter := NewReporter(w, config)
		if reporter.verbose {
			reporter.PrintAssets(s.Pass)
		}
		reporter.PrintSummary(s)

	case OutputJSON:
		if err := WriteJSON(w, s); err != nil {
			// Log error but don't crash
			os.Stderr.WriteString("Error writing JSON: " + err.Error() + "\n")
		}
	}
}
