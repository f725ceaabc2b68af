package report

import (
	"encoding/json"
	"io"
	"time"
)

// JSONOutput represents the structured JSON export schema
type JSONOutput struct {
	Version   string      `json:"version"`
	Timestamp string      `json:"timestamp"`
	Mode      string      `json:"mode"`
	Summary   JSONSummary `json:"summary"`
	Layers    []string    `json:"layers"`
	Assets    []JSONAsset `json:"assets"`
}

// JSONSummary contains the totals of a build
type JSONSummary struct {
	SourcesScanned int   `json:"sources_scanned"`
	SourcesSkipped int   `json:"sources_skipped"`
	Tokens         int   `json:"tokens"`
	Rules          int   `json:"rules"`
	AssetsScanned  int   `json:"assets_scanned"`
	AssetsChanged  int   `json:"assets_changed"`
	DurationMS     int64 `json:"duration_ms"`
}

// JSONAsset represents a single rewritten asset
type JSONAsset struct {
	Name         string `json:"name"`
	Placeholders int    `json:"placeholders"`
}

// WriteJSON writes the summary as JSON
func WriteJSON(w io.Writer, s Summary) error {
	output := buildJSONOutput(s)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// buildJSONOutput converts a Summary to JSONOutput
func buildJSONOutput(s Summary) JSONOutput {
	out := JSONOutput{
		Version:   "1.0",
		Timestamp: time.Now().Format(time.RFC3339),
		Summary: JSONSummary{
			SourcesScanned: s.Sources.Scanned,
			SourcesSkipped: s.Sources.Skipped,
			Tokens:         s.Tokens,
			Rules:          s.Rules,
		},
		Layers: []string{},
		Assets: []JSONAsset{},
	}

	if s.Pass == nil {
		return out
	}

	out.Mode = string(s.Pass.Mode)
	out.Summary.AssetsScanned = s.Pass.Scanned
	out.Summary.AssetsChanged = len(s.Pass.Rewritten)
	out.Summary.DurationMS = s.Pass.Duration.Milliseconds()
	if s.Pass.Layers != nil {
		out.Layers = s.Pass.Layers
	}
	for _, change := range s.Pass.Rewritten {
		out.Assets = append(out.Assets, JSONAsset{Name: change.Name, Placeholders: change.Placeholders})
	}

	return out
}
