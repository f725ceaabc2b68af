package engine

import (
	"context"
	"regexp"
)

// Extractor scans module code for utility tokens and merges them into tokens.
type Extractor interface {
	Extract(ctx context.Context, code, id string, tokens *Tokens) error
}

// splitPattern separates candidate tokens: quotes, backticks, whitespace,
// semicolons and braces, optionally preceded by an escaping backslash.
var splitPattern = regexp.MustCompile("\\\\?[\\s'\"`;{}]+")

// validToken accepts printable ASCII candidates only
var validToken = regexp.MustCompile(`^[!-~]+$`)

// SplitExtractor treats every word of the code as a candidate token. Tokens
// without a matching rule cost nothing at generation time.
type SplitExtractor struct{}

// Extract implements Extractor.
func (SplitExtractor) Extract(ctx context.Context, code, _ string, tokens *Tokens) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	parts := splitPattern.Split(code, -1)
	candidates := parts[:0]
	for _, p := range parts {
		if p != "" && validToken.MatchString(p) {
			candidates = append(candidates, p)
		}
	}

	tokens.Add(candidates...)
	return nil
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, code, id string, tokens *Tokens) error

// Extract implements Extractor.
func (f ExtractorFunc) Extract(ctx context.Context, code, id string, tokens *Tokens) error {
	return f(ctx, code, id, tokens)
}
