package engine

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Transformer stages.
const (
	StagePre     = "pre"
	StageDefault = ""
	StagePost    = "post"
)

// Transformer rewrites module source before extraction.
type Transformer interface {
	Name() string
	// Enforce returns the stage the transformer runs in.
	Enforce() string
	// Transform returns the new code and whether anything changed.
	Transform(ctx context.Context, code, id string) (string, bool, error)
}

// TransformResult is the output of ApplyTransformers.
type TransformResult struct {
	Code string
}

// ApplyTransformers runs every transformer of the given stage in order and
// returns nil when none of them changed the code.
func ApplyTransformers(ctx context.Context, transformers []Transformer, code, id, stage string) (*TransformResult, error) {
	changed := false
	for _, t := range transformers {
		if t.Enforce() != stage {
			continue
		}

		out, ok, err := t.Transform(ctx, code, id)
		if err != nil {
			return nil, fmt.Errorf("transformer %s on %s: %w", t.Name(), id, err)
		}
		if ok {
			code = out
			changed = true
		}
	}

	if !changed {
		return nil, nil
	}
	return &TransformResult{Code: code}, nil
}

// variantGroupPattern matches "hover:(a b)" and "lg:hover:(a b)"
var variantGroupPattern = regexp.MustCompile(`((?:[\w!-]+:)+)\(([\w\s!:/.\[\]#%-]+?)\)`)

// VariantGroup expands variant groups: "hover:(bg-red text-white)" becomes
// "hover:bg-red hover:text-white".
type VariantGroup struct{}

// Name implements Transformer.
func (VariantGroup) Name() string { return "variant-group" }

// Enforce implements Transformer.
func (VariantGroup) Enforce() string { return StagePre }

// Transform implements Transformer.
func (VariantGroup) Transform(_ context.Context, code, _ string) (string, bool, error) {
	out := code
	// Groups may nest: "dark:(hover:(a b))"
	for range 5 {
		next := variantGroupPattern.ReplaceAllStringFunc(out, expandGroup)
		if next == out {
			break
		}
		out = next
	}
	return out, out != code, nil
}

func expandGroup(group string) string {
	m := variantGroupPattern.FindStringSubmatch(group)
	prefix, items := m[1], strings.Fields(m[2])

	expanded := make([]string, 0, len(items))
	for _, item := range items {
		expanded = append(expanded, prefix+item)
	}
	return strings.Join(expanded, " ")
}

// transformerRegistry maps configuration names to built-in transformers
var transformerRegistry = map[string]Transformer{
	VariantGroup{}.Name(): VariantGroup{},
}

// LookupTransformer returns the built-in transformer with the given name.
func LookupTransformer(name string) (Transformer, bool) {
	t, ok := transformerRegistry[name]
	return t, ok
}
