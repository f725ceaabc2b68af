package unoinject

import (
	"regexp"
	"strings"

	"github.com/yacobolo/unoinject/internal/engine"
	"github.com/yacobolo/unoinject/internal/placeholder"
)

// styleBlock captures the outermost unocss-start/unocss-end pair.
var styleBlock = regexp.MustCompile(`(?s)(/\*\s*unocss-start\s*\*/)(.*)(/\*\s*unocss-end\s*\*/)`)

// synthesis is the generated CSS of one pass.
type synthesis struct {
	result      engine.Result
	entryLayers []string
}

// layer returns the CSS for one layer. The ALL sentinel yields every layer not
// already served by a dedicated entry.
func (s *synthesis) layer(name string) string {
	if name == placeholder.LayerMarkAll {
		return s.all()
	}
	css, _ := s.result.Layer(name)
	return css
}

func (s *synthesis) all() string {
	return s.result.Layers(nil, s.entryLayers)
}

// rewriter injects the CSS of a pass into one asset. It returns the new text,
// the number of placeholders replaced and whether the asset changed.
type rewriter interface {
	rewrite(code string, syn *synthesis) (string, int, bool)
}

func newRewriter(opts Options) rewriter {
	if opts.CSSMode == CSSModeStyle {
		return styleRewriter{platform: opts.Platform}
	}
	return importRewriter{}
}

// importRewriter strips hash placeholders and replaces layer placeholders.
type importRewriter struct{}

func (importRewriter) rewrite(code string, syn *synthesis) (string, int, bool) {
	code = placeholder.StripHashes(code)
	code, n := placeholder.ReplaceLayers(code, syn.layer)
	return code, n, n > 0
}

// styleRewriter fills the first delimited style block with every layer.
type styleRewriter struct {
	platform string
}

func (r styleRewriter) rewrite(code string, syn *synthesis) (string, int, bool) {
	loc := styleBlock.FindStringSubmatchIndex(code)
	if loc == nil {
		return code, 0, false
	}

	css := syn.all()
	if r.platform == PlatformAppPlus {
		css = strings.Replace(css, "page", "body", 1)
	}

	var b strings.Builder
	b.Grow(len(code) + len(css))
	b.WriteString(code[:loc[3]])
	b.WriteString(css)
	b.WriteString(code[loc[6]:])
	out := b.String()

	return out, 1, out != code
}
