package placeholder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayerRoundTrip(t *testing.T) {
	layers := []string{"default", LayerMarkAll, "base", "my-layer", "shortcuts"}

	contexts := []struct {
		name  string
		wrap  func(string) string
		quote string
	}{
		{
			name:  "raw code",
			wrap:  func(p string) string { return "a();" + p + "b();" },
			quote: QuoteNone,
		},
		{
			name:  "string literal",
			wrap:  func(p string) string { return `var css = "` + p + `";` },
			quote: QuoteDouble,
		},
		{
			name:  "escaped literal in eval",
			wrap:  func(p string) string { return `eval("var css = \"` + p + `\";")` },
			quote: QuoteEscaped,
		},
	}

	for _, c := range contexts {
		for _, layer := range layers {
			t.Run(c.name+"/"+layer, func(t *testing.T) {
				matches := FindLayers(c.wrap(Layer(layer)))
				require.Len(t, matches, 1)
				assert.Equal(t, layer, matches[0].Layer)
				assert.Equal(t, c.quote, matches[0].Quote)
			})
		}
	}
}

func TestFindLayers_Whitespace(t *testing.T) {
	matches := FindLayers(`#--unocss-- {layer: base;}`)
	require.Len(t, matches, 1)
	assert.Equal(t, "base", matches[0].Layer)
}

func TestFindLayers_None(t *testing.T) {
	assert.Nil(t, FindLayers("console.log('hello')"))
}

func TestQuote(t *testing.T) {
	tests := []struct {
		name  string
		css   string
		quote string
		want  string
	}{
		{
			name:  "raw",
			css:   `.a{content:"x"}`,
			quote: QuoteNone,
			want:  `.a{content:"x"}`,
		},
		{
			name:  "double quote escapes once",
			css:   `.a{content:"x"}`,
			quote: QuoteDouble,
			want:  `".a{content:\"x\"}`,
		},
		{
			name:  "escaped quote escapes twice",
			css:   `.a{content:"x"}`,
			quote: QuoteEscaped,
			want:  `\".a{content:\\\"x\\\"}`,
		},
		{
			name:  "newlines",
			css:   "a\nb",
			quote: QuoteDouble,
			want:  "\"a\\nb",
		},
		{
			name:  "html characters untouched",
			css:   ".a>.b{}",
			quote: QuoteDouble,
			want:  `".a>.b{}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Quote(tt.css, tt.quote))
		})
	}
}

func TestReplaceLayers(t *testing.T) {
	css := map[string]string{
		"default": `.p-4{padding:1rem;}`,
		"icons":   `.i::before{content:"x"}`,
	}
	resolve := func(layer string) string { return css[layer] }

	tests := []struct {
		name  string
		code  string
		want  string
		count int
	}{
		{
			name:  "raw",
			code:  "/*a*/" + Layer("default") + "/*b*/",
			want:  "/*a*/.p-4{padding:1rem;}/*b*/",
			count: 1,
		},
		{
			name:  "string literal",
			code:  `const css = "` + Layer("icons") + `";`,
			want:  `const css = ".i::before{content:\"x\"}";`,
			count: 1,
		},
		{
			name:  "eval",
			code:  `eval("const css = \"` + Layer("icons") + `\";")`,
			want:  `eval("const css = \".i::before{content:\\\"x\\\"}\";")`,
			count: 1,
		},
		{
			name:  "unknown layer becomes empty",
			code:  "x" + Layer("missing") + "y",
			want:  "xy",
			count: 1,
		},
		{
			name:  "several",
			code:  Layer("default") + "|" + Layer("default"),
			want:  ".p-4{padding:1rem;}|.p-4{padding:1rem;}",
			count: 2,
		},
		{
			name:  "clean text untouched",
			code:  "module.exports = {}",
			want:  "module.exports = {}",
			count: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n := ReplaceLayers(tt.code, resolve)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.count, n)
		})
	}
}

func TestStripHashes(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{
			name: "raw",
			code: Hash("ab12cd34") + Layer("default"),
			want: Layer("default"),
		},
		{
			name: "escaped quotes",
			code: `"#--unocss-hash--{content:\"ab12cd34\"}` + Layer("default") + `"`,
			want: `"` + Layer("default") + `"`,
		},
		{
			name: "no hash",
			code: "body{}",
			want: "body{}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripHashes(tt.code))
		})
	}
}
