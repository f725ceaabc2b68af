package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitExtractor(t *testing.T) {
	tokens := NewTokens()
	code := "<div class=\"p-4 m-2\">{x ? 'flex' : `grid`}</div>"

	require.NoError(t, SplitExtractor{}.Extract(context.Background(), code, "a.tsx", tokens))

	for _, want := range []string{"p-4", "m-2", "flex", "grid"} {
		assert.True(t, tokens.Has(want), want)
	}
	assert.False(t, tokens.Has(""))
}

func TestSplitExtractor_Concurrent(t *testing.T) {
	tokens := NewTokens()

	var wg sync.WaitGroup
	for _, code := range []string{`"a b"`, `"b c"`, `"c d"`, `"d e"`} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = SplitExtractor{}.Extract(context.Background(), code, "x.js", tokens)
		}()
	}
	wg.Wait()

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, tokens.Sorted())
}

func TestTokens_Add(t *testing.T) {
	tokens := NewTokens()
	assert.Equal(t, 2, tokens.Add("a", "b", ""))
	assert.Equal(t, 1, tokens.Add("b", "c"))
	assert.Equal(t, 3, tokens.Len())
}

func TestVariantGroup(t *testing.T) {
	tests := []struct {
		name        string
		code        string
		want        string
		wantChanged bool
	}{
		{
			name:        "single group",
			code:        `class="hover:(bg-red text-white) p-4"`,
			want:        `class="hover:bg-red hover:text-white p-4"`,
			wantChanged: true,
		},
		{
			name:        "stacked variants",
			code:        `lg:hover:(a b)`,
			want:        `lg:hover:a lg:hover:b`,
			wantChanged: true,
		},
		{
			name:        "nested groups",
			code:        `dark:(hover:(a b))`,
			want:        `dark:hover:a dark:hover:b`,
			wantChanged: true,
		},
		{
			name:        "no groups",
			code:        `const x = y - (z)`,
			want:        `const x = y - (z)`,
			wantChanged: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed, err := VariantGroup{}.Transform(context.Background(), tt.code, "a.tsx")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantChanged, changed)
		})
	}
}

type stubTransformer struct {
	name    string
	enforce string
	fn      func(code string) (string, bool, error)
}

func (s stubTransformer) Name() string    { return s.name }
func (s stubTransformer) Enforce() string { return s.enforce }
func (s stubTransformer) Transform(_ context.Context, code, _ string) (string, bool, error) {
	return s.fn(code)
}

func TestApplyTransformers(t *testing.T) {
	upper := stubTransformer{name: "append", enforce: StagePre, fn: func(code string) (string, bool, error) {
		return code + " pre", true, nil
	}}
	post := stubTransformer{name: "post", enforce: StagePost, fn: func(code string) (string, bool, error) {
		return code + " post", true, nil
	}}
	noop := stubTransformer{name: "noop", enforce: StagePre, fn: func(code string) (string, bool, error) {
		return code, false, nil
	}}

	res, err := ApplyTransformers(context.Background(), []Transformer{upper, post}, "code", "a.ts", StagePre)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "code pre", res.Code)

	res, err = ApplyTransformers(context.Background(), []Transformer{noop, post}, "code", "a.ts", StagePre)
	require.NoError(t, err)
	assert.Nil(t, res)

	failing := stubTransformer{name: "bad", enforce: StagePre, fn: func(string) (string, bool, error) {
		return "", false, errors.New("boom")
	}}
	_, err = ApplyTransformers(context.Background(), []Transformer{failing}, "code", "a.ts", StagePre)
	require.ErrorContains(t, err, "transformer bad on a.ts")
}

func TestLookupTransformer(t *testing.T) {
	tr, ok := LookupTransformer("variant-group")
	require.True(t, ok)
	assert.Equal(t, StagePre, tr.Enforce())

	_, ok = LookupTransformer("attributify")
	assert.False(t, ok)
}
