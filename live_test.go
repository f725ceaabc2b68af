package unoinject

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yacobolo/unoinject/internal/engine"
	"github.com/yacobolo/unoinject/internal/vfs"
)

// recordingFS counts module writes.
type recordingFS struct {
	*vfs.Memory

	mu     sync.Mutex
	writes map[string]int
	fail   error
}

func newRecordingFS() *recordingFS {
	return &recordingFS{Memory: vfs.NewMemory(vfs.DefaultPrefix), writes: make(map[string]int)}
}

func (r *recordingFS) WriteModule(id, code string) error {
	r.mu.Lock()
	r.writes[id]++
	fail := r.fail
	r.mu.Unlock()
	if fail != nil {
		return fail
	}
	return r.Memory.WriteModule(id, code)
}

func (r *recordingFS) count(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes[id]
}

func (r *recordingFS) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = make(map[string]int)
}

func TestContentHash(t *testing.T) {
	h := ContentHash(".p-4{padding:1rem;}")
	assert.Len(t, h, 8)
	assert.Regexp(t, `^[0-9a-f]{8}$`, h)
	assert.Equal(t, h, ContentHash(".p-4{padding:1rem;}"))
	assert.NotEqual(t, h, ContentHash(".p-4{padding:2rem;}"))
}

func TestUpdateModules_WithoutVFS(t *testing.T) {
	p, ectx := newTestPlugin(t, Options{})
	ectx.Tokens.Add("p-4")

	require.NoError(t, p.UpdateModules(context.Background()))
	_, ok := p.Hash("/__uno.css")
	assert.False(t, ok)
}

func TestUpdateModules_WritesLayersAndHashes(t *testing.T) {
	p, ectx := newTestPlugin(t, Options{})
	fs := newRecordingFS()
	p.AttachVFS(fs)

	for _, id := range []string{"uno.css", "uno:utilities.css"} {
		_, ok := p.ResolveID(id)
		require.True(t, ok)
	}
	// Not an entry; skipped.
	require.NoError(t, fs.Memory.WriteModule("_virtual_/shim.js", "export {}"))

	ectx.Tokens.Add("p-4", "m-2")
	require.NoError(t, p.UpdateModules(context.Background()))

	all, ok := fs.ReadModule("_virtual_/__uno.css")
	require.True(t, ok)
	assert.Equal(t, "/* layer: default */\n.p-4{padding:1rem;}", all)

	utilities, ok := fs.ReadModule("_virtual_/__uno_utilities.css")
	require.True(t, ok)
	assert.Equal(t, "/* layer: utilities */\n.m-2{margin:0.5rem;}", utilities)

	shim, _ := fs.ReadModule("_virtual_/shim.js")
	assert.Equal(t, "export {}", shim)

	hash, ok := p.Hash("/__uno.css")
	require.True(t, ok)
	assert.Equal(t, ContentHash(all), hash)

	// The next load serves the hash ahead of the layer placeholder.
	code, ok := p.Load("_virtual_/__uno.css")
	require.True(t, ok)
	assert.Equal(t, `#--unocss-hash--{content:"`+hash+`"}#--unocss--{layer:__ALL__}`, code)
}

func TestUpdateModules_WriteFailure(t *testing.T) {
	p, ectx := newTestPlugin(t, Options{})
	fs := newRecordingFS()
	p.AttachVFS(fs)
	_, _ = p.ResolveID("uno.css")

	fs.fail = errors.New("disk full")
	ectx.Tokens.Add("p-4")

	err := p.UpdateModules(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "disk full")
}

func TestLiveUpdate_DebouncesInvalidations(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		p, ectx := newTestPlugin(t, Options{})
		fs := newRecordingFS()
		p.AttachVFS(fs)
		_, _ = p.ResolveID("uno.css")
		fs.reset()

		for _, tok := range []string{"x", "y", "z", "w", "p-4"} {
			ectx.Tokens.Add(tok)
			ectx.Invalidate()
			time.Sleep(2 * time.Millisecond)
		}

		assert.Zero(t, fs.count("_virtual_/__uno.css"))

		time.Sleep(DefaultUpdateDebounce)
		synctest.Wait()

		assert.Equal(t, 1, fs.count("_virtual_/__uno.css"))
		code, _ := fs.ReadModule("_virtual_/__uno.css")
		assert.Equal(t, "/* layer: default */\n.p-4{padding:1rem;}", code)
	})
}

func TestLiveUpdate_ExtractionTriggersUpdate(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		p, _ := newTestPlugin(t, Options{UpdateDebounce: 50 * time.Millisecond})
		fs := newRecordingFS()
		p.AttachVFS(fs)
		_, _ = p.ResolveID("uno.css")
		fs.reset()

		_, err := p.Transform(context.Background(), `<b class="p-4">`, "src/a.tsx")
		require.NoError(t, err)
		synctest.Wait()
		assert.Zero(t, fs.count("_virtual_/__uno.css"))

		time.Sleep(50 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, 1, fs.count("_virtual_/__uno.css"))
	})
}

func TestLiveUpdate_CloseCancelsPendingUpdate(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		p, ectx := newTestPlugin(t, Options{})
		fs := newRecordingFS()
		p.AttachVFS(fs)
		_, _ = p.ResolveID("uno.css")
		fs.reset()

		ectx.Invalidate()
		require.True(t, p.debounce.pending())
		require.NoError(t, p.Close())
		assert.False(t, p.debounce.pending())

		ectx.Invalidate()
		time.Sleep(time.Second)
		synctest.Wait()

		assert.Zero(t, fs.count("_virtual_/__uno.css"))
	})
}

func TestUpdateModules_HashesFollowOwnLayer(t *testing.T) {
	p, ectx := newTestPlugin(t, Options{})
	fs := newRecordingFS()
	p.AttachVFS(fs)

	for _, id := range []string{"uno:default.css", "uno:utilities.css"} {
		_, ok := p.ResolveID(id)
		require.True(t, ok)
	}

	hashes := func() (string, string) {
		t.Helper()
		require.NoError(t, p.UpdateModules(context.Background()))
		def, ok := p.Hash("/__uno_default.css")
		require.True(t, ok)
		util, ok := p.Hash("/__uno_utilities.css")
		require.True(t, ok)
		return def, util
	}

	ectx.Tokens.Add("p-4", "m-2")
	def, util := hashes()

	// Same tokens, same hashes.
	again, utilAgain := hashes()
	assert.Equal(t, def, again)
	assert.Equal(t, util, utilAgain)

	// A utilities-only token moves only the utilities hash.
	ectx.Tokens.Add("page-bg")
	defAfter, utilAfter := hashes()
	assert.Equal(t, def, defAfter)
	assert.NotEqual(t, util, utilAfter)

	code, ok := p.Load("_virtual_/__uno_utilities.css")
	require.True(t, ok)
	assert.Equal(t, `#--unocss-hash--{content:"`+utilAfter+`"}#--unocss--{layer:utilities}`, code)

	// Another instance given the same tokens hashes identically.
	other, otherCtx := newTestPlugin(t, Options{})
	other.AttachVFS(newRecordingFS())
	_, _ = other.ResolveID("uno:default.css")
	otherCtx.Tokens.Add("p-4", "m-2", "page-bg")
	require.NoError(t, other.UpdateModules(context.Background()))
	otherDef, ok := other.Hash("/__uno_default.css")
	require.True(t, ok)
	assert.Equal(t, defAfter, otherDef)
}

func TestUpdateModules_AfterWaitExtraction(t *testing.T) {
	ectx := newTestContext(t)
	ectx.Extractor = engine.ExtractorFunc(func(ctx context.Context, code, id string, tokens *engine.Tokens) error {
		time.Sleep(10 * time.Millisecond)
		return engine.SplitExtractor{}.Extract(ctx, code, id, tokens)
	})
	p, err := New(ectx, Options{UpdateDebounce: time.Hour})
	require.NoError(t, err)
	defer p.Close()

	fs := newRecordingFS()
	p.AttachVFS(fs)
	_, _ = p.ResolveID("uno.css")

	_, err = p.Transform(context.Background(), `<b class="p-4">`, "src/a.tsx")
	require.NoError(t, err)

	require.NoError(t, p.WaitExtraction(context.Background()))
	require.NoError(t, p.UpdateModules(context.Background()))

	code, ok := fs.ReadModule("_virtual_/__uno.css")
	require.True(t, ok)
	assert.Equal(t, "/* layer: default */\n.p-4{padding:1rem;}", code)
}
