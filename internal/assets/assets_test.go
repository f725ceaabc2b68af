package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	m := NewMemory(map[string]string{"b.js": "b", "a.css": "a"})

	assert.Equal(t, []string{"a.css", "b.js"}, m.Names())

	require.NoError(t, m.Update("a.css", "z"))
	src, err := m.Source("a.css")
	require.NoError(t, err)
	assert.Equal(t, "z", src)
	assert.Equal(t, 1, m.Updates("a.css"))
	assert.Equal(t, 0, m.Updates("b.js"))

	_, err = m.Source("missing.js")
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pages", "index"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "app.js"), []byte("js"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "pages", "index", "index.wxss"), []byte("wxss"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "logo.png"), []byte("png"), 0o644))

	d, err := NewDir(root, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"app.js", "pages/index/index.wxss"}, d.Names())

	src, err := d.Source("pages/index/index.wxss")
	require.NoError(t, err)
	assert.Equal(t, "wxss", src)

	require.NoError(t, d.Update("pages/index/index.wxss", "page{}"))
	info, err := os.Stat(filepath.Join(root, "pages", "index", "index.wxss"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	src, err = d.Source("pages/index/index.wxss")
	require.NoError(t, err)
	assert.Equal(t, "page{}", src)
}

func TestNewDir_Errors(t *testing.T) {
	_, err := NewDir(filepath.Join(t.TempDir(), "missing"), nil)
	require.Error(t, err)

	_, err = NewDir(t.TempDir(), []string{"[bad"})
	require.ErrorContains(t, err, "invalid asset pattern")
}
