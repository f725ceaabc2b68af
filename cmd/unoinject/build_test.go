package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yacobolo/unoinject/internal/report"
)

const testConfig = `
engine:
  layers: [default, utilities]
  transformers: [variant-group]
  rules:
    - class: p-4
      css: "padding: 1rem"
    - class: hover:m-2
      css: "margin: 0.5rem"
      layer: utilities
`

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetKoanf()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetOut(nil) })

	err := rootCmd.Execute()
	return out.String(), err
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestBuildCommand_ImportMode(t *testing.T) {
	root := writeProject(t, map[string]string{
		".unoinject.yaml": testConfig,
		"src/main.ts":     "import 'uno.css'\nimport './app.css'\n",
		"src/App.tsx":     `export const App = () => <a className="p-4 hover:(m-2)" />`,
		"src/env.d.ts":    `declare const x: "hover:m-2"`,
		"dist/app.js":     `var css = "#--unocss-hash--{content:\"00000000\"}#--unocss--{layer:__ALL__}";`,
		"dist/vendor.js":  `var v = 1;`,
	})

	out, err := runCLI(t, "build",
		"--root", root,
		"--config", filepath.Join(root, ".unoinject.yaml"),
		"--css-mode", "import",
		"--output-format", "json")
	require.NoError(t, err)

	assert.Equal(t,
		`var css = ".p-4{padding:1rem;}.hover\\:m-2{margin:0.5rem;}";`,
		readFile(t, filepath.Join(root, "dist", "app.js")))
	assert.Equal(t, `var v = 1;`, readFile(t, filepath.Join(root, "dist", "vendor.js")))

	var result report.JSONOutput
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "import", result.Mode)
	assert.Equal(t, 2, result.Summary.AssetsScanned)
	assert.Equal(t, 1, result.Summary.AssetsChanged)
	assert.Equal(t, 2, result.Summary.SourcesScanned)
	assert.Equal(t, 1, result.Summary.SourcesSkipped)
	assert.Equal(t, 2, result.Summary.Rules)
	assert.Equal(t, []report.JSONAsset{{Name: "app.js", Placeholders: 1}}, result.Assets)
}

func TestBuildCommand_StyleMode(t *testing.T) {
	root := writeProject(t, map[string]string{
		".unoinject.yaml": testConfig,
		"src/App.vue":     `<view class="p-4"></view>`,
		"dist/app.wxss":   "page{}/* unocss-start */\n/* unocss-end */",
	})

	_, err := runCLI(t, "build",
		"--root", root,
		"--config", filepath.Join(root, ".unoinject.yaml"),
		"--css-mode", "style",
		"--output-format", "json")
	require.NoError(t, err)

	assert.Equal(t,
		"page{}/* unocss-start */.p-4{padding:1rem;}/* unocss-end */",
		readFile(t, filepath.Join(root, "dist", "app.wxss")))
}

func TestBuildCommand_MissingDist(t *testing.T) {
	root := writeProject(t, map[string]string{".unoinject.yaml": testConfig})

	_, err := runCLI(t, "build",
		"--root", root,
		"--config", filepath.Join(root, ".unoinject.yaml"),
		"--css-mode", "import",
		"--output-format", "json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dist")
}

func TestBuildCommand_InvalidCSSMode(t *testing.T) {
	root := writeProject(t, map[string]string{"dist/app.js": ""})

	_, err := runCLI(t, "build", "--root", root, "--css-mode", "inline")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid css mode")
}

func TestSession_TransformFileResolvesEntries(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/main.ts":  "import 'uno.css'\nimport \"virtual:uno:utilities.css?x\"\nimport('./lazy.css')\n",
		"src/page.css": "@import 'uno:base.css';",
	})

	resetKoanf()
	s, err := buildSettings()
	require.NoError(t, err)
	s.Root = root

	sess, err := newSession(s, nopLogger(t))
	require.NoError(t, err)
	defer sess.close()

	require.NoError(t, sess.transformFile(t.Context(), "src/main.ts"))
	require.NoError(t, sess.transformFile(t.Context(), "src/page.css"))

	assert.Equal(t, []string{"/__uno.css", "/__uno_utilities.css", "/__uno_base.css"}, sess.plugin.Entries())
}
