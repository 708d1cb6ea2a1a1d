package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the sketchnb command with args and returns its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	rootCmd := NewRootCommand("12345678")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// writeFile writes content to name in a temporary directory and returns its path.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCheck(t *testing.T) {
	okPath := writeFile(t, "ok.py", "size(200, 200)\ncircle(width / 2, height / 2, 10)\n")
	out, err := run(t, "check", okPath)
	require.NoError(t, err)
	assert.Equal(t, okPath+": ok\n", out)

	shadowPath := writeFile(t, "shadow.py", "size = 3\nrect(0, 0, size, size)\n")
	out, err = run(t, "check", shadowPath)
	require.NoError(t, err)
	assert.Contains(t, out, `reserved word "size" on line 1`)

	out, err = run(t, "check", "--strict", shadowPath)
	require.Error(t, err)
	assert.True(t, IsReported(err))
	assert.Contains(t, out, "rejected")

	misplacedPath := writeFile(t, "misplaced.py", "background(0)\nsize(100, 100)\n")
	out, err = run(t, "check", okPath, misplacedPath)
	require.Error(t, err)
	assert.True(t, IsReported(err))
	assert.Contains(t, err.Error(), "1 of 2 file(s) rejected")
	assert.Contains(t, out, okPath+": ok\n")
	assert.Contains(t, out, "must be moved to the beginning of your code")

	importPath := writeFile(t, "import.py", "import py5\nrect(0, 0, 1, 1)\n")
	out, err = run(t, "check", importPath)
	require.Error(t, err)
	assert.Contains(t, out, `Importing "py5" on line 1`)

	// Module mode code imports the host package.
	out, err = run(t, "--mode", "module", "check", importPath)
	require.NoError(t, err)
	assert.Contains(t, out, ": ok")

	_, err = run(t, "check", filepath.Join(t.TempDir(), "missing.py"))
	require.Error(t, err)
	assert.False(t, IsReported(err))
}

func TestCheckImmediate(t *testing.T) {
	path := writeFile(t, "shadow.py", "width = 3\n")
	out, err := run(t, "check", "--immediate", path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, `reserved word "width"`))
}

func TestCheckHTML(t *testing.T) {
	path := writeFile(t, "shadow.py", "size = 3\nfill = 1\n")
	htmlPath := filepath.Join(t.TempDir(), "report.html")
	_, err := run(t, "check", "--html", htmlPath, path)
	require.NoError(t, err)
	html := string(must.M1(os.ReadFile(htmlPath)))
	assert.Contains(t, html, "sketchnb-err-line")
	assert.Contains(t, html, "fill")
}

func TestSplit(t *testing.T) {
	path := writeFile(t, "static.py", "size(200, 100)\nbackground(0)\ncircle(mouse_x, mouse_y, 5)\n")
	out, err := run(t, "split", path)
	require.NoError(t, err)
	want := "# --- settings: " + path + "\n" +
		"size(200, 100)\n" +
		"# --- setup: " + path + "\n" +
		"\nbackground(0)\ncircle(mouse_x(), mouse_y(), 5)\n"
	assert.Equal(t, want, out)

	path = writeFile(t, "sketch.py", "def setup():\n    size(200, 100)\n    background(0)\n\n\ndef draw():\n    circle(mouse_x, 1, 2)\n")
	out, err = run(t, "split", path)
	require.NoError(t, err)
	assert.Contains(t, out, "# --- module: "+path+"\n")
	assert.Contains(t, out, "(_py5_faux_settings)")
	assert.Contains(t, out, "(_py5_faux_setup)")
	assert.Contains(t, out, "circle(mouse_x(), 1, 2)")

	path = writeFile(t, "drawing.py", "background(0)\n")
	out, err = run(t, "split", "--no-default-settings", path)
	require.NoError(t, err)
	assert.NotContains(t, out, "HIDDEN")
}

func TestEmit(t *testing.T) {
	parent := t.TempDir()
	path := writeFile(t, "static.py", "size(200, 100)\nbackground(0)\n")
	out, err := run(t, "emit", "--dir", parent, path)
	require.NoError(t, err)
	framework := strings.TrimSpace(out)
	assert.Equal(t, filepath.Join(parent, "sketchnb_12345678", "_PY5_STATIC_FRAMEWORK_CODE_.py"), framework)
	assert.Contains(t, string(must.M1(os.ReadFile(framework))), "run_sketch(block=True)")

	// Without --keep the directory is removed.
	parent = t.TempDir()
	_, err = run(t, "emit", "--keep=false", "--dir", parent, path)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(parent, "sketchnb_12345678"))
	assert.True(t, os.IsNotExist(err))

	misplacedPath := writeFile(t, "misplaced.py", "background(0)\nsize(100, 100)\n")
	_, err = run(t, "emit", "--dir", t.TempDir(), misplacedPath)
	assert.True(t, IsReported(err))
}

func TestTranslate(t *testing.T) {
	src := writeFile(t, "sketch.py", "size(200, 200)\nrect(mouse_x, 10, 5, 5)\n")
	dest := filepath.Join(t.TempDir(), "out", "sketch.py")
	_, err := run(t, "translate", src, dest)
	require.NoError(t, err)
	translated := string(must.M1(os.ReadFile(dest)))
	assert.Contains(t, translated, "import py5\n")
	assert.Contains(t, translated, "py5.rect(py5.mouse_x, 10, 5, 5)")

	back := filepath.Join(t.TempDir(), "back.py")
	_, err = run(t, "translate", "--from", "module", dest, back)
	require.NoError(t, err)
	assert.Contains(t, string(must.M1(os.ReadFile(back))), "rect(mouse_x, 10, 5, 5)")

	destDir := t.TempDir()
	out, err := run(t, "translate", filepath.Dir(src), destDir)
	require.NoError(t, err)
	assert.Contains(t, out, "complete: translated 1 files")

	_, err = run(t, "translate", "--from", "java", src, dest)
	assert.Error(t, err)
}

func TestWords(t *testing.T) {
	out, err := run(t, "words", "--settings")
	require.NoError(t, err)
	assert.Equal(t, "full_screen\nno_smooth\npixel_density\nsize\nsmooth\n", out)

	out, err = run(t, "words", "--dynamic")
	require.NoError(t, err)
	assert.Contains(t, strings.Split(out, "\n"), "mouse_x")
	assert.NotContains(t, strings.Split(out, "\n"), "rect")

	out, err = run(t, "words")
	require.NoError(t, err)
	assert.Contains(t, strings.Split(out, "\n"), "rect")

	wordsPath := writeFile(t, "words.toml", `host_package = "mini"
settings_functions = ["size"]
event_functions = ["setup", "draw"]
dynamic_variables = ["tick"]
reserved_words = ["size", "tick", "dot"]
`)
	out, err = run(t, "--words", wordsPath, "words")
	require.NoError(t, err)
	assert.Equal(t, "dot\nsize\ntick\n", out)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version", "--short")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))

	out, err = run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "sketchnb version:")
}

func TestFlags(t *testing.T) {
	_, err := run(t, "--color", "sometimes", "words")
	assert.ErrorContains(t, err, "--color")

	_, err = run(t, "--mode", "script", "words", "--dynamic")
	require.NoError(t, err) // words doesn't depend on the mode.
	path := writeFile(t, "ok.py", "rect(0, 0, 1, 1)\n")
	_, err = run(t, "--mode", "script", "check", path)
	assert.ErrorContains(t, err, "only module mode and imported mode are supported")
}

func TestEmitSketch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sketch.py")
	code := "import helpers\n\n\ndef setup():\n    size(200, 100)\n\n\ndef draw():\n    helpers.dot()\n"
	require.NoError(t, os.WriteFile(path, []byte(code), 0644))
	helpers := "# PY5 IMPORTED MODE CODE\n\ndef dot():\n    point(width / 2, height / 2)\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "helpers.py"), []byte(helpers), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plain.py"), []byte("x = 1\n"), 0644))

	parent := t.TempDir()
	out, err := run(t, "emit", "--exit-if-error", "--dir", parent, path)
	require.NoError(t, err)
	workDir := filepath.Join(parent, "sketchnb_12345678")
	script := string(must.M1(os.ReadFile(strings.TrimSpace(out))))
	assert.Contains(t, script, "settings = _py5_faux_settings\n")
	assert.Contains(t, script, "if py5.is_dead_from_error:\n")

	loader := string(must.M1(os.ReadFile(filepath.Join(workDir, "helpers.py"))))
	assert.Contains(t, loader, "def height():\n    return get_current_sketch().height\n")
	assert.Contains(t, string(must.M1(os.ReadFile(filepath.Join(workDir, "_PY5_MODULE_helpers_CODE_.py")))),
		"point(width() / 2, height() / 2)")
	assert.NoFileExists(t, filepath.Join(workDir, "plain.py"))

	// Reserved words in imported modules are fatal.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "helpers.py"), []byte(helpers+"size = 3\n"), 0644))
	out, err = run(t, "emit", "--dir", t.TempDir(), path)
	require.Error(t, err)
	assert.True(t, IsReported(err))
	assert.Contains(t, out, `There is a problem with the imported "helpers" module.`)
}

func TestImportedModules(t *testing.T) {
	path := writeFile(t, "helpers.py", "# PY5 IMPORTED MODE CODE\nimport py5\n\ndef dot():\n    point(mouse_x, 1)\n")
	out, err := run(t, "check", path)
	require.NoError(t, err)
	assert.Equal(t, path+": ok\n", out)

	out, err = run(t, "split", path)
	require.NoError(t, err)
	assert.Contains(t, out, "# --- import: "+path+" (module helpers)\n")
	assert.Contains(t, out, "point(mouse_x(), 1)")

	path = writeFile(t, "bad.py", "# PY5 IMPORTED MODE CODE\nwidth = 1\n")
	out, err = run(t, "check", path)
	require.Error(t, err)
	assert.True(t, IsReported(err))
	assert.Contains(t, out, `There is a problem with the imported "bad" module.`)
}
