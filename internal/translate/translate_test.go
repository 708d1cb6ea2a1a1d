package translate

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/sketchnb/sketchnb/internal/reserved"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens(t *testing.T) {
	var tokens []string
	forEachToken("py5.rect(x1, 2.5)  # é", func(token string, isWord bool) {
		tokens = append(tokens, token)
	})
	assert.Equal(t, []string{"py5.rect", "(", "x1", ",", " ", "2.5", ")", " ", " ", "#", " ", "é"}, tokens)
}

func TestImportedToModule(t *testing.T) {
	tr := ImportedToModule(reserved.Default())
	code := "def setup():\n    size(200, 200)\n    rect(mouse_x, 10, width, 5)  # width here\n    print('width', \"it's height\")\n"
	want := "import py5\n\n\ndef setup():\n    py5.size(200, 200)\n    py5.rect(py5.mouse_x, 10, py5.width, 5)  # width here\n" +
		"    print('width', \"it's height\")\n\n\n\npy5.run_sketch()\n"
	assert.Equal(t, want, tr.Code(code))

	// Nothing is added if already there.
	code = "import py5\n\nfill(255)\nrun_sketch()\n"
	assert.Equal(t, "import py5\n\npy5.fill(255)\npy5.run_sketch()\n", tr.Code(code))
}

func TestModuleToImported(t *testing.T) {
	tr := ModuleToImported(reserved.Default())
	code := "import py5\n\npy5.size(1, 1)\nx = py5.width  # py5.width\npy5.run_sketch()\n"
	assert.Equal(t, "\n\nsize(1, 1)\nx = width  # py5.width\n\n", tr.Code(code))

	// Round trip.
	imported := "def draw():\n    circle(mouse_x, mouse_y, 10)\n"
	module := ImportedToModule(reserved.Default()).Code(imported)
	assert.Equal(t, imported, strings.TrimSpace(tr.Code(module))+"\n")
}

func TestProcessingPyToImported(t *testing.T) {
	tr := ProcessingPyToImported()
	code := `def setup():
    size(640, 360)
    noStroke()
    v = PVector(1, 2)
    println(HALF_PI, 0xFF00FF, mouseX, True)
    # keepThis
    s = 'noFill'
    getHTTPResponseCode(self.myVar)
`
	want := `def setup():
    size(640, 360)
    no_stroke()
    v = Py5Vector(1, 2)
    print(HALF_PI, 0xFF00FF, mouse_x, True)
    # keepThis
    s = 'noFill'
    get_http_response_code(self.my_var)
`
	assert.Equal(t, want, tr.Code(code))
}

func TestDir(t *testing.T) {
	src := t.TempDir()
	dest := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.py"), []byte("size(10, 10)\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "sub", "b.py"), []byte("import py5\nrect(0, 0, 1, 1)\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "notes.txt"), []byte("size(10, 10)\n"), 0644))

	var out bytes.Buffer
	count, err := ImportedToModule(reserved.Default()).Dir(context.Background(), src, dest, "", &out)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	got := string(must.M1(os.ReadFile(filepath.Join(dest, "sub", "b.py"))))
	assert.Equal(t, "import py5\npy5.rect(0, 0, 1, 1)\n\n\n\npy5.run_sketch()\n", got)
	assert.FileExists(t, filepath.Join(dest, "a.py"))
	assert.NoFileExists(t, filepath.Join(dest, "notes.txt"))

	report := out.String()
	assert.True(t, strings.HasPrefix(report, "translating code in "+src+"\n"))
	assert.Contains(t, report, "translated "+filepath.Join("sub", "b.py")+"\n")
	assert.Contains(t, report, "complete: translated 2 files written to output directory "+dest+"\n")
}

func TestDirProcessing(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "sketch.pyde"), []byte("background(0)\nnoLoop()\n"), 0644))
	var out bytes.Buffer
	count, err := ProcessingPyToImported().Dir(context.Background(), src, dest, "", &out)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, "background(0)\nno_loop()\n", string(must.M1(os.ReadFile(filepath.Join(dest, "sketch.py")))))

	_, err = ProcessingPyToImported().Dir(context.Background(), filepath.Join(src, "missing"), dest, "", &out)
	assert.Error(t, err)
}

func TestDirCanceled(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.py"), []byte("x = 1\n"), 0644))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ModuleToImported(reserved.Default()).Dir(ctx, src, t.TempDir(), "", &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}
