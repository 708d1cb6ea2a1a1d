package sketchprep

import (
	"bytes"
	"strings"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/sketchnb/sketchnb/internal/guard"
	"github.com/sketchnb/sketchnb/internal/pysyntax"
	"github.com/sketchnb/sketchnb/internal/reserved"
	"github.com/sketchnb/sketchnb/internal/source"
	"github.com/sketchnb/sketchnb/internal/splitsetup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prepare(t *testing.T, code string, options ...Option) (*Result, error) {
	t.Helper()
	return New(reserved.Default(), options...).Prepare(source.New("cell", code))
}

func TestStatic(t *testing.T) {
	r, err := prepare(t, "size(200, 100)\nbackground(0)\ncircle(width / 2, height / 2, 10)\n")
	require.NoError(t, err)
	assert.True(t, r.Static)
	assert.Nil(t, r.Module)
	assert.Equal(t, 3, r.NumLines)
	assert.Empty(t, r.Diagnostics)
	require.Len(t, r.Fragments(), 2)
	assert.Equal(t, EarlyPhase, r.Early.Phase)
	assert.Equal(t, "size(200, 100)", r.Early.Code)
	assert.Equal(t, LatePhase, r.Late.Phase)
	assert.Equal(t, "\nbackground(0)\ncircle(width() / 2, height() / 2, 10)", r.Late.Code)
	assert.Equal(t, "cell", r.Late.Filename)
	assert.Equal(t, 2, r.Late.Tree.Body[0].Pos().Line)
}

func TestStaticDefaultSettings(t *testing.T) {
	r, err := prepare(t, "# just drawing\nbackground(0)\n")
	require.NoError(t, err)
	assert.Equal(t, DefaultStaticSettings, r.Early.Code)

	r, err = prepare(t, "background(0)\n", WithDefaultSettings(""))
	require.NoError(t, err)
	assert.Equal(t, "", r.Early.Code)
	assert.Empty(t, r.Early.Tree.Body)
}

func TestReservedWords(t *testing.T) {
	code := "size = 3\nrect(0, 0, size, size)\n"
	r, err := prepare(t, code)
	require.NoError(t, err)
	require.Len(t, r.Diagnostics, 1)
	assert.Equal(t, 1, r.Diagnostics[0].Line)

	_, err = prepare(t, code, WithStrictReservedWords(true))
	var problems *ProblemsError
	require.True(t, errors.As(err, &problems))
	assert.True(t, IsUserError(err))
	assert.Equal(t, "ReservedWordProblems", problems.Name())
	msg := FormatError(err)
	lines := strings.Split(msg, "\n")
	assert.Equal(t, "There is a problem with your code.", lines[0])
	assert.Equal(t, strings.Repeat("=", len(lines[0])), lines[1])
	assert.Contains(t, lines[2], `reserved word "size" on line 1`)
}

func TestHostImport(t *testing.T) {
	var buf bytes.Buffer
	_, err := prepare(t, "import py5\nsize(1, 1)\n", WithReportImmediately(&buf))
	var rejected *guard.InputRejectedError
	require.True(t, errors.As(err, &rejected))
	assert.True(t, IsUserError(err))
	assert.Contains(t, buf.String(), `Importing "py5" on line 1`)
	assert.Equal(t, rejected.Error(), FormatError(err))
}

func TestSyntaxError(t *testing.T) {
	_, err := prepare(t, "size(1, 1)\nx = (\n")
	var syntaxErr *pysyntax.SyntaxError
	require.True(t, errors.As(err, &syntaxErr))
	assert.Equal(t, 2, syntaxErr.Line)
	assert.True(t, strings.HasPrefix(FormatError(err), "There is a problem with your code:\n  File \"cell\", line 2\n"))
}

func TestMisplaced(t *testing.T) {
	_, err := prepare(t, "background(0)\nsize(100, 100)\n")
	var misplaced *splitsetup.MisplacedCallError
	require.True(t, errors.As(err, &misplaced))
	assert.Equal(t, []splitsetup.SpecialCall{{Line: 2, Name: "size"}}, misplaced.Calls)
	assert.Contains(t, FormatError(err), "size (on line 2)")
	assert.False(t, IsUserError(errors.New("internal")))
	assert.Equal(t, "internal", strings.Split(FormatError(errors.New("internal")), "\n")[0])
}

func TestSketch(t *testing.T) {
	code := `def setup():
    size(200, 200)
    background(mouse_x)

def draw():
    circle(mouse_x, mouse_y, 5)
`
	r, err := prepare(t, code)
	require.NoError(t, err)
	assert.False(t, r.Static)
	require.Len(t, r.Fragments(), 3)
	assert.Equal(t, ModulePhase, r.Module.Phase)
	assert.Equal(t, strings.ReplaceAll(strings.ReplaceAll(code, "mouse_x", "mouse_x()"), "mouse_y", "mouse_y()"), r.Module.Code)

	assert.Equal(t, splitsetup.SettingsName, r.Early.FunctionName)
	assert.Equal(t, "def _py5_faux_settings():\n    size(200, 200)\n", r.Early.Code)
	assert.Equal(t, splitsetup.SetupName, r.Late.FunctionName)
	assert.Equal(t, "def _py5_faux_setup():\n\n    background(mouse_x())\n", r.Late.Code)

	// Sketches defining settings() are not split.
	r, err = prepare(t, "def settings():\n    size(10, 10)\n\ndef setup():\n    smooth()\n")
	require.NoError(t, err)
	assert.Nil(t, r.Early)
	assert.Nil(t, r.Late)
	require.Len(t, r.Fragments(), 1)

	// Nor are the ones whose setup() doesn't start with settings calls.
	r, err = prepare(t, "def setup():\n    background(0)\n")
	require.NoError(t, err)
	assert.Nil(t, r.Early)
}

func TestSketchSetupHeaders(t *testing.T) {
	for _, header := range []string{"def setup():  # init", "def setup() -> None:"} {
		r, err := prepare(t, header+"\n    size(100, 100)\n    background(0)\n")
		require.NoErrorf(t, err, "header %q", header)
		require.NotNil(t, r.Early)
		assert.Equal(t, "def _py5_faux_settings():\n    size(100, 100)\n", r.Early.Code)
		require.NotNil(t, r.Late)
		assert.Equal(t, "def _py5_faux_setup():\n\n    background(0)\n", r.Late.Code)
	}
}

func TestModuleMode(t *testing.T) {
	code := "import py5\n\ndef setup():\n    py5.size(100, 100)\n    width = py5.width\n"
	r, err := prepare(t, code, WithMode(source.ModuleMode))
	require.NoError(t, err)
	assert.Empty(t, r.Diagnostics)
	assert.Equal(t, code, r.Module.Code)
	assert.Equal(t, "\n\ndef _py5_faux_settings():\n    py5.size(100, 100)\n", r.Early.Code)
	assert.Equal(t, "\n\ndef _py5_faux_setup():\n\n    width = py5.width\n", r.Late.Code)

	p := New(reserved.Default(), WithMode(source.ModuleMode))
	assert.Equal(t, source.ModuleMode, p.Mode())
	r = must.M1(p.PrepareStatic(source.New("cell", "x = 1\n")))
	assert.Equal(t, "py5.size(100, 100, py5.HIDDEN)", r.Early.Code)
}

func TestFragmentTakeOnce(t *testing.T) {
	r, err := prepare(t, "size(10, 10)\nrect(0, 0, 5, 5)\n")
	require.NoError(t, err)
	code, err := r.Late.Take()
	require.NoError(t, err)
	assert.Equal(t, "\nrect(0, 0, 5, 5)", code)
	_, err = r.Late.Take()
	assert.ErrorIs(t, err, ErrAlreadyExecuted)
}

func TestIsStaticMode(t *testing.T) {
	for code, want := range map[string]bool{
		"size(10, 10)\n":                                 true,
		"def helper():\n    pass\n":                      true,
		"class A:\n    def setup(self):\n        pass\n": true,
		"def draw():\n    pass\n":                        false,
		"def settings():\n    size(1, 1)\n":              false,
		"def setup():\n    pass\n":                       false,
	} {
		tree := must.M1(pysyntax.Parse("cell", code))
		assert.Equalf(t, want, IsStaticMode(tree), "code %q", code)
	}
}
