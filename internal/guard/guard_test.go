package guard

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/sketchnb/sketchnb/internal/diag"
	"github.com/sketchnb/sketchnb/internal/pysyntax"
	"github.com/sketchnb/sketchnb/internal/reserved"
	"github.com/sketchnb/sketchnb/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scan(t *testing.T, g *Guard, code string) ([]diag.Diagnostic, error) {
	t.Helper()
	tree, diagnostics, err := g.Scan(source.New("test.py", code))
	if err == nil {
		require.NotNil(t, tree)
	}
	return diagnostics, err
}

func TestBenignShadowing(t *testing.T) {
	g := New(reserved.Default())
	diagnostics, err := scan(t, g, "def helper():\n    size = 10\n    return size\n")
	require.NoError(t, err)
	require.Len(t, diagnostics, 1)
	d := diagnostics[0]
	assert.Equal(t, diag.AssignmentToReserved, d.Kind)
	assert.Equal(t, "size", d.Word)
	assert.Equal(t, 2, d.Line)
	assert.Equal(t, 4, d.Col)
	assert.Equal(t, "    size = 10", d.SourceLine)
	assert.Equal(t, "py5", d.Host)
}

func TestKinds(t *testing.T) {
	code := `x = 1
frame_count, width = 1, 2
del width
def rect(a):
    for fill in range(3):
        print(fill, mouse_x)
async def ellipse():
    pass
if (stroke := 3):
    pass
class Shape:
    background: int = 0
`
	g := New(reserved.Default())
	diagnostics, err := scan(t, g, code)
	require.NoError(t, err)

	type found struct {
		kind      diag.Kind
		word      string
		line, col int
	}
	var got []found
	for _, d := range diagnostics {
		got = append(got, found{d.Kind, d.Word, d.Line, d.Col})
	}
	want := []found{
		{diag.AssignmentToReserved, "frame_count", 2, 0},
		{diag.AssignmentToReserved, "width", 2, 13},
		{diag.DeletionOfReserved, "width", 3, 4},
		{diag.ReservedFunctionDef, "rect", 4, 4},
		{diag.AssignmentToReserved, "fill", 5, 8},
		{diag.ReservedFunctionDef, "ellipse", 7, 10},
		{diag.AssignmentToReserved, "stroke", 9, 4},
		{diag.AssignmentToReserved, "background", 12, 4},
	}
	assert.Equal(t, want, got)
}

func TestPatternCaptures(t *testing.T) {
	code := `match value:
    case [size, *stroke]:
        pass
    case {"k": fill, **tint}:
        pass
    case Circle(r=width) as scale:
        pass
type rect = int
`
	diagnostics, err := scan(t, New(reserved.Default()), code)
	require.NoError(t, err)
	type found struct {
		word      string
		line, col int
	}
	var got []found
	for _, d := range diagnostics {
		assert.Equal(t, diag.AssignmentToReserved, d.Kind)
		got = append(got, found{d.Word, d.Line, d.Col})
	}
	want := []found{
		{"size", 2, 10}, {"stroke", 2, 17},
		{"fill", 4, 15}, {"tint", 4, 23},
		{"width", 6, 18}, {"scale", 6, 28},
		{"rect", 8, 5},
	}
	assert.Equal(t, want, got)
}

func TestReadsAreNotReported(t *testing.T) {
	g := New(reserved.Default())
	diagnostics, err := scan(t, g, "rect(0, 0, width, height)\nprint(mouse_x)\nx = size\n")
	require.NoError(t, err)
	assert.Empty(t, diagnostics)
}

func TestHostImportRejected(t *testing.T) {
	var buf bytes.Buffer
	g := New(reserved.Default(), WithReportImmediately(&buf))
	assert.True(t, g.ReportsImmediately())
	_, err := scan(t, g, "import py5\n")
	require.Error(t, err)
	var rejected *InputRejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, diag.ImportOfHostPackage, rejected.Diagnostic.Kind)
	assert.Equal(t, 1, rejected.Diagnostic.Line)
	assert.Equal(t, "InputRejected", rejected.Name())
	assert.Contains(t, err.Error(), `Importing "py5" on line 1 is not allowed`)
	assert.Equal(t, err.Error()+"\n", buf.String())
	assert.Len(t, rejected.Traceback(), 3)
}

func TestHostImportVariants(t *testing.T) {
	g := New(reserved.Default())
	for _, code := range []string{
		"import numpy as np, py5 as p\n",
		"from py5 import *\n",
		"from py5.bridge import Sketch\n",
		"import py5.image\n",
		"x = 1\nsize = 2\nif True:\n    import py5\n",
	} {
		diagnostics, err := scan(t, g, code)
		var rejected *InputRejectedError
		require.Truef(t, errors.As(err, &rejected), "code %q should be rejected", code)
		if code[0] == 'x' {
			// Problems found before the import are kept.
			require.Len(t, diagnostics, 1)
			assert.Equal(t, 4, rejected.Diagnostic.Line)
			assert.Equal(t, 4, rejected.Diagnostic.Col)
		}
	}

	for _, code := range []string{
		"import numpy as np\n",
		"import py5_tools\n",
		"from . import py5\n",
		"from .py5 import thing\n",
	} {
		_, err := scan(t, g, code)
		assert.NoErrorf(t, err, "code %q", code)
	}

	g = New(reserved.Default(), WithHostImportCheck(false))
	diagnostics, err := scan(t, g, "import py5\npy5.size(10, 10)\n")
	require.NoError(t, err)
	assert.Empty(t, diagnostics)
}

func TestReportImmediately(t *testing.T) {
	var buf bytes.Buffer
	g := New(reserved.Default(), WithReportImmediately(&buf))
	diagnostics, err := scan(t, g, "size = 1\nwidth = 2\n")
	require.NoError(t, err)
	require.Len(t, diagnostics, 2)
	assert.Equal(t, diagnostics[0].String()+"\n"+diagnostics[1].String()+"\n", buf.String())

	g = New(reserved.Default(), WithReportImmediately(nil))
	assert.False(t, g.ReportsImmediately())
}

func TestSyntaxError(t *testing.T) {
	g := New(reserved.Default())
	_, _, err := g.Scan(source.New("cell", "size = (\n"))
	var syntaxErr *pysyntax.SyntaxError
	require.True(t, errors.As(err, &syntaxErr))
	assert.Equal(t, 1, syntaxErr.Line)
}
