package diag

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessages(t *testing.T) {
	d := Diagnostic{Kind: AssignmentToReserved, Word: "size", Host: "py5", Line: 2, Col: 4, SourceLine: "    size = 10"}
	assert.Equal(t, `Assignment to py5 reserved word "size" on line 2 is discouraged and may cause errors in your sketch.`, d.Message())
	assert.Equal(t, d.Message()+"\n    size = 10\n    ^", d.String())

	d = Diagnostic{Kind: DeletionOfReserved, Word: "width", Host: "py5", Line: 1, Col: 4, SourceLine: "del width"}
	assert.Contains(t, d.Message(), `Deleting py5 reserved word "width" on line 1`)

	d = Diagnostic{Kind: ReservedFunctionDef, Word: "rect", Host: "py5", Line: 7}
	assert.Contains(t, d.Message(), `function named after py5 reserved word "rect" on line 7`)
	assert.Equal(t, d.Message(), d.String(), "no source line, no caret")

	d = Diagnostic{Kind: ImportOfHostPackage, Word: "py5", Host: "py5", Line: 1}
	assert.Equal(t, `Importing "py5" on line 1 is not allowed: the py5 library is already imported for you.`, d.Message())
}

func TestCaretLine(t *testing.T) {
	assert.Equal(t, "^", CaretLine("size = 3", 0))
	assert.Equal(t, "    ^", CaretLine("    size = 3", 4))
	assert.Equal(t, "\t  ^", CaretLine("\t  size = 3", 3))
	// Wide characters take two columns.
	line := "x = '日本' + width"
	assert.Equal(t, strings.Repeat(" ", 13)+"^", CaretLine(line, strings.Index(line, "width")))
	// Out of range columns are clamped.
	assert.Equal(t, "   ^", CaretLine("abc", 10))
	assert.Equal(t, "^", CaretLine("abc", -1))
}

func TestJoinNatural(t *testing.T) {
	assert.Equal(t, "", JoinNatural(nil))
	assert.Equal(t, "a", JoinNatural([]string{"a"}))
	assert.Equal(t, "a and b", JoinNatural([]string{"a", "b"}))
	assert.Equal(t, "a, b, and c", JoinNatural([]string{"a", "b", "c"}))
}

func TestFormatProblems(t *testing.T) {
	header := "There is a problem with your code."
	assert.Equal(t, header+"\n"+strings.Repeat("=", len(header))+"\nfirst", FormatProblems([]string{"first"}))

	got := FormatProblems([]string{"first", "second"})
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "There are 2 problems with your code.", lines[0])
	assert.Equal(t, len(lines[0]), len(lines[1]))
	assert.Equal(t, "second", lines[3])
}

func TestReport(t *testing.T) {
	code := []string{
		"def setup():",
		"    size = 10",
		"    rect(0, 0, size, size)",
		"",
		"def draw():",
		"    pass",
		"",
		"",
		"",
		"x = 1",
	}
	diagnostics := []Diagnostic{
		{Kind: AssignmentToReserved, Word: "size", Host: "py5", Line: 2, Col: 4, SourceLine: code[1]},
		{Kind: ReservedFunctionDef, Word: "draw", Host: "py5", Line: 50, Col: 4},
	}
	cause := errors.New("reserved words")
	r := NewReport("ReservedWords", "sketch.py", code, diagnostics, cause)
	require.Len(t, r.Lines, 2)
	assert.True(t, r.Lines[0].HasContext)
	assert.Equal(t, "sketch.py:2:5", r.Lines[0].Location)
	assert.Contains(t, r.Lines[0].RawContext, "   1: def setup():\n")
	assert.Contains(t, r.Lines[0].RawContext, "   5: def draw():\n")
	assert.NotContains(t, r.Lines[0].RawContext, "   6:")
	assert.Contains(t, r.Lines[0].RawContext, "   2:     size = 10\n          ^\n")
	assert.False(t, r.Lines[1].HasContext, "line out of range has no context")

	assert.Equal(t, "ReservedWords", r.Name())
	assert.ErrorIs(t, r, cause)
	assert.Equal(t, FormatDiagnostics(diagnostics), r.Error())
	tb := r.Traceback()
	require.Len(t, tb, 3)
	assert.Equal(t, "There are 2 problems with your code.", tb[0])
	assert.Contains(t, tb[1], "sketch.py:2:5")

	var buf bytes.Buffer
	require.NoError(t, r.WriteHTML(&buf))
	html := buf.String()
	assert.Contains(t, html, `<span class="sketchnb-err-location">sketch.py:2:5</span>`)
	assert.Contains(t, html, `<div class="sketchnb-err-line">   2:     size = 10`)
	assert.Contains(t, html, "&#34;size&#34;")

	header := ModuleProblemsHeader(2, "helpers")
	assert.Equal(t, `There are 2 problems with the imported "helpers" module.`, header)
	assert.Equal(t, `There is a problem with the imported "helpers" module.`, ModuleProblemsHeader(1, "helpers"))
	r.WithHeader(header)
	assert.Equal(t, header, r.Header())
	lines := strings.Split(r.Error(), "\n")
	assert.Equal(t, header, lines[0])
	assert.Equal(t, strings.Repeat("=", len(header)), lines[1])
	assert.Equal(t, diagnostics[0].String(), strings.Join(lines[2:5], "\n"))
	assert.Equal(t, header, r.Traceback()[0])
	buf.Reset()
	require.NoError(t, r.WriteHTML(&buf))
	assert.Contains(t, buf.String(), "<b>There are 2 problems with the imported &#34;helpers&#34; module.</b>")
}

func TestJupyterErrorSplit(t *testing.T) {
	r := NewReport("ReservedWords", "cell", nil, []Diagnostic{{Kind: AssignmentToReserved, Word: "width", Host: "py5", Line: 1}}, nil)
	wrapped := errors.WithMessage(r, "checking cell")
	name, value, tb := JupyterErrorSplit(wrapped)
	assert.Equal(t, "ReservedWords", name)
	assert.Equal(t, r.Error(), value)
	assert.Len(t, tb, 2)

	name, value, tb = JupyterErrorSplit(fmt.Errorf("plain"))
	assert.Equal(t, "ERROR", name)
	assert.Equal(t, "plain", value)
	assert.Equal(t, []string{"plain"}, tb)
}

func TestInBetween(t *testing.T) {
	assert.Equal(t, 0, inBetween(-3, 0, 5))
	assert.Equal(t, 5, inBetween(9, 0, 5))
	assert.Equal(t, 2, inBetween(2, 0, 5))
	assert.Equal(t, 1.5, inBetween(1.5, 0.0, 2.0))
}
