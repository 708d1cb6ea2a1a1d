package rewrite

import (
	"testing"

	"github.com/janpfeifer/must"
	"github.com/sketchnb/sketchnb/internal/pysyntax"
	"github.com/sketchnb/sketchnb/internal/reserved"
	"github.com/sketchnb/sketchnb/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(code string) *pysyntax.Module {
	return must.M1(pysyntax.Parse("test.py", code))
}

func rewriteSource(t *testing.T, code string) string {
	t.Helper()
	got, err := New(reserved.Default()).Source(source.New("test.py", code))
	require.NoError(t, err)
	return got
}

func TestRender(t *testing.T) {
	code := `def draw():
    rect(mouse_x, mouse_y, width / 2, height)
    print(f"{frame_count}: {pmouse_x:>5}")
    if key == "q" and mouse_button:
        exit_sketch()
`
	want := `def draw():
    rect(mouse_x(), mouse_y(), width() / 2, height())
    print(f"{frame_count()}: {pmouse_x():>5}")
    if key() == "q" and mouse_button():
        exit_sketch()
`
	assert.Equal(t, want, rewriteSource(t, code))
}

func TestCallsAndArguments(t *testing.T) {
	assert.Equal(t, "x = mouse_x()\n", rewriteSource(t, "x = mouse_x()\n"))
	assert.Equal(t, "frame_count(width())\n", rewriteSource(t, "frame_count(width)\n"))
	assert.Equal(t, "f(width=width())\n", rewriteSource(t, "f(width=width)\n"))
	assert.Equal(t, "self.width = self.height\n", rewriteSource(t, "self.width = self.height\n"))
	assert.Equal(t, "g = lambda: (width(), [h for h in pixels()])\n",
		rewriteSource(t, "g = lambda: (width, [h for h in pixels])\n"))
	assert.Equal(t, "if (n := width()) > 1:\n    pass\n", rewriteSource(t, "if (n := width) > 1:\n    pass\n"))
}

func TestMatchStatement(t *testing.T) {
	code := `match mouse_x:
    case [x, y] if x > width:
        print(mouse_y)
    case key.real:
        pass
`
	want := `match mouse_x():
    case [x, y] if x > width():
        print(mouse_y())
    case key.real:
        pass
`
	assert.Equal(t, want, rewriteSource(t, code))
}

func TestWritesPreserved(t *testing.T) {
	code := "width = 5\ndel mouse_x\nfor height in range(3):\n    pass\nframe_count += 1\n"
	// The augmented assignment target is a write too.
	assert.Equal(t, code, rewriteSource(t, code))

	tree := New(reserved.Default()).Rewrite(parse(code))
	var stores, dels int
	pysyntax.Inspect(tree, func(node pysyntax.Node) bool {
		if name, ok := node.(*pysyntax.Name); ok {
			switch name.Ctx {
			case pysyntax.Store:
				stores++
			case pysyntax.Del:
				dels++
			}
		}
		return true
	})
	assert.Equal(t, 3, stores)
	assert.Equal(t, 1, dels)
}

func TestIdempotent(t *testing.T) {
	code := "print(mouse_x, frame_count(width), [key for _ in range(height)])\nwidth = mouse_y\n"
	r := New(reserved.Default())
	once := r.Rewrite(parse(code))
	twice := r.Rewrite(once)
	assert.Equal(t, once, twice)
	assert.Equal(t, Render(code, once), Render(code, twice))
}

func TestPositionsAndInputUntouched(t *testing.T) {
	code := "x = 1\ny = mouse_x + 2\n"
	tree := parse(code)
	original := pysyntax.Clone(tree)
	rewritten := New(reserved.Default()).Rewrite(tree)
	assert.Equal(t, original, tree, "input tree must not be modified")

	assign := rewritten.Body[1].(*pysyntax.Assign)
	binOp := assign.Value.(*pysyntax.BinOp)
	call, ok := binOp.Left.(*pysyntax.Call)
	require.True(t, ok)
	assert.True(t, call.Implicit)
	name := call.Func.(*pysyntax.Name)
	assert.Equal(t, name.Span, call.Span)
	assert.Equal(t, 2, call.Pos().Line)
	assert.Equal(t, 4, call.Pos().Col)
	assert.Equal(t, original.Body[1].(*pysyntax.Assign).Value.Pos(), binOp.Pos())
	assert.Equal(t, original.Body[1].(*pysyntax.Assign).Value.End(), binOp.End())
}

func TestSyntaxError(t *testing.T) {
	_, err := New(reserved.Default()).Source(source.New("cell", "def f(:\n"))
	var syntaxErr *pysyntax.SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
}
