package sketchprep

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/sketchnb/sketchnb/internal/reserved"
	"github.com/sketchnb/sketchnb/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsImportedModeModule(t *testing.T) {
	assert.True(t, IsImportedModeModule(ImportedModeMarker+"\n\ndef f():\n    pass\n"))
	assert.True(t, IsImportedModeModule("import math\n# py5 imported mode code   \nx = 1\n"))
	assert.False(t, IsImportedModeModule("x = 1  # PY5 IMPORTED MODE CODE\n"))
	assert.False(t, IsImportedModeModule("# PY5 IMPORTED MODE CODE, almost\n"))
}

func TestDynamicVariablesHeader(t *testing.T) {
	header := DynamicVariablesHeader(reserved.Default())
	assert.True(t, strings.HasPrefix(header, "def args():\n    return get_current_sketch().args\n\n\ndef display_height():\n"))
	assert.Contains(t, header, "def mouse_x():\n    return get_current_sketch().mouse_x\n")
	assert.Equal(t, len(reserved.Default().Dynamic), strings.Count(header, "def "))
}

func TestPrepareImportedModule(t *testing.T) {
	code := ImportedModeMarker + "\n\ndef draw_cursor():\n    circle(mouse_x, mouse_y, 10)\n"
	f, err := New(reserved.Default()).PrepareImportedModule(source.New("cursor.py", code), "cursor")
	require.NoError(t, err)
	assert.Equal(t, ImportedModulePhase, f.Phase)
	assert.Equal(t, "import", f.Phase.String())
	assert.Equal(t, "cursor.py", f.Filename)
	assert.Equal(t, strings.Replace(code, "circle(mouse_x, mouse_y, 10)", "circle(mouse_x(), mouse_y(), 10)", 1), f.Code)
	assert.Equal(t, 3, f.Tree.Body[0].Pos().Line, "line numbers are kept")
	assert.Equal(t, DynamicVariablesHeader(reserved.Default()), f.Header)

	// Problems are fatal, and reported under the module name, whatever the options.
	code = ImportedModeMarker + "\nwidth = 10\nsize = 3\n"
	_, err = New(reserved.Default(), WithStrictReservedWords(false)).
		PrepareImportedModule(source.New("bad.py", code), "bad")
	var problems *ProblemsError
	require.True(t, errors.As(err, &problems))
	assert.True(t, IsUserError(err))
	lines := strings.Split(problems.Error(), "\n")
	assert.Equal(t, `There are 2 problems with the imported "bad" module.`, lines[0])
	assert.Contains(t, lines[2], `reserved word "width" on line 2`)

	// Imported modules may import the package, as in module mode.
	_, err = New(reserved.Default()).PrepareImportedModule(source.New("m.py", ImportedModeMarker+"\nimport py5\n"), "m")
	assert.NoError(t, err)

	_, err = New(reserved.Default()).PrepareImportedModule(source.New("m.py", "def f(:\n"), "m")
	assert.True(t, IsUserError(err))
}
