package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnit(t *testing.T) {
	u := New("<cell>", "size(100, 100)\r\nrect(0, 0, 10, 10)\rcircle(5, 5, 5)\n")
	assert.Equal(t, "size(100, 100)\nrect(0, 0, 10, 10)\ncircle(5, 5, 5)\n", u.Text)
	assert.Equal(t, 3, u.NumLines())
	assert.Equal(t, "rect(0, 0, 10, 10)", u.Line(2))
	assert.Equal(t, "", u.Line(4))
	assert.Equal(t, "", u.Line(0))
	assert.Empty(t, New("<cell>", "").Lines())
	assert.Equal(t, []string{"a", "", "b"}, SplitLines("a\n\nb"))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("module")
	require.NoError(t, err)
	assert.Equal(t, ModuleMode, m)
	m, err = ParseMode("Imported")
	require.NoError(t, err)
	assert.Equal(t, ImportedMode, m)
	_, err = ParseMode("static")
	assert.Error(t, err)
	assert.Equal(t, "module", ModuleMode.String())
}
