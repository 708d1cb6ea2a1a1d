package reserved

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	w := Default()
	assert.Equal(t, "py5", w.HostPackage)
	for _, word := range []string{"size", "fill", "rect", "width", "mouse_x", "random", "HIDDEN", "Py5Vector"} {
		assert.True(t, w.IsReserved(word), "%q should be reserved", word)
	}
	for _, word := range []string{"setup", "draw", "settings", "mouse_pressed", "x", "print"} {
		assert.False(t, w.IsReserved(word), "%q should not be reserved", word)
	}
	assert.Len(t, w.Dynamic, 26)
	assert.True(t, w.IsDynamic("mouse_x"))
	assert.True(t, w.IsDynamic("frame_count"))
	assert.False(t, w.IsDynamic("size"))
	for word := range w.Dynamic {
		assert.True(t, w.IsReserved(word))
	}
	assert.True(t, w.IsSettingsFunction("pixel_density"))
	assert.False(t, w.IsSettingsFunction("background"))
	assert.True(t, w.IsHostModule("py5"))
	assert.True(t, w.IsHostModule("py5.mixins"))
	assert.False(t, w.IsHostModule("py5_tools"))

	// Default is loaded once.
	assert.Same(t, w, Default())
}

func TestParseErrors(t *testing.T) {
	testCases := []struct {
		name, toml, errContains string
	}{
		{"dynamic not reserved", `
host_package = "py5"
dynamic_variables = ["mouse_x"]
reserved_words = ["size"]
`, `dynamic variable "mouse_x"`},
		{"event reserved", `
host_package = "py5"
event_functions = ["setup"]
reserved_words = ["setup"]
`, `event function "setup"`},
		{"bad identifier", `
host_package = "py5"
reserved_words = ["not-valid"]
`, "not a valid identifier"},
		{"unknown key", `
host_package = "py5"
reserved_words = ["size"]
colour = "red"
`, "unknown keys"},
		{"missing host", `reserved_words = ["size"]`, "host_package"},
		{"empty", `host_package = "py5"`, "reserved_words is empty"},
		{"bad toml", `host_package = `, "failed to parse"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.toml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errContains)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
host_package = "p5"
settings_functions = ["createCanvas"]
dynamic_variables = ["mouseX"]
reserved_words = ["createCanvas", "mouseX", "fill"]
`), 0600))
	w, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "p5", w.HostPackage)
	assert.True(t, w.IsDynamic("mouseX"))
	assert.True(t, w.IsSettingsFunction("createCanvas"))

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.toml")
}
