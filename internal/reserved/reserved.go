// Package reserved holds the table of identifiers that have a special meaning
// in sketches: the public names of the host binding, the subset of those that
// are dynamic variables, the calls that belong in settings() and the event
// functions the user is expected to define.
//
// The table is static configuration, loaded from an embedded TOML file or from
// an alternative file given by the user. It is read-only once loaded and safe
// to share across goroutines.
package reserved

import (
	_ "embed"
	"os"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/sketchnb/sketchnb/common"
	"k8s.io/klog/v2"
)

//go:embed py5.toml
var defaultTOML []byte

// Words is the reserved-word table of a binding.
type Words struct {
	// HostPackage is the name of the binding's package, e.g. "py5".
	HostPackage string

	// Reserved identifiers: assigning to them, deleting them or defining a
	// function with their name is reported.
	Reserved common.Set[string]

	// Dynamic variables, a subset of Reserved: reads are rewritten into calls.
	Dynamic common.Set[string]

	// SettingsFunctions are the calls allowed before any other code of
	// setup(), split into settings().
	SettingsFunctions common.Set[string]

	// EventFunctions are defined by the user and called by the sketch runner.
	EventFunctions common.Set[string]
}

// tableFile is the layout of the TOML file.
type tableFile struct {
	HostPackage       string   `toml:"host_package"`
	SettingsFunctions []string `toml:"settings_functions"`
	EventFunctions    []string `toml:"event_functions"`
	DynamicVariables  []string `toml:"dynamic_variables"`
	ReservedWords     []string `toml:"reserved_words"`
}

var defaultWords = sync.OnceValue(func() *Words {
	return must.M1(Parse(defaultTOML))
})

// Default returns the table of the py5 binding, embedded in the binary.
func Default() *Words {
	return defaultWords()
}

// Load reads a table from a TOML file.
func Load(path string) (*Words, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read reserved words from %q", path)
	}
	w, err := Parse(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "in reserved words file %q", path)
	}
	klog.V(1).Infof("Loaded %d reserved words (%d dynamic) from %q", len(w.Reserved), len(w.Dynamic), path)
	return w, nil
}

// Parse decodes and validates a table in TOML format.
func Parse(data []byte) (*Words, error) {
	var table tableFile
	md, err := toml.Decode(string(data), &table)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse reserved words table")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.Errorf("unknown keys in reserved words table: %v", undecoded)
	}
	w := &Words{
		HostPackage:       strings.TrimSpace(table.HostPackage),
		Reserved:          common.SetWith(table.ReservedWords...),
		Dynamic:           common.SetWith(table.DynamicVariables...),
		SettingsFunctions: common.SetWith(table.SettingsFunctions...),
		EventFunctions:    common.SetWith(table.EventFunctions...),
	}
	if err := w.validate(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Words) validate() error {
	if !isIdentifier(w.HostPackage) {
		return errors.Errorf("host_package %q is not a valid package name", w.HostPackage)
	}
	if len(w.Reserved) == 0 {
		return errors.New("reserved_words is empty")
	}
	for _, group := range []struct {
		name string
		set  common.Set[string]
	}{
		{"reserved_words", w.Reserved},
		{"dynamic_variables", w.Dynamic},
		{"settings_functions", w.SettingsFunctions},
		{"event_functions", w.EventFunctions},
	} {
		for _, word := range common.Sorted(group.set) {
			if !isIdentifier(word) {
				return errors.Errorf("%s: %q is not a valid identifier", group.name, word)
			}
		}
	}
	for _, word := range common.Sorted(w.Dynamic) {
		if !w.Reserved.Has(word) {
			return errors.Errorf("dynamic variable %q is not listed in reserved_words", word)
		}
	}
	for _, word := range common.Sorted(w.SettingsFunctions) {
		if !w.Reserved.Has(word) {
			return errors.Errorf("settings function %q is not listed in reserved_words", word)
		}
	}
	for _, word := range common.Sorted(w.EventFunctions) {
		if w.Reserved.Has(word) {
			return errors.Errorf("event function %q cannot be a reserved word", word)
		}
	}
	return nil
}

// IsReserved returns whether name is a reserved word.
func (w *Words) IsReserved(name string) bool {
	return w.Reserved.Has(name)
}

// IsDynamic returns whether name is a dynamic variable.
func (w *Words) IsDynamic(name string) bool {
	return w.Dynamic.Has(name)
}

// IsSettingsFunction returns whether name is a call that belongs in settings().
func (w *Words) IsSettingsFunction(name string) bool {
	return w.SettingsFunctions.Has(name)
}

// IsHostModule returns whether an imported module name refers to the host
// package or one of its sub-packages.
func (w *Words) IsHostModule(module string) bool {
	return module == w.HostPackage || strings.HasPrefix(module, w.HostPackage+".")
}

// isIdentifier checks for ASCII Python identifiers, which is all the table uses.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for ii, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case ii > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}
