// Package workdir manages the directory where the prepared fragments of a
// sketch are written, along with the framework script that runs them with
// the sketch runner.
package workdir

import (
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
	"github.com/sketchnb/sketchnb/internal/pysyntax"
	"github.com/sketchnb/sketchnb/internal/sketchprep"
	"k8s.io/klog/v2"
)

const (
	SettingsFilename  = "_PY5_STATIC_SETTINGS_CODE_.py"
	SetupFilename     = "_PY5_STATIC_SETUP_CODE_.py"
	FrameworkFilename = "_PY5_STATIC_FRAMEWORK_CODE_.py"
	SketchFilename    = "_PY5_SKETCH_CODE_.py"
)

// NewUniqueID returns a short random identifier: the last 8 hex digits of
// a UUID.
func NewUniqueID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.Must(uuid.NewV4())
	}
	s := id.String()
	return s[len(s)-8:]
}

// Manager owns a work directory. Use New to create it and Finalize to
// remove it.
type Manager struct {
	UniqueID, Dir string

	// HostPackage is imported by the framework script.
	HostPackage string

	// ExitIfError makes the framework script exit the sketch if it stopped
	// because of an error, instead of leaving its window open.
	ExitIfError bool
}

// New creates the work directory "sketchnb_<uniqueID>" under parent, or
// under the system's temporary directory if parent is empty.
func New(parent, uniqueID, hostPackage string) (*Manager, error) {
	if parent == "" {
		parent = os.TempDir()
	}
	m := &Manager{
		UniqueID:    uniqueID,
		Dir:         path.Join(parent, "sketchnb_"+uniqueID),
		HostPackage: hostPackage,
	}
	if err := os.Mkdir(m.Dir, 0700); err != nil {
		return nil, errors.Wrapf(err, "failed to create work directory %q", m.Dir)
	}
	klog.V(1).Infof("Initialized work directory %s", m.Dir)
	return m, nil
}

// SketchPath returns the path of the file with the sketch module, for
// sketches that are not static.
func (m *Manager) SketchPath() string { return path.Join(m.Dir, SketchFilename) }

// ModulePath returns the path of the loader of the imported module moduleName.
func (m *Manager) ModulePath(moduleName string) string { return path.Join(m.Dir, moduleName+".py") }

// ModuleCodePath returns the path of the prepared code of the imported module moduleName.
func (m *Manager) ModuleCodePath(moduleName string) string {
	return path.Join(m.Dir, "_PY5_MODULE_"+moduleName+"_CODE_.py")
}

// SettingsPath returns the path of the file with the early fragment.
func (m *Manager) SettingsPath() string { return path.Join(m.Dir, SettingsFilename) }

// SetupPath returns the path of the file with the late fragment.
func (m *Manager) SetupPath() string { return path.Join(m.Dir, SetupFilename) }

// FrameworkPath returns the path of the framework script.
func (m *Manager) FrameworkPath() string { return path.Join(m.Dir, FrameworkFilename) }

// WriteCode writes the settings and the setup code. The setup code is
// prefixed with blank lines up to origLineCount lines, so its last line has
// the number it had in the original code. Setup code already padded, like a
// late fragment, is written as is.
func (m *Manager) WriteCode(settings, setup string, origLineCount int) error {
	if err := writeFile(m.SettingsPath(), settings); err != nil {
		return err
	}
	padding := max(origLineCount-1-strings.Count(setup, "\n"), 0)
	return writeFile(m.SetupPath(), strings.Repeat("\n", padding)+setup)
}

func writeFile(filePath, content string) error {
	if err := os.WriteFile(filePath, []byte(content), 0600); err != nil {
		return errors.Wrapf(err, "failed to write %q", filePath)
	}
	return nil
}

// WriteResult writes the fragments of a prepared sketch, and the framework
// script that runs them. It returns the path of the framework script.
//
// Static sketches are run in the settings() and setup() of the framework.
// Other sketches are executed by the framework, with their setup() replaced
// by the split functions, if any. Sketches in module mode run themselves and
// are not supported.
//
// The fragments are taken: they can't be written again.
func (m *Manager) WriteResult(r *sketchprep.Result) (string, error) {
	if r.Static {
		return m.writeStatic(r)
	}
	return m.writeSketch(r)
}

func (m *Manager) writeStatic(r *sketchprep.Result) (string, error) {
	if r.Early == nil || r.Late == nil {
		return "", errors.New("static sketch without settings or setup fragments")
	}
	settings, err := r.Early.Take()
	if err != nil {
		return "", err
	}
	setup, err := r.Late.Take()
	if err != nil {
		return "", err
	}
	if err = m.WriteCode(settings, setup, r.NumLines); err != nil {
		return "", err
	}
	data := m.frameworkData(r.Late.Filename)
	data.Settings, data.Setup = m.SettingsPath(), m.SetupPath()
	return m.FrameworkPath(), m.executeTemplate(m.FrameworkPath(), "static", data)
}

func (m *Manager) writeSketch(r *sketchprep.Result) (string, error) {
	if r.Module == nil {
		return "", errors.New("sketch without module fragment")
	}
	if m.callsRunSketch(r.Module.Tree) {
		return "", errors.Errorf("sketch %q calls %s.run_sketch() itself: run it directly", r.Module.Filename, m.HostPackage)
	}
	code, err := r.Module.Take()
	if err != nil {
		return "", err
	}
	if err = writeFile(m.SketchPath(), code); err != nil {
		return "", err
	}
	data := m.frameworkData(r.Module.Filename)
	data.Sketch = m.SketchPath()
	if data.SketchDir, err = filepath.Abs(filepath.Dir(r.Module.Filename)); err != nil {
		return "", errors.Wrapf(err, "failed to find directory of %q", r.Module.Filename)
	}
	if r.Early != nil {
		if code, err = r.Early.Take(); err != nil {
			return "", err
		}
		if err = writeFile(m.SettingsPath(), code); err != nil {
			return "", err
		}
		data.Settings, data.SettingsName = m.SettingsPath(), r.Early.FunctionName
	}
	if r.Late != nil {
		if code, err = r.Late.Take(); err != nil {
			return "", err
		}
		if err = writeFile(m.SetupPath(), code); err != nil {
			return "", err
		}
		data.Setup, data.SetupName = m.SetupPath(), r.Late.FunctionName
	}
	return m.FrameworkPath(), m.executeTemplate(m.FrameworkPath(), "sketch", data)
}

// callsRunSketch returns whether tree calls the host package's
// run_sketch(), as sketches in module mode do.
func (m *Manager) callsRunSketch(tree *pysyntax.Module) (found bool) {
	if tree == nil {
		return false
	}
	pysyntax.Inspect(tree, func(node pysyntax.Node) bool {
		call, ok := node.(*pysyntax.Call)
		if !ok || found {
			return !found
		}
		if attr, ok := call.Func.(*pysyntax.Attribute); ok && attr.Attr == "run_sketch" {
			if name, ok := attr.Value.(*pysyntax.Name); ok && name.Id == m.HostPackage {
				found = true
			}
		}
		return !found
	})
	return found
}

// WriteModule writes a prepared imported module, named moduleName, to the
// work directory: its code, and a loader with the same name as the module
// that defines the dynamic variables and executes the code. The framework
// script runs from the work directory, so the loader is imported by the
// sketch instead of the original module. It returns the path of the loader.
func (m *Manager) WriteModule(f *sketchprep.Fragment, moduleName string) (string, error) {
	if f.Phase != sketchprep.ImportedModulePhase {
		return "", errors.Errorf("%s fragment of %q is not an imported module", f.Phase, f.Filename)
	}
	code, err := f.Take()
	if err != nil {
		return "", err
	}
	if err = writeFile(m.ModuleCodePath(moduleName), code); err != nil {
		return "", err
	}
	data := m.frameworkData(f.Filename)
	data.Header, data.Code = f.Header, m.ModuleCodePath(moduleName)
	return m.ModulePath(moduleName), m.executeTemplate(m.ModulePath(moduleName), "module", data)
}

// frameworkData is the data of the framework templates.
type frameworkData struct {
	Host, Filename string
	ExitIfError    bool

	// Static sketches and split setup().
	Settings, Setup string

	// Other sketches.
	Sketch, SketchDir       string
	SettingsName, SetupName string

	// Imported modules.
	Header, Code string
}

func (m *Manager) frameworkData(filename string) *frameworkData {
	return &frameworkData{Host: m.HostPackage, Filename: filename, ExitIfError: m.ExitIfError}
}

var frameworkTemplates = template.Must(template.New("framework").
	Funcs(template.FuncMap{"quote": strconv.Quote}).
	Parse(`{{define "prelude"}}import sys
import {{.Host}}
from {{.Host}} import *


def _sketchnb_exec_file(path, filename):
    with open(path, 'r') as f:
        exec(compile(f.read(), filename=filename, mode='exec'), globals())
{{end}}

{{define "run"}}

{{.Host}}.run_sketch(block=True)
{{if .ExitIfError}}if {{.Host}}.is_dead_from_error:
    {{.Host}}.exit_sketch()
{{end}}{{end}}

{{define "static"}}{{template "prelude" .}}

def settings():
    _sketchnb_exec_file({{quote .Settings}}, {{quote .Filename}})


def setup():
    _sketchnb_exec_file({{quote .Setup}}, {{quote .Filename}})
{{template "run" .}}{{end}}

{{define "sketch"}}{{template "prelude" .}}

sys.path.append({{quote .SketchDir}})
_sketchnb_exec_file({{quote .Sketch}}, {{quote .Filename}})
{{if .Settings}}_sketchnb_exec_file({{quote .Settings}}, {{quote .Filename}})
settings = {{.SettingsName}}
{{end}}{{if .Setup}}_sketchnb_exec_file({{quote .Setup}}, {{quote .Filename}})
setup = {{.SetupName}}
{{else if .Settings}}del setup
{{end}}{{template "run" .}}{{end}}

{{define "module"}}{{template "prelude" .}}

{{.Header}}

_sketchnb_exec_file({{quote .Code}}, {{quote .Filename}})
{{end}}`))

func (m *Manager) executeTemplate(filePath, name string, data *frameworkData) error {
	f, err := os.Create(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to create %q", filePath)
	}
	if err = frameworkTemplates.ExecuteTemplate(f, name, data); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "failed to write %s script %q", name, filePath)
	}
	return errors.WithStack(f.Close())
}

// Finalize removes the work directory.
func (m *Manager) Finalize() error {
	if m.Dir == "" {
		return nil
	}
	if err := os.RemoveAll(m.Dir); err != nil {
		return errors.Wrapf(err, "failed to remove work directory %s", m.Dir)
	}
	m.Dir = ""
	return nil
}
