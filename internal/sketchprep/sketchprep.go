// Package sketchprep prepares user code to be run by the sketch runner: it
// validates the code, splits the settings calls out of it and rewrites the
// reads of dynamic variables, producing the fragments the runner executes.
//
// There are two flows:
//
//   - Static sketches, code without settings(), setup() or draw() functions,
//     as written in a notebook cell: the code is split into an early fragment
//     run in settings() and a late fragment run in setup().
//   - Sketches defining the event functions: the whole module is one
//     fragment. If it defines setup() but not settings(), the settings calls
//     at the start of setup() are split into two replacement functions.
//
// Code in module mode is only split: it is neither guarded nor rewritten.
package sketchprep

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sketchnb/sketchnb/internal/diag"
	"github.com/sketchnb/sketchnb/internal/guard"
	"github.com/sketchnb/sketchnb/internal/pysyntax"
	"github.com/sketchnb/sketchnb/internal/reserved"
	"github.com/sketchnb/sketchnb/internal/rewrite"
	"github.com/sketchnb/sketchnb/internal/source"
	"github.com/sketchnb/sketchnb/internal/splitsetup"
	"k8s.io/klog/v2"
)

// DefaultStaticSettings is used as the early fragment of a static sketch
// that doesn't call any settings function.
const DefaultStaticSettings = "size(100, 100, HIDDEN)"

// Phase in which a Fragment is executed.
type Phase int

const (
	// ModulePhase is the whole sketch, executed once to define its functions.
	ModulePhase Phase = iota

	// EarlyPhase code runs in settings().
	EarlyPhase

	// LatePhase code runs in setup().
	LatePhase

	// ImportedModulePhase is a module imported by the sketch, written in
	// imported mode.
	ImportedModulePhase
)

func (p Phase) String() string {
	switch p {
	case EarlyPhase:
		return "settings"
	case LatePhase:
		return "setup"
	case ImportedModulePhase:
		return "import"
	}
	return "module"
}

// ErrAlreadyExecuted is returned by Fragment.Take after the first call.
var ErrAlreadyExecuted = errors.New("fragment already executed")

// Fragment is a piece of prepared code, ready to be executed by the runner.
// Its lines have the same numbers as in the user's code.
type Fragment struct {
	Phase    Phase
	Filename string

	// Code is the prepared source, with dynamic variables rewritten in
	// imported mode.
	Code string

	// Tree is the parsed and rewritten code.
	Tree *pysyntax.Module

	// FunctionName is set when the fragment defines a function replacing one
	// of the sketch's, e.g. "_py5_faux_settings" replacing settings().
	FunctionName string

	// Header, only set for imported modules, defines the functions called by
	// the rewritten reads of dynamic variables. It must be executed before
	// Code, in the same namespace. It is kept apart so Code keeps the line
	// numbers of the module.
	Header string

	taken atomic.Bool
}

// Take returns the code of the fragment, to be executed. It can be called
// only once: later calls return ErrAlreadyExecuted.
func (f *Fragment) Take() (string, error) {
	if !f.taken.CompareAndSwap(false, true) {
		return "", errors.Wrapf(ErrAlreadyExecuted, "%s fragment of %q", f.Phase, f.Filename)
	}
	return f.Code, nil
}

// Result of preparing one unit of code.
type Result struct {
	// Static is true for code without settings(), setup() and draw().
	Static bool

	// Module is the whole sketch, set only if not Static.
	Module *Fragment

	// Early is the settings code: the early segment of a static sketch or
	// the function replacing settings(). It is nil for sketches whose setup()
	// is not split.
	Early *Fragment

	// Late is the setup code: the late segment of a static sketch or the
	// function replacing setup(). It is nil if there is nothing left to run
	// in setup().
	Late *Fragment

	// Diagnostics about reserved words, not fatal unless strict.
	Diagnostics []diag.Diagnostic

	// NumLines is the number of lines in the unit.
	NumLines int
}

// Fragments returns the non-nil fragments, in the order they are executed.
func (r *Result) Fragments() []*Fragment {
	var fragments []*Fragment
	for _, f := range []*Fragment{r.Module, r.Early, r.Late} {
		if f != nil {
			fragments = append(fragments, f)
		}
	}
	return fragments
}

// Preparer runs the preparation pipeline. It is configured once and can be
// used for any number of units, but not concurrently if reporting
// immediately to a writer that isn't safe for concurrent use.
type Preparer struct {
	words           *reserved.Words
	mode            source.Mode
	out             io.Writer
	strict          bool
	defaultSettings string

	guard       *guard.Guard
	moduleGuard *guard.Guard
	rewriter    *rewrite.Rewriter
	splitter    *splitsetup.Splitter
}

// Option configures a Preparer.
type Option func(p *Preparer)

// WithMode sets the coding mode of the code, ImportedMode by default.
func WithMode(mode source.Mode) Option {
	return func(p *Preparer) {
		p.mode = mode
	}
}

// WithReportImmediately writes each reserved-word diagnostic to w as soon as
// it is found.
func WithReportImmediately(w io.Writer) Option {
	return func(p *Preparer) {
		p.out = w
	}
}

// WithStrictReservedWords makes reserved-word diagnostics fatal: they are
// returned as a *ProblemsError.
func WithStrictReservedWords(strict bool) Option {
	return func(p *Preparer) {
		p.strict = strict
	}
}

// WithDefaultSettings sets the early fragment used for static sketches that
// don't call any settings function. Empty disables it. The default is
// DefaultStaticSettings, qualified with the package name in module mode.
func WithDefaultSettings(code string) Option {
	return func(p *Preparer) {
		p.defaultSettings = code
	}
}

// New creates a Preparer for the binding described by words.
func New(words *reserved.Words, options ...Option) *Preparer {
	p := &Preparer{words: words, defaultSettings: DefaultStaticSettings}
	for _, option := range options {
		option(p)
	}
	if p.mode == source.ModuleMode && p.defaultSettings == DefaultStaticSettings {
		p.defaultSettings = fmt.Sprintf("%[1]s.size(100, 100, %[1]s.HIDDEN)", words.HostPackage)
	}
	p.guard = guard.New(words,
		guard.WithReportImmediately(p.out),
		guard.WithHostImportCheck(p.mode == source.ImportedMode))
	p.moduleGuard = guard.New(words, guard.WithHostImportCheck(false))
	p.rewriter = rewrite.New(words)
	p.splitter = splitsetup.New(words, p.mode)
	return p
}

// Mode returns the coding mode of the Preparer.
func (p *Preparer) Mode() source.Mode {
	return p.mode
}

// IsStaticMode returns whether tree is a static sketch: it has no top level
// settings(), setup() or draw() function.
func IsStaticMode(tree *pysyntax.Module) bool {
	for _, stmt := range tree.Body {
		if fn, ok := stmt.(*pysyntax.FunctionDef); ok {
			switch fn.Name {
			case "settings", "setup", "draw":
				return false
			}
		}
	}
	return true
}

// Prepare parses and prepares unit, choosing the static or the sketch flow.
//
// User errors are returned typed: *pysyntax.SyntaxError,
// *guard.InputRejectedError, *ProblemsError or
// *splitsetup.MisplacedCallError. See FormatError.
func (p *Preparer) Prepare(unit *source.Unit) (*Result, error) {
	tree, err := pysyntax.Parse(unit.Filename, unit.Text)
	if err != nil {
		return nil, err
	}
	if IsStaticMode(tree) {
		return p.prepareStatic(unit, tree)
	}
	return p.prepareSketch(unit, tree)
}

// PrepareStatic prepares unit as a static sketch, regardless of the
// functions it defines.
func (p *Preparer) PrepareStatic(unit *source.Unit) (*Result, error) {
	tree, err := pysyntax.Parse(unit.Filename, unit.Text)
	if err != nil {
		return nil, err
	}
	return p.prepareStatic(unit, tree)
}

// check runs the reserved-words guard in imported mode.
func (p *Preparer) check(unit *source.Unit, tree *pysyntax.Module) ([]diag.Diagnostic, error) {
	if p.mode != source.ImportedMode {
		return nil, nil
	}
	diagnostics, err := p.guard.Check(unit, tree)
	if err != nil {
		return diagnostics, err
	}
	if p.strict && len(diagnostics) > 0 {
		return diagnostics, &ProblemsError{
			Report: diag.NewReport("ReservedWordProblems", unit.Filename, unit.Lines(), diagnostics, nil),
		}
	}
	return diagnostics, nil
}

// fragment parses code and, in imported mode, rewrites it.
func (p *Preparer) fragment(phase Phase, filename, code string) (*Fragment, error) {
	tree, err := pysyntax.Parse(filename, code)
	if err != nil {
		return nil, err
	}
	if p.mode == source.ImportedMode {
		tree = p.rewriter.Rewrite(tree)
		code = rewrite.Render(code, tree)
	}
	return &Fragment{Phase: phase, Filename: filename, Code: code, Tree: tree}, nil
}

func (p *Preparer) prepareStatic(unit *source.Unit, tree *pysyntax.Module) (*Result, error) {
	diagnostics, err := p.check(unit, tree)
	if err != nil {
		return nil, err
	}
	split, err := p.splitter.Split(unit.Text)
	if err != nil {
		return nil, err
	}
	settings := split.Settings
	if splitsetup.CountNonCommentLines(settings) == 0 && p.defaultSettings != "" {
		settings = p.defaultSettings
	}

	r := &Result{Static: true, Diagnostics: diagnostics, NumLines: split.NumLines}
	if r.Early, err = p.fragment(EarlyPhase, unit.Filename, settings); err != nil {
		return nil, err
	}
	if r.Late, err = p.fragment(LatePhase, unit.Filename, split.Late()); err != nil {
		return nil, err
	}
	klog.V(1).Infof("sketchprep: static sketch %q: %d settings lines, %d setup lines, %d problem(s)",
		unit.Filename, splitsetup.CountNonCommentLines(r.Early.Code),
		splitsetup.CountNonCommentLines(r.Late.Code), len(diagnostics))
	return r, nil
}

func (p *Preparer) prepareSketch(unit *source.Unit, tree *pysyntax.Module) (*Result, error) {
	diagnostics, err := p.check(unit, tree)
	if err != nil {
		return nil, err
	}
	r := &Result{Diagnostics: diagnostics, NumLines: unit.NumLines()}
	r.Module = &Fragment{Phase: ModulePhase, Filename: unit.Filename, Code: unit.Text, Tree: tree}
	if p.mode == source.ImportedMode {
		r.Module.Tree = p.rewriter.Rewrite(tree)
		r.Module.Code = rewrite.Render(unit.Text, r.Module.Tree)
	}

	var setupFn *pysyntax.FunctionDef
	var hasSettings bool
	for _, stmt := range tree.Body {
		if fn, ok := stmt.(*pysyntax.FunctionDef); ok {
			switch fn.Name {
			case "setup":
				setupFn = fn
			case "settings":
				hasSettings = true
			}
		}
	}
	if setupFn == nil || hasSettings {
		return r, nil
	}

	split, err := p.splitter.SplitFunction(unit.Text, setupFn.Pos().Line, setupFn.End().Line)
	if err != nil {
		return nil, err
	}
	if split == nil {
		return r, nil
	}
	if r.Early, err = p.fragment(EarlyPhase, unit.Filename, split.Settings); err != nil {
		return nil, err
	}
	r.Early.FunctionName = splitsetup.SettingsName
	if split.Setup != "" {
		if r.Late, err = p.fragment(LatePhase, unit.Filename, split.Setup); err != nil {
			return nil, err
		}
		r.Late.FunctionName = splitsetup.SetupName
	}
	klog.V(1).Infof("sketchprep: sketch %q: setup() split, settings code moved to %s()", unit.Filename, splitsetup.SettingsName)
	return r, nil
}

// ProblemsError is returned, in strict mode, when the code uses reserved
// words. It holds the report of all problems found.
type ProblemsError struct {
	*diag.Report
}

// FormatError formats the user errors returned by Prepare the way they are
// displayed to users. Other errors are formatted with "%+v".
func FormatError(err error) string {
	var syntaxErr *pysyntax.SyntaxError
	if errors.As(err, &syntaxErr) {
		return "There is a problem with your code:\n" + syntaxErr.Format()
	}
	var (
		rejected  *guard.InputRejectedError
		problems  *ProblemsError
		misplaced *splitsetup.MisplacedCallError
	)
	switch {
	case errors.As(err, &rejected):
		return rejected.Error()
	case errors.As(err, &problems):
		return problems.Error()
	case errors.As(err, &misplaced):
		return misplaced.Error()
	}
	return fmt.Sprintf("%+v", err)
}

// IsUserError returns whether err is one of the errors caused by problems in
// the user's code, as opposed to an internal error.
func IsUserError(err error) bool {
	var (
		syntaxErr *pysyntax.SyntaxError
		rejected  *guard.InputRejectedError
		problems  *ProblemsError
		misplaced *splitsetup.MisplacedCallError
	)
	return errors.As(err, &syntaxErr) || errors.As(err, &rejected) ||
		errors.As(err, &problems) || errors.As(err, &misplaced)
}
