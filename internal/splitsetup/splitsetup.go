// Package splitsetup moves the calls that must be made in a sketch's
// settings(), like size() or smooth(), out of the beginning of setup() or of
// a static sketch.
//
// Processing lets users write `size(200, 200)` as the first statement of
// setup(), and rewrites the sketch before running it. The same is done here,
// working line by line on the source: the first lines that are a single call
// to one of the settings functions become the early segment, everything after
// them the late segment. Every segment is padded with blank lines, so the
// statements keep the line numbers the user sees.
package splitsetup

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/sketchnb/sketchnb/common"
	"github.com/sketchnb/sketchnb/internal/diag"
	"github.com/sketchnb/sketchnb/internal/reserved"
	"github.com/sketchnb/sketchnb/internal/source"
	"k8s.io/klog/v2"
)

var (
	commentLineRE     = regexp.MustCompile(`^\s*#.*$`)
	docstringRE       = regexp.MustCompile(`(?m)^\s*("""[^"]*"""|'''[^']*''')`)
	globalStatementRE = regexp.MustCompile(`^\s*global\s+.*$`)
	importedMethodRE  = regexp.MustCompile(`^\s*(\w+)\([^)]*\)`)
	setupHeaderRE     = regexp.MustCompile(`^def\s+setup\s*\(\s*\)\s*(->[^:]*)?:\s*(#.*)?$`)
)

// Splitter finds the settings calls in code written in one coding mode.
type Splitter struct {
	mode       source.Mode
	functions  common.Set[string]
	methodLine *regexp.Regexp
}

// New creates a Splitter for code in the given mode. The settings functions
// come from words; in module mode they must be qualified with the host
// package name.
func New(words *reserved.Words, mode source.Mode) *Splitter {
	s := &Splitter{mode: mode, functions: words.SettingsFunctions, methodLine: importedMethodRE}
	if mode == source.ModuleMode {
		s.methodLine = regexp.MustCompile(`^\s*` + regexp.QuoteMeta(words.HostPackage) + `\.(\w+)\([^)]*\)`)
	}
	return s
}

// Mode returns the coding mode the Splitter was created for.
func (s *Splitter) Mode() source.Mode {
	return s.mode
}

// RemoveComments blanks the comment lines and the docstrings of code. The
// number of lines is not changed.
func RemoveComments(code string) string {
	lines := strings.Split(code, "\n")
	for ii, line := range lines {
		if commentLineRE.MatchString(line) {
			lines[ii] = ""
		}
	}
	code = strings.Join(lines, "\n")
	return docstringRE.ReplaceAllStringFunc(code, func(docstring string) string {
		return strings.Repeat("\n", strings.Count(docstring, "\n"))
	})
}

// CountNonCommentLines returns the number of lines of code, once comments are
// removed and leading and trailing blank lines are trimmed.
func CountNonCommentLines(code string) int {
	stripped := strings.TrimSpace(RemoveComments(code))
	if stripped == "" {
		return 0
	}
	return len(source.SplitLines(stripped))
}

// settingsCall returns the name of the settings function called by line, if
// line is a call to one.
func (s *Splitter) settingsCall(line string) (string, bool) {
	m := s.methodLine.FindStringSubmatch(line)
	if m == nil || !s.functions.Has(m[1]) {
		return "", false
	}
	return m[1], true
}

// FindCutoffs returns the 0-based indices of the lines of code where the
// early segment starts (after the `def setup():` line and any leading
// `global` statements) and where the late segment starts (at the first line
// that is not a settings call).
//
// If code has no settings calls both cutoffs are the same.
func (s *Splitter) FindCutoffs(code string) (cutoff1, cutoff2 int) {
	return s.findCutoffs(code, false)
}

// findCutoffs implements FindCutoffs. If isFunction, the first line of code
// is the definition of setup(), whatever its form.
func (s *Splitter) findCutoffs(code string, isFunction bool) (cutoff1, cutoff2 int) {
	var defStatement bool
	var leadingGlobals, settings, others []int
	for ii, line := range strings.Split(RemoveComments(code), "\n") {
		if isFunction && ii == 0 {
			defStatement = true
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if setupHeaderRE.MatchString(line) {
			defStatement = true
			continue
		}
		if globalStatementRE.MatchString(line) && len(settings) == 0 && len(others) == 0 {
			leadingGlobals = append(leadingGlobals, ii)
			continue
		}
		if _, ok := s.settingsCall(line); ok {
			settings = append(settings, ii)
		} else {
			others = append(others, ii)
		}
	}

	switch {
	case len(leadingGlobals) > 0:
		cutoff1 = leadingGlobals[len(leadingGlobals)-1] + 1
	case defStatement:
		cutoff1 = 1
	}
	switch {
	case len(settings) == 0:
		cutoff2 = cutoff1
	case len(others) > 0:
		cutoff2 = others[0]
	default:
		cutoff2 = settings[len(settings)-1] + 1
	}
	klog.V(2).Infof("splitsetup: cutoffs %d, %d (%s mode)", cutoff1, cutoff2, s.mode)
	return
}

// FindCutoff returns the index of the first line of the late segment, see
// FindCutoffs.
func (s *Splitter) FindCutoff(code string) int {
	_, cutoff2 := s.FindCutoffs(code)
	return cutoff2
}

// FindLeadingGlobalStatementsCutoff returns the index of the first line of the
// early segment, see FindCutoffs.
func (s *Splitter) FindLeadingGlobalStatementsCutoff(code string) int {
	cutoff1, _ := s.FindCutoffs(code)
	return cutoff1
}

// SpecialCall is a call to a settings function.
type SpecialCall struct {
	Line int // 1-based line number in the code searched.
	Name string
}

func (c SpecialCall) String() string {
	return fmt.Sprintf("%s (on line %d)", c.Name, c.Line)
}

// CheckForSpecialFunctions returns every line of code that is a call to one
// of the settings functions. Commented out calls are ignored.
func (s *Splitter) CheckForSpecialFunctions(code string) []SpecialCall {
	var calls []SpecialCall
	for ii, line := range strings.Split(RemoveComments(code), "\n") {
		if name, ok := s.settingsCall(line); ok {
			calls = append(calls, SpecialCall{Line: ii + 1, Name: name})
		}
	}
	return calls
}

// SplitResult holds the segments of a static sketch. Each segment is padded
// with blank lines, so its lines have the same numbers as in the original
// code.
type SplitResult struct {
	// Globals holds the leading `global` statements.
	Globals string

	// Settings holds the calls to the settings functions, the early segment.
	Settings string

	// Setup holds the rest of the code, the late segment.
	Setup string

	// NumLines is the number of lines of the original code.
	NumLines int
}

// Late returns the late segment with the leading global statements in place
// of its padding, so they apply to the code run in the late phase.
func (r *SplitResult) Late() string {
	globals := source.SplitLines(r.Globals)
	late := strings.Split(r.Setup, "\n")
	if len(globals) > len(late) {
		return r.Globals
	}
	copy(late, globals)
	return strings.Join(late, "\n")
}

// Split splits a static sketch, code without a setup() function, into its
// segments.
//
// Settings calls after the first statement that is not one are a user
// error, returned as a *MisplacedCallError.
func (s *Splitter) Split(code string) (*SplitResult, error) {
	cutoff1, cutoff2 := s.FindCutoffs(code)
	lines := source.SplitLines(code)
	cutoff1 = min(cutoff1, len(lines))
	cutoff2 = min(max(cutoff2, cutoff1), len(lines))
	r := &SplitResult{
		Globals:  strings.Join(lines[:cutoff1], "\n"),
		Settings: padded(cutoff1, lines[cutoff1:cutoff2]),
		Setup:    padded(cutoff2, lines[cutoff2:]),
		NumLines: len(lines),
	}
	if calls := s.CheckForSpecialFunctions(r.Setup); len(calls) > 0 {
		return nil, &MisplacedCallError{Calls: calls}
	}
	return r, nil
}

// padded returns numBlank empty lines followed by lines.
func padded(numBlank int, lines []string) string {
	return strings.Repeat("\n", numBlank) + strings.Join(lines, "\n")
}

// FunctionSplit holds the two functions setup() is split into.
type FunctionSplit struct {
	// Settings is the source of the settings function, named SettingsName.
	Settings string

	// Setup is the source of the new setup function, named SetupName. It is
	// empty if setup() only held settings calls.
	Setup string
}

const (
	// SettingsName is the name of the function holding the settings calls of setup().
	SettingsName = "_py5_faux_settings"

	// SetupName is the name of the function holding the rest of setup().
	SetupName = "_py5_faux_setup"
)

// SplitFunction splits the setup function, whose definition spans the
// 1-based lines firstLine to lastLine of src, into a settings function and a
// setup function. Both are padded so their statements keep their original
// line numbers in src.
//
// Settings calls made after any other statement are returned as a
// *MisplacedCallError. Otherwise it returns nil if setup() does not start with
// settings calls.
func (s *Splitter) SplitFunction(src string, firstLine, lastLine int) (*FunctionSplit, error) {
	srcLines := source.SplitLines(src)
	if firstLine < 1 || lastLine < firstLine || lastLine > len(srcLines) {
		return nil, errors.Errorf("setup() lines %d to %d out of range, the code has %d lines",
			firstLine, lastLine, len(srcLines))
	}
	lines := srcLines[firstLine-1 : lastLine]
	cutoff1, cutoff2 := s.findCutoffs(strings.Join(lines, "\n"), true)
	cutoff1 = min(cutoff1, len(lines))
	cutoff2 = min(max(cutoff2, cutoff1), len(lines))

	leading := strings.Repeat("\n", firstLine-1)
	settings := leading + "def " + SettingsName + "():\n" +
		strings.Repeat("\n", max(cutoff1-1, 0)) + joinLines(lines[cutoff1:cutoff2])
	setup := leading + "def " + SetupName + "():\n" +
		joinLines(lines[min(1, cutoff1):cutoff1]) + strings.Repeat("\n", cutoff2-cutoff1) + joinLines(lines[cutoff2:])
	if calls := s.CheckForSpecialFunctions(setup); len(calls) > 0 {
		return nil, &MisplacedCallError{Calls: calls}
	}
	if CountNonCommentLines(settings) <= 1 {
		return nil, nil
	}
	split := &FunctionSplit{Settings: settings}
	if CountNonCommentLines(setup) > 1 {
		split.Setup = setup
	}
	return split, nil
}

// joinLines joins lines, each one terminated by a line break.
func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// MisplacedCallError is returned when settings functions are called after
// other code: they can't be moved to settings() without changing the order of
// execution.
type MisplacedCallError struct {
	Calls []SpecialCall
}

// Error implements error.
func (e *MisplacedCallError) Error() string {
	return strings.Join(e.lines(), "\n")
}

func (e *MisplacedCallError) lines() []string {
	calls := make([]string, len(e.Calls))
	for ii, call := range e.Calls {
		calls[ii] = call.String()
	}
	noun := "call"
	if len(e.Calls) != 1 {
		noun = "calls"
	}
	return []string{
		diag.ProblemsHeader(len(e.Calls)),
		fmt.Sprintf("The function %s to %s must be moved to the beginning of your code, before any other code.",
			noun, diag.JoinNatural(calls)),
	}
}

// Name is used as the exception name in a notebook.
func (e *MisplacedCallError) Name() string {
	return "MisplacedCallError"
}

// Traceback returns the lines of the message, the first one colored.
func (e *MisplacedCallError) Traceback() []string {
	lines := e.lines()
	lines[0] = color.New(color.FgRed).Sprint(lines[0])
	return lines
}
