// Package guard finds code that shadows or removes the reserved words of the
// host binding, or that imports the binding a second time.
//
// Assignments, deletions and function definitions using a reserved word are
// collected as diagnostics: they may be intentional (a local `size` in a
// helper function) so they are not fatal. An import of the host package is
// always wrong in imported mode and rejects the input.
package guard

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/sketchnb/sketchnb/internal/diag"
	"github.com/sketchnb/sketchnb/internal/pysyntax"
	"github.com/sketchnb/sketchnb/internal/reserved"
	"github.com/sketchnb/sketchnb/internal/source"
	"k8s.io/klog/v2"
)

// Guard checks user code against a reserved-word table. It holds no state
// between calls to Scan or Check, and can be used concurrently as long as
// the output writer (if any) can.
type Guard struct {
	words           *reserved.Words
	out             io.Writer
	hostImportCheck bool
}

// Option configures a Guard.
type Option func(g *Guard)

// WithReportImmediately makes the Guard write each diagnostic to w at the
// moment it is found, besides returning it. A nil w is the same as not using
// the option: diagnostics are only collected.
func WithReportImmediately(w io.Writer) Option {
	return func(g *Guard) {
		g.out = w
	}
}

// WithHostImportCheck enables (the default) or disables the rejection of
// imports of the host package. It should be disabled for module mode code,
// where importing the package is required.
func WithHostImportCheck(enabled bool) Option {
	return func(g *Guard) {
		g.hostImportCheck = enabled
	}
}

// New creates a Guard for the given reserved words.
func New(words *reserved.Words, options ...Option) *Guard {
	g := &Guard{words: words, hostImportCheck: true}
	for _, option := range options {
		option(g)
	}
	return g
}

// ReportsImmediately returns whether diagnostics are written out as they are found.
func (g *Guard) ReportsImmediately() bool {
	return g.out != nil
}

// Scan parses the unit and checks it, see Check. A syntax error is returned
// as a *pysyntax.SyntaxError.
func (g *Guard) Scan(unit *source.Unit) (*pysyntax.Module, []diag.Diagnostic, error) {
	tree, err := pysyntax.Parse(unit.Filename, unit.Text)
	if err != nil {
		return nil, nil, err
	}
	diagnostics, err := g.Check(unit, tree)
	return tree, diagnostics, err
}

// Check walks tree, parsed from unit, and returns the diagnostics found, in
// source order.
//
// The only error returned is an *InputRejectedError, for an import of the
// host package while the check is enabled. The diagnostics found up to that
// point are returned along with it.
func (g *Guard) Check(unit *source.Unit, tree *pysyntax.Module) (diagnostics []diag.Diagnostic, err error) {
	lines := unit.Lines()
	report := func(kind diag.Kind, word string, pos pysyntax.Pos) diag.Diagnostic {
		d := diag.Diagnostic{
			Kind: kind,
			Word: word,
			Host: g.words.HostPackage,
			Line: pos.Line,
			Col:  max(pos.Col, 0),
		}
		if pos.Line >= 1 && pos.Line <= len(lines) {
			d.SourceLine = lines[pos.Line-1]
		}
		if g.out != nil {
			if _, werr := fmt.Fprintln(g.out, d.String()); werr != nil {
				klog.Warningf("failed to report problem in %q: %+v", unit.Filename, werr)
			}
		}
		return d
	}

	pysyntax.Inspect(tree, func(node pysyntax.Node) bool {
		if err != nil {
			return false
		}
		switch n := node.(type) {
		case *pysyntax.Name:
			if !g.words.IsReserved(n.Id) {
				return true
			}
			switch n.Ctx {
			case pysyntax.Store:
				diagnostics = append(diagnostics, report(diag.AssignmentToReserved, n.Id, n.Pos()))
			case pysyntax.Del:
				diagnostics = append(diagnostics, report(diag.DeletionOfReserved, n.Id, n.Pos()))
			}
		case *pysyntax.FunctionDef:
			if g.words.IsReserved(n.Name) {
				diagnostics = append(diagnostics, report(diag.ReservedFunctionDef, n.Name, n.NamePos))
			}
		case *pysyntax.Import:
			if !g.hostImportCheck {
				return true
			}
			for _, alias := range n.Names {
				if g.words.IsHostModule(alias.Name) {
					d := report(diag.ImportOfHostPackage, alias.Name, n.Pos())
					err = &InputRejectedError{Diagnostic: d}
					return false
				}
			}
		case *pysyntax.ImportFrom:
			if g.hostImportCheck && n.Level == 0 && g.words.IsHostModule(n.Module) {
				d := report(diag.ImportOfHostPackage, n.Module, n.Pos())
				err = &InputRejectedError{Diagnostic: d}
				return false
			}
		}
		return true
	})
	slices.SortStableFunc(diagnostics, func(a, b diag.Diagnostic) int {
		if a.Line != b.Line {
			return a.Line - b.Line
		}
		return a.Col - b.Col
	})
	klog.V(2).Infof("guard: %d reserved-word problem(s) in %q", len(diagnostics), unit.Filename)
	return diagnostics, err
}

// InputRejectedError is returned when the code imports the host package.
// Its message is the diagnostic text.
type InputRejectedError struct {
	Diagnostic diag.Diagnostic
}

// Error implements error.
func (e *InputRejectedError) Error() string {
	return e.Diagnostic.String()
}

// Name is used as the exception name in a notebook.
func (e *InputRejectedError) Name() string {
	return "InputRejected"
}

// Traceback returns the lines of the message, the first one colored.
func (e *InputRejectedError) Traceback() []string {
	lines := strings.Split(e.Error(), "\n")
	lines[0] = color.New(color.FgRed).Sprint(lines[0])
	return lines
}
