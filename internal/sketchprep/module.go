package sketchprep

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sketchnb/sketchnb/common"
	"github.com/sketchnb/sketchnb/internal/diag"
	"github.com/sketchnb/sketchnb/internal/pysyntax"
	"github.com/sketchnb/sketchnb/internal/reserved"
	"github.com/sketchnb/sketchnb/internal/rewrite"
	"github.com/sketchnb/sketchnb/internal/source"
	"k8s.io/klog/v2"
)

// ImportedModeMarker is the comment line that marks a module imported by a
// sketch as written in imported mode.
const ImportedModeMarker = "# PY5 IMPORTED MODE CODE"

var importedModeMarkerRE = regexp.MustCompile(`(?mi)^# PY5 IMPORTED MODE CODE\s*$`)

// IsImportedModeModule returns whether code has a line with the
// ImportedModeMarker, case-insensitive.
func IsImportedModeModule(code string) bool {
	return importedModeMarkerRE.MatchString(code)
}

// DynamicVariablesHeader returns the code defining one function per dynamic
// variable, returning its value in the current sketch. Imported modules need
// it: they don't run in the sketch's namespace.
func DynamicVariablesHeader(words *reserved.Words) string {
	dynamic := common.Sorted(words.Dynamic)
	parts := make([]string, len(dynamic))
	for ii, name := range dynamic {
		parts[ii] = fmt.Sprintf("def %[1]s():\n    return get_current_sketch().%[1]s\n", name)
	}
	return strings.Join(parts, "\n\n")
}

// PrepareImportedModule prepares a module, named moduleName, imported by a
// sketch and written in imported mode (see IsImportedModeModule).
//
// Reserved-word problems are always fatal for modules: they are returned as
// a *ProblemsError whose report names the module. The returned fragment has
// its reads of dynamic variables rewritten, and a Header defining them.
func (p *Preparer) PrepareImportedModule(unit *source.Unit, moduleName string) (*Fragment, error) {
	tree, err := pysyntax.Parse(unit.Filename, unit.Text)
	if err != nil {
		return nil, err
	}
	diagnostics, err := p.moduleGuard.Check(unit, tree)
	if err != nil {
		return nil, err
	}
	if len(diagnostics) > 0 {
		report := diag.NewReport("ImportedModuleProblems", unit.Filename, unit.Lines(), diagnostics, nil).
			WithHeader(diag.ModuleProblemsHeader(len(diagnostics), moduleName))
		return nil, &ProblemsError{Report: report}
	}
	tree = p.rewriter.Rewrite(tree)
	klog.V(1).Infof("sketchprep: imported module %q (%s) prepared", moduleName, unit.Filename)
	return &Fragment{
		Phase:    ImportedModulePhase,
		Filename: unit.Filename,
		Code:     rewrite.Render(unit.Text, tree),
		Tree:     tree,
		Header:   DynamicVariablesHeader(p.words),
	}, nil
}
