// Package diag defines the diagnostics reported about user code and how they
// are formatted for display in a notebook: plain text messages with the
// offending line and a caret, a colored traceback and an HTML report.
package diag

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/exp/constraints"
)

// Kind of Diagnostic.
type Kind int

const (
	AssignmentToReserved Kind = iota
	DeletionOfReserved
	ReservedFunctionDef
	ImportOfHostPackage
)

func (k Kind) String() string {
	switch k {
	case AssignmentToReserved:
		return "AssignmentToReserved"
	case DeletionOfReserved:
		return "DeletionOfReserved"
	case ReservedFunctionDef:
		return "ReservedFunctionDef"
	case ImportOfHostPackage:
		return "ImportOfHostPackage"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Diagnostic is one problem found in the user code.
type Diagnostic struct {
	Kind Kind

	// Word is the reserved identifier involved, or the imported module for
	// ImportOfHostPackage.
	Word string

	// Host is the name of the host package, used in the messages.
	Host string

	// Line is 1-based, Col is the 0-based byte offset within SourceLine.
	Line, Col  int
	SourceLine string
}

// Message returns the one line description of the problem.
func (d Diagnostic) Message() string {
	switch d.Kind {
	case AssignmentToReserved:
		return fmt.Sprintf("Assignment to %s reserved word %q on line %d is discouraged and may cause errors in your sketch.",
			d.Host, d.Word, d.Line)
	case DeletionOfReserved:
		return fmt.Sprintf("Deleting %s reserved word %q on line %d is discouraged and may cause errors in your sketch.",
			d.Host, d.Word, d.Line)
	case ReservedFunctionDef:
		return fmt.Sprintf("Defining a function named after %s reserved word %q on line %d is discouraged and may cause errors in your sketch.",
			d.Host, d.Word, d.Line)
	case ImportOfHostPackage:
		return fmt.Sprintf("Importing %q on line %d is not allowed: the %s library is already imported for you.",
			d.Word, d.Line, d.Host)
	}
	return fmt.Sprintf("Unknown problem (%s) on line %d.", d.Kind, d.Line)
}

// String returns the message followed by the offending line and a caret
// pointing to the problem.
func (d Diagnostic) String() string {
	if d.SourceLine == "" {
		return d.Message()
	}
	return strings.Join([]string{d.Message(), d.SourceLine, CaretLine(d.SourceLine, d.Col)}, "\n")
}

// inBetween clamps x to the range [from, to].
func inBetween[T constraints.Ordered](x, from, to T) T {
	return min(max(x, from), to)
}

// CaretLine returns a line with a "^" under the byte column col of line.
// Tabs in line are kept, so the caret stays aligned however they are rendered,
// and wide characters count for their display width.
func CaretLine(line string, col int) string {
	col = inBetween(col, 0, len(line))
	var sb strings.Builder
	for _, r := range line[:col] {
		if r == '\t' {
			sb.WriteByte('\t')
			continue
		}
		sb.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	sb.WriteByte('^')
	return sb.String()
}

// ProblemsHeader returns the first line of a report with n problems.
func ProblemsHeader(n int) string {
	if n == 1 {
		return "There is a problem with your code."
	}
	return fmt.Sprintf("There are %d problems with your code.", n)
}

// ModuleProblemsHeader returns the first line of a report with n problems
// in the imported module named module.
func ModuleProblemsHeader(n int, module string) string {
	if n == 1 {
		return fmt.Sprintf("There is a problem with the imported %q module.", module)
	}
	return fmt.Sprintf("There are %d problems with the imported %q module.", n, module)
}

// FormatProblems formats a list of problems under an underlined header.
func FormatProblems(problems []string) string {
	return FormatProblemsWithHeader(ProblemsHeader(len(problems)), problems)
}

// FormatProblemsWithHeader formats a list of problems under the given header,
// underlined.
func FormatProblemsWithHeader(header string, problems []string) string {
	return header + "\n" + strings.Repeat("=", len(header)) + "\n" + strings.Join(problems, "\n")
}

// FormatDiagnostics formats diagnostics with FormatProblems.
func FormatDiagnostics(diagnostics []Diagnostic) string {
	return FormatProblems(diagnosticStrings(diagnostics))
}

func diagnosticStrings(diagnostics []Diagnostic) []string {
	problems := make([]string, len(diagnostics))
	for ii, d := range diagnostics {
		problems[ii] = d.String()
	}
	return problems
}

// JoinNatural joins items the way they are listed in English: "a", "a and b",
// "a, b, and c".
func JoinNatural(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	}
	return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
}
