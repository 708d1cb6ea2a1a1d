package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/sketchnb/sketchnb/internal/diag"
	"github.com/sketchnb/sketchnb/internal/sketchprep"
	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [flags] <file.py>...",
		Short: "Check sketches for syntax errors, reserved words and misplaced settings calls",
		Long: `Check sketches for syntax errors, reserved words and misplaced settings calls.

Files marked with a "# PY5 IMPORTED MODE CODE" line are checked as modules
imported by sketches: any use of a reserved word in them is an error.`,
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCheck,
	}
	cmd.Flags().Bool("strict", false, "treat reserved words problems as errors")
	cmd.Flags().Bool("immediate", false, "report each problem as soon as it is found")
	cmd.Flags().String("html", "", "also write an HTML report of the reserved words problems to this file")
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	strict, err := cmd.Flags().GetBool("strict")
	if err != nil {
		return errors.Wrap(err, "failed to get strict flag")
	}
	immediate, err := cmd.Flags().GetBool("immediate")
	if err != nil {
		return errors.Wrap(err, "failed to get immediate flag")
	}
	htmlPath, err := cmd.Flags().GetString("html")
	if err != nil {
		return errors.Wrap(err, "failed to get html flag")
	}

	out := cmd.OutOrStdout()
	options := []sketchprep.Option{sketchprep.WithStrictReservedWords(strict)}
	if immediate {
		options = append(options, sketchprep.WithReportImmediately(out))
	}
	prep, err := newPreparer(cmd, options...)
	if err != nil {
		return err
	}

	var (
		reports   []*diag.Report
		numFailed int
	)
	for _, path := range args {
		unit, err := readUnit(path)
		if err != nil {
			return err
		}
		var diagnostics []diag.Diagnostic
		if isImportedModule(prep, unit) {
			_, err = prep.PrepareImportedModule(unit, moduleName(path))
		} else {
			var r *sketchprep.Result
			if r, err = prep.Prepare(unit); err == nil {
				diagnostics = r.Diagnostics
			}
		}
		if err != nil {
			if !sketchprep.IsUserError(err) {
				return err
			}
			numFailed++
			printError(out, path, err)
			var problems *sketchprep.ProblemsError
			if errors.As(err, &problems) {
				reports = append(reports, problems.Report)
			}
			continue
		}
		if len(diagnostics) == 0 {
			_, _ = fmt.Fprintf(out, "%s: %s\n", path, color.GreenString("ok"))
			continue
		}
		if !immediate {
			_, _ = fmt.Fprintf(out, "%s:\n%s\n", color.YellowString(path), diag.FormatDiagnostics(diagnostics))
		}
		reports = append(reports, diag.NewReport("ReservedWordProblems", path, unit.Lines(), diagnostics, nil))
	}

	if htmlPath != "" {
		if err := writeHTMLReports(htmlPath, reports); err != nil {
			return err
		}
	}
	if numFailed > 0 {
		return errors.WithMessagef(errUserProblems, "%d of %d file(s) rejected", numFailed, len(args))
	}
	return nil
}

// printError prints a user error the way the notebook displays it.
func printError(w io.Writer, path string, err error) {
	_, _ = fmt.Fprintf(w, "%s: %s\n%s\n", color.RedString(path), color.RedString("rejected"), sketchprep.FormatError(err))
}

func writeHTMLReports(path string, reports []*diag.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create HTML report %q", path)
	}
	for _, report := range reports {
		if err = report.WriteHTML(f); err != nil {
			_ = f.Close()
			return errors.WithMessagef(err, "failed to write HTML report %q", path)
		}
	}
	return errors.Wrapf(f.Close(), "failed to close HTML report %q", path)
}
