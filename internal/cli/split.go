package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/sketchnb/sketchnb/internal/sketchprep"
	"github.com/spf13/cobra"
)

func newSplitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split [flags] <file.py>",
		Short: "Print the fragments a sketch is split into, as the sketch runner receives them",
		Args:  cobra.ExactArgs(1),
		RunE:  runSplit,
	}
	cmd.Flags().Bool("static", false, "split as a static sketch, even if it defines settings(), setup() or draw()")
	cmd.Flags().Bool("no-default-settings", false, "don't add a default size() call to static sketches without settings calls")
	return cmd
}

func runSplit(cmd *cobra.Command, args []string) error {
	static, err := cmd.Flags().GetBool("static")
	if err != nil {
		return err
	}
	noDefault, err := cmd.Flags().GetBool("no-default-settings")
	if err != nil {
		return err
	}
	var options []sketchprep.Option
	if noDefault {
		options = append(options, sketchprep.WithDefaultSettings(""))
	}
	prep, err := newPreparer(cmd, options...)
	if err != nil {
		return err
	}
	unit, err := readUnit(args[0])
	if err != nil {
		return err
	}

	var (
		fragments []*sketchprep.Fragment
		r         *sketchprep.Result
		f         *sketchprep.Fragment
	)
	switch {
	case static:
		r, err = prep.PrepareStatic(unit)
	case isImportedModule(prep, unit):
		f, err = prep.PrepareImportedModule(unit, moduleName(unit.Filename))
	default:
		r, err = prep.Prepare(unit)
	}
	out := cmd.OutOrStdout()
	if err != nil {
		if sketchprep.IsUserError(err) {
			printError(out, unit.Filename, err)
			return errUserProblems
		}
		return err
	}

	if r != nil {
		fragments = r.Fragments()
	} else {
		fragments = []*sketchprep.Fragment{f}
	}
	for _, fragment := range fragments {
		header := fmt.Sprintf("# --- %s: %s", fragment.Phase, fragment.Filename)
		switch {
		case fragment.FunctionName != "":
			header += fmt.Sprintf(" (%s)", fragment.FunctionName)
		case fragment.Phase == sketchprep.ImportedModulePhase:
			header += fmt.Sprintf(" (module %s)", moduleName(fragment.Filename))
		}
		code, err := fragment.Take()
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, color.CyanString(header))
		_, _ = fmt.Fprint(out, code)
		if !strings.HasSuffix(code, "\n") {
			_, _ = fmt.Fprintln(out)
		}
	}
	return nil
}
