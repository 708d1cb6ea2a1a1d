package cli

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sketchnb/sketchnb/internal/sketchprep"
	"github.com/sketchnb/sketchnb/internal/source"
	"github.com/sketchnb/sketchnb/internal/util"
	"github.com/sketchnb/sketchnb/internal/workdir"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

func newEmitCmd(uniqueID string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "emit [flags] <file.py>",
		Short: "Write the fragments of a sketch and the script that runs them to a work directory",
		Long: `Write the fragments of a sketch and the script that runs them to a work directory.

In imported mode, the modules in the sketch's directory marked with a
"# PY5 IMPORTED MODE CODE" line are prepared too, and written to the work
directory along with a loader the sketch imports instead of the module.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmit(cmd, args, uniqueID)
		},
	}
	cmd.Flags().String("dir", "", "parent of the work directory (default is the system temporary directory)")
	cmd.Flags().Bool("static", false, "emit as a static sketch, even if it defines settings(), setup() or draw()")
	cmd.Flags().Bool("exit-if-error", false, "exit the sketch if it stops because of an error, instead of leaving its window open")
	cmd.Flags().Bool("keep", true, "keep the work directory; if false it is removed after writing, which is only useful to check the sketch")
	return cmd
}

func runEmit(cmd *cobra.Command, args []string, uniqueID string) error {
	parent, err := cmd.Flags().GetString("dir")
	if err != nil {
		return err
	}
	keep, err := cmd.Flags().GetBool("keep")
	if err != nil {
		return err
	}
	static, err := cmd.Flags().GetBool("static")
	if err != nil {
		return err
	}
	exitIfError, err := cmd.Flags().GetBool("exit-if-error")
	if err != nil {
		return err
	}
	words, err := loadWords(cmd)
	if err != nil {
		return err
	}
	prep, err := newPreparer(cmd)
	if err != nil {
		return err
	}
	unit, err := readUnit(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	var r *sketchprep.Result
	if static {
		r, err = prep.PrepareStatic(unit)
	} else {
		r, err = prep.Prepare(unit)
	}
	if err != nil {
		if sketchprep.IsUserError(err) {
			printError(out, unit.Filename, err)
			return errUserProblems
		}
		return err
	}
	var modules []*sketchprep.Fragment
	if prep.Mode() == source.ImportedMode {
		units, err := findImportedModules(unit.Filename)
		if err != nil {
			return err
		}
		for _, moduleUnit := range units {
			f, err := prep.PrepareImportedModule(moduleUnit, moduleName(moduleUnit.Filename))
			if err != nil {
				if sketchprep.IsUserError(err) {
					printError(out, moduleUnit.Filename, err)
					return errUserProblems
				}
				return err
			}
			modules = append(modules, f)
		}
	}

	m, err := workdir.New(parent, uniqueID, words.HostPackage)
	if err != nil {
		return err
	}
	if !keep {
		defer func() { util.ReportError(m.Finalize()) }()
	}
	m.ExitIfError = exitIfError
	for _, f := range modules {
		loader, err := m.WriteModule(f, moduleName(f.Filename))
		if err != nil {
			return errors.WithMessagef(err, "failed to emit module %q", f.Filename)
		}
		klog.V(1).Infof("emitted module %q to %s", f.Filename, loader)
	}
	framework, err := m.WriteResult(r)
	if err != nil {
		return errors.WithMessagef(err, "failed to emit %q", unit.Filename)
	}
	klog.V(1).Infof("emitted %q to %s", unit.Filename, m.Dir)
	_, _ = fmt.Fprintln(out, framework)
	return nil
}
