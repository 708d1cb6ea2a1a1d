// Package cli implements the sketchnb command line: one cobra command per
// file, all sharing the persistent flags of the root command.
package cli

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/sketchnb/sketchnb/internal/reserved"
	"github.com/sketchnb/sketchnb/internal/sketchprep"
	"github.com/sketchnb/sketchnb/internal/source"
	"github.com/sketchnb/sketchnb/version"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"k8s.io/klog/v2"
)

// NewRootCommand creates the sketchnb command with all its subcommands.
// uniqueID names the work directories created by the emit command.
func NewRootCommand(uniqueID string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sketchnb",
		Short: "Check and prepare py5 sketches",
		Long: `sketchnb validates py5 sketches against the binding's reserved words, splits the
settings calls out of setup() and rewrites reads of dynamic variables, writing
the fragments the sketch runner executes.`,
		Version:           version.AppVersion.String(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setUpColor,
	}

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().String("words", "", "TOML file with the reserved words table, instead of the embedded py5 one")
	rootCmd.PersistentFlags().String("mode", "imported", "coding mode of the sketches (imported|module)")
	// klog flags (-v, -vmodule, -logtostderr, ...), registered by klog.InitFlags.
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	rootCmd.AddCommand(
		newCheckCmd(),
		newSplitCmd(),
		newEmitCmd(uniqueID),
		newTranslateCmd(),
		newWatchCmd(),
		newWordsCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// setUpColor configures fatih/color according to the --color flag.
func setUpColor(cmd *cobra.Command, _ []string) error {
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return errors.Wrap(err, "failed to get color flag")
	}
	switch colorFlag {
	case "on", "off", "auto":
	default:
		return errors.Errorf("invalid value %q for --color, must be one of auto, on or off", colorFlag)
	}
	useColor := colorFlag == "on" || (colorFlag == "auto" && isTerminal(cmd.OutOrStdout()))
	color.NoColor = !useColor
	klog.V(2).Infof("colored output: %v", useColor)
	return nil
}

// isTerminal returns whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// loadWords returns the reserved words table selected by --words.
func loadWords(cmd *cobra.Command) (*reserved.Words, error) {
	path, err := cmd.Root().PersistentFlags().GetString("words")
	if err != nil {
		return nil, errors.Wrap(err, "failed to get words flag")
	}
	if path == "" {
		return reserved.Default(), nil
	}
	return reserved.Load(path)
}

// codingMode returns the mode selected by --mode.
func codingMode(cmd *cobra.Command) (source.Mode, error) {
	modeFlag, err := cmd.Root().PersistentFlags().GetString("mode")
	if err != nil {
		return source.ImportedMode, errors.Wrap(err, "failed to get mode flag")
	}
	return source.ParseMode(modeFlag)
}

// newPreparer creates a sketchprep.Preparer configured by the persistent
// flags, plus the given options.
func newPreparer(cmd *cobra.Command, options ...sketchprep.Option) (*sketchprep.Preparer, error) {
	words, err := loadWords(cmd)
	if err != nil {
		return nil, err
	}
	mode, err := codingMode(cmd)
	if err != nil {
		return nil, err
	}
	return sketchprep.New(words, append([]sketchprep.Option{sketchprep.WithMode(mode)}, options...)...), nil
}

// readUnit reads the file at path.
func readUnit(path string) (*source.Unit, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %q", path)
	}
	return source.New(path, string(content)), nil
}

// isImportedModule returns whether unit is a module written in imported
// mode, imported by sketches instead of run.
func isImportedModule(prep *sketchprep.Preparer, unit *source.Unit) bool {
	return prep.Mode() == source.ImportedMode && sketchprep.IsImportedModeModule(unit.Text)
}

// moduleName returns the name the module at path is imported with.
func moduleName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// findImportedModules returns the modules written in imported mode in the
// directory of the sketch at sketchPath.
func findImportedModules(sketchPath string) ([]*source.Unit, error) {
	paths, err := filepath.Glob(filepath.Join(filepath.Dir(sketchPath), "*.py"))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list modules of %q", sketchPath)
	}
	var units []*source.Unit
	for _, path := range paths {
		if filepath.Clean(path) == filepath.Clean(sketchPath) {
			continue
		}
		unit, err := readUnit(path)
		if err != nil {
			return nil, err
		}
		if sketchprep.IsImportedModeModule(unit.Text) {
			units = append(units, unit)
		}
	}
	return units, nil
}

// errUserProblems is returned when some of the checked code has problems,
// after they have been reported. It makes the command exit with a non-zero
// status without printing anything else.
var errUserProblems = errors.New("problems found in the code")

// IsReported returns whether err was already reported to the user.
func IsReported(err error) bool {
	return errors.Is(err, errUserProblems)
}
