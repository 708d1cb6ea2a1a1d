package cli

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/sketchnb/sketchnb/internal/translate"
	"github.com/spf13/cobra"
)

func newTranslateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate [flags] <src> <dest>",
		Short: "Translate a file or a directory of sketches from one coding mode to another",
		Long: `Translate a file or all the files with the given extension in a directory.

Supported translations, selected with --from:
  imported    imported mode to module mode (adds the "py5." prefixes)
  module      module mode to imported mode (removes them)
  processing  processing.py code to imported mode`,
		Args: cobra.ExactArgs(2),
		RunE: runTranslate,
	}
	cmd.Flags().String("from", "imported", "coding mode of the source code (imported|module|processing)")
	cmd.Flags().String("ext", ".py", "extension of the files translated when translating a directory")
	return cmd
}

func runTranslate(cmd *cobra.Command, args []string) error {
	from, err := cmd.Flags().GetString("from")
	if err != nil {
		return err
	}
	ext, err := cmd.Flags().GetString("ext")
	if err != nil {
		return err
	}
	words, err := loadWords(cmd)
	if err != nil {
		return err
	}

	var t *translate.Translator
	switch from {
	case "imported":
		t = translate.ImportedToModule(words)
	case "module":
		t = translate.ModuleToImported(words)
	case "processing":
		t = translate.ProcessingPyToImported()
	default:
		return errors.Errorf("invalid value %q for --from, must be one of imported, module or processing", from)
	}

	src, dest := args[0], args[1]
	info, err := os.Stat(src)
	if err != nil {
		return errors.Wrapf(err, "failed to access %q", src)
	}
	if info.IsDir() {
		_, err = t.Dir(cmd.Context(), src, dest, ext, cmd.OutOrStdout())
		return err
	}
	if err = t.File(src, dest); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "translated %s to %s\n", src, dest)
	return nil
}
