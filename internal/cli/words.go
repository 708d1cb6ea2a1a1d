package cli

import (
	"fmt"
	"strings"

	"github.com/sketchnb/sketchnb/common"
	"github.com/spf13/cobra"
)

func newWordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "words",
		Short: "List the reserved words",
		Args:  cobra.NoArgs,
		RunE:  runWords,
	}
	cmd.Flags().Bool("dynamic", false, "list only the dynamic variables")
	cmd.Flags().Bool("settings", false, "list only the functions that can be called in settings()")
	return cmd
}

func runWords(cmd *cobra.Command, _ []string) error {
	dynamic, err := cmd.Flags().GetBool("dynamic")
	if err != nil {
		return err
	}
	settings, err := cmd.Flags().GetBool("settings")
	if err != nil {
		return err
	}
	words, err := loadWords(cmd)
	if err != nil {
		return err
	}
	set := words.Reserved
	switch {
	case dynamic:
		set = words.Dynamic
	case settings:
		set = words.SettingsFunctions
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(common.Sorted(set), "\n"))
	return err
}
