package cli

import (
	"fmt"

	"github.com/sketchnb/sketchnb/version"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			short, err := cmd.Flags().GetBool("short")
			if err != nil {
				return err
			}
			if short {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), version.AppVersion.String())
				return err
			}
			version.AppVersion.Print(cmd.OutOrStdout())
			return nil
		},
	}
	cmd.Flags().BoolP("short", "s", false, "print only the version number")
	return cmd
}
