package cli

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/sketchnb/sketchnb/internal/diag"
	"github.com/sketchnb/sketchnb/internal/sketchprep"
	"github.com/sketchnb/sketchnb/internal/watch"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [flags] <file.py>",
		Short: "Check a sketch again every time it is saved, until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatch,
	}
	cmd.Flags().Duration("debounce", watch.DefaultDebounce, "time to wait after a change before checking")
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	debounce, err := cmd.Flags().GetDuration("debounce")
	if err != nil {
		return err
	}
	prep, err := newPreparer(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	w := watch.New(args[0], prep, func(report watch.Report) {
		stamp := time.Now().Format(time.TimeOnly)
		switch {
		case report.Err != nil && sketchprep.IsUserError(report.Err):
			_, _ = fmt.Fprintf(out, "[%s] ", stamp)
			printError(out, report.Path, report.Err)
		case report.Err != nil:
			_, _ = fmt.Fprintf(out, "[%s] %s: %v\n", stamp, color.RedString(report.Path), report.Err)
		case len(report.Result.Diagnostics) > 0:
			_, _ = fmt.Fprintf(out, "[%s] %s:\n%s\n", stamp, color.YellowString(report.Path),
				diag.FormatDiagnostics(report.Result.Diagnostics))
		default:
			_, _ = fmt.Fprintf(out, "[%s] %s: %s\n", stamp, report.Path, color.GreenString("ok"))
		}
	})
	return w.WithDebounce(debounce).Run(ctx)
}
