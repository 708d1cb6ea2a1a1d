// sketchnb checks and prepares py5 sketches for the sketch runner.
//
// Run `sketchnb --help` for the list of commands.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/sketchnb/sketchnb/internal/cli"
	"github.com/sketchnb/sketchnb/internal/workdir"
	klog "k8s.io/klog/v2"
)

var (
	// UniqueID uniquely identifies an execution. Used to name the work
	// directory holding the prepared fragments, and for logging.
	UniqueID        string
	coloredUniqueID string
)

func init() {
	UniqueID = workdir.NewUniqueID()
	coloredUniqueID = fmt.Sprintf("%s[%s]%s ", ColorBgYellow, UniqueID, ColorReset)
}

func main() {
	klog.InitFlags(nil)
	defer klog.Flush()
	setUpKlog()

	rootCmd := cli.NewRootCommand(UniqueID)
	if err := rootCmd.Execute(); err != nil {
		if !cli.IsReported(err) {
			_, _ = fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		}
		klog.Flush()
		os.Exit(1)
	}
}

var (
	ColorReset    = "\033[0m"
	ColorBgYellow = "\033[7;39;32m"
)

// UniqueIDFilter tags every klog line with the run's UniqueID, which also
// names the work directory emit writes to, so logs of concurrent sketchnb
// runs can be told apart.
type UniqueIDFilter struct{}

// prepend inserts element at the front of slice, reusing its storage.
func prepend[T any](slice []T, element T) []T {
	slice = append(slice, element) // It will be overwritten.
	copy(slice[1:], slice)         // Shift to the "right"
	slice[0] = element
	return slice
}

// Filter implements klog.LogFilter interface.
func (UniqueIDFilter) Filter(args []interface{}) []interface{} {
	return prepend(args, any(coloredUniqueID))
}

// FilterF implements klog.LogFilter interface.
func (UniqueIDFilter) FilterF(format string, args []interface{}) (string, []interface{}) {
	return "%s" + format, prepend(args, any(coloredUniqueID))
}

// FilterS implements klog.LogFilter interface.
func (UniqueIDFilter) FilterS(msg string, keysAndValues []interface{}) (string, []interface{}) {
	return coloredUniqueID + msg, keysAndValues
}

// setUpKlog prefixes the log lines of this run, from klog and from the
// standard log package, with its UniqueID.
func setUpKlog() {
	log.SetPrefix(coloredUniqueID)
	klog.SetLogFilter(UniqueIDFilter{})
}
