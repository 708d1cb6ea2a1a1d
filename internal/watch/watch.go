// Package watch re-checks a sketch file every time it is saved.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/sketchnb/sketchnb/internal/sketchprep"
	"github.com/sketchnb/sketchnb/internal/source"
	"k8s.io/klog/v2"
)

// DefaultDebounce is the time waited after the last change to the file
// before checking it. Editors often write a file in more than one step.
const DefaultDebounce = 100 * time.Millisecond

// Report is the outcome of checking the file once.
type Report struct {
	Path   string
	Result *sketchprep.Result
	Err    error
}

// Watcher checks a file with a sketchprep.Preparer whenever it changes.
type Watcher struct {
	path     string
	prep     *sketchprep.Preparer
	onReport func(Report)
	debounce time.Duration
}

// New creates a Watcher for the file at path. onReport is called, from the
// goroutine running Run, with the outcome of every check.
func New(path string, prep *sketchprep.Preparer, onReport func(Report)) *Watcher {
	return &Watcher{
		path:     filepath.Clean(path),
		prep:     prep,
		onReport: onReport,
		debounce: DefaultDebounce,
	}
}

// WithDebounce changes the time waited after a change before checking. It
// returns the Watcher itself, so calls can be chained.
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// Check reads and checks the file once.
func (w *Watcher) Check() Report {
	report := Report{Path: w.path}
	content, err := os.ReadFile(w.path)
	if err != nil {
		report.Err = errors.Wrapf(err, "failed to read %q", w.path)
		return report
	}
	report.Result, report.Err = w.prep.Prepare(source.New(w.path, string(content)))
	return report
}

// Run checks the file once and then again after every change, until ctx is
// done. The directory of the file is watched, not the file itself, so that
// editors that save by replacing the file are supported.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrapf(err, "failed to create a filesystem watcher for %q", w.path)
	}
	defer func() { _ = watcher.Close() }()
	dir := filepath.Dir(w.path)
	if err = watcher.Add(dir); err != nil {
		return errors.Wrapf(err, "failed to watch directory %q", dir)
	}
	klog.V(1).Infof("watch: watching %q", w.path)

	w.onReport(w.Check())
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				// Not interested.
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			klog.V(2).Infof("watch: %s", event)
			timer.Reset(w.debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			klog.Warningf("watch: error watching %q: %+v", w.path, err)
		case <-timer.C:
			w.onReport(w.Check())
		}
	}
}
