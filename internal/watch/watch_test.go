package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sketchnb/sketchnb/internal/reserved"
	"github.com/sketchnb/sketchnb/internal/sketchprep"
	"github.com/sketchnb/sketchnb/internal/splitsetup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sketch.py")
	w := New(path, sketchprep.New(reserved.Default()), func(Report) {})
	report := w.Check()
	assert.Error(t, report.Err, "file doesn't exist yet")

	require.NoError(t, os.WriteFile(path, []byte("size(10, 10)\nrect(0, 0, width, 5)\n"), 0644))
	report = w.Check()
	require.NoError(t, report.Err)
	assert.Equal(t, "\nrect(0, 0, width(), 5)", report.Result.Late.Code)
}

func TestRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sketch.py")
	require.NoError(t, os.WriteFile(path, []byte("size(10, 10)\n"), 0644))

	reports := make(chan Report, 10)
	w := New(path, sketchprep.New(reserved.Default()), func(r Report) { reports <- r }).
		WithDebounce(10 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- w.Run(ctx) }()

	select {
	case r := <-reports:
		require.NoError(t, r.Err)
		assert.Equal(t, path, r.Path)
	case <-time.After(5 * time.Second):
		t.Fatal("no initial report")
	}

	require.NoError(t, os.WriteFile(path, []byte("background(0)\nsize(10, 10)\n"), 0644))
	// The write may be seen in more than one step: wait for the final content.
	timeout := time.After(5 * time.Second)
	for found := false; !found; {
		select {
		case r := <-reports:
			var misplaced *splitsetup.MisplacedCallError
			found = errors.As(r.Err, &misplaced)
		case <-timeout:
			t.Fatal("no report after the file changed")
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run didn't return after the context was canceled")
	}
}
