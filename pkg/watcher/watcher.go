package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tbakker/sno-graph/pkg/logging"
)

// ChangeEvent represents a batch of record-file changes under the
// watched input path.
type ChangeEvent struct {
	Paths     []string
	Timestamp time.Time
}

// InputWatcher watches a record bundle file or a directory tree of
// record files for changes.
type InputWatcher struct {
	watcher *fsnotify.Watcher
	input   string
	events  chan ChangeEvent
	log     *slog.Logger
}

// NewInputWatcher creates a watcher for the given input path.
func NewInputWatcher(input string) (*InputWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &InputWatcher{
		watcher: w,
		input:   input,
		events:  make(chan ChangeEvent, 100),
		log:     logging.New("watcher"),
	}, nil
}

// Start registers the watch points and begins delivering events until
// the context is canceled.
func (w *InputWatcher) Start(ctx context.Context) error {
	info, err := os.Stat(w.input)
	if err != nil {
		return fmt.Errorf("stat input: %w", err)
	}

	if info.IsDir() {
		if err := w.watchTree(); err != nil {
			return err
		}
	} else {
		// fsnotify watches directories reliably across platforms;
		// watch the parent and filter on the file name.
		if err := w.watcher.Add(filepath.Dir(w.input)); err != nil {
			return fmt.Errorf("failed to watch %s: %w", w.input, err)
		}
	}

	w.log.Info("watching input for changes", "path", w.input)
	go w.processEvents(ctx)
	return nil
}

// watchTree registers every directory under the input root.
func (w *InputWatcher) watchTree() error {
	count := 0
	err := filepath.Walk(w.input, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if !info.IsDir() {
			return nil
		}
		if strings.HasPrefix(info.Name(), ".") && path != w.input {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.log.Warn("failed to watch directory", "path", path, "error", err)
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk input tree: %w", err)
	}

	w.log.Info("monitoring directories", "count", count)
	return nil
}

// processEvents batches raw fsnotify events into ChangeEvents.
func (w *InputWatcher) processEvents(ctx context.Context) {
	var pending []string

	flushTimer := time.NewTimer(100 * time.Millisecond)
	flushTimer.Stop()

	flush := func() {
		if len(pending) == 0 {
			return
		}
		w.events <- ChangeEvent{Paths: pending, Timestamp: time.Now()}
		pending = nil
	}

	for {
		select {
		case <-ctx.Done():
			w.watcher.Close()
			close(w.events)
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event.Name) {
				continue
			}
			pending = append(pending, event.Name)
			flushTimer.Reset(100 * time.Millisecond)

		case <-flushTimer.C:
			flush()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("watcher error", "error", err)
		}
	}
}

// relevant filters events down to the watched bundle file or record
// files inside the watched tree.
func (w *InputWatcher) relevant(path string) bool {
	if path == w.input {
		return true
	}
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// Events returns the channel of change events.
func (w *InputWatcher) Events() <-chan ChangeEvent {
	return w.events
}

// Stop stops the watcher.
func (w *InputWatcher) Stop() error {
	return w.watcher.Close()
}
