// Package watch reruns a function when watched files change.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDelay is how long events are collected before a run.
const DefaultDelay = 200 * time.Millisecond

// Func is the work done on every change. Its error is logged and does not
// stop the watcher.
type Func func(context.Context) error

// Watcher reruns a Func when one of its files is written or replaced.
type Watcher struct {
	files  map[string]bool
	dirs   []string
	delay  time.Duration
	logger zerolog.Logger
	run    Func
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDelay sets the debounce delay.
func WithDelay(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.delay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(w *Watcher) {
		w.logger = l
	}
}

// New returns a watcher of files. Their directories are watched rather
// than the files, so editors that save by renaming are seen as well.
func New(files []string, run Func, opts ...Option) (*Watcher, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("watch: no files to watch")
	}
	w := &Watcher{
		files:  make(map[string]bool, len(files)),
		delay:  DefaultDelay,
		logger: zerolog.Nop(),
		run:    run,
	}
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("watch: resolve %s: %w", f, err)
		}
		w.files[abs] = true
		if dir := filepath.Dir(abs); !slices.Contains(w.dirs, dir) {
			w.dirs = append(w.dirs, dir)
		}
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run calls the function once, then again after every burst of changes,
// until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	for _, dir := range w.dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch directory: %w", err)
		}
	}
	w.invoke(ctx)
	w.logger.Info().Strs("dirs", w.dirs).Msg("watching for changes")

	timer := time.NewTimer(w.delay)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.files[filepath.Clean(event.Name)] {
				continue
			}
			// Atomic saves show up as create or rename.
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug().
				Str("event", event.Op.String()).
				Str("file", event.Name).
				Msg("file changed")
			timer.Reset(w.delay)

		case <-timer.C:
			w.invoke(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("file watcher error")

		case <-ctx.Done():
			return nil
		}
	}
}

func (w *Watcher) invoke(ctx context.Context) {
	start := time.Now()
	if err := w.run(ctx); err != nil {
		w.logger.Error().Err(err).Msg("run failed")
		return
	}
	w.logger.Debug().Dur("took", time.Since(start)).Msg("run finished")
}
