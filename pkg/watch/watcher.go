// Package watch re-runs analysis for source files as they change on disk.
package watch

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/qalab/qametrics/internal/logging"
	"github.com/qalab/qametrics/pkg/config"
	"github.com/qalab/qametrics/pkg/parser"
)

// DefaultDebounce is how long a file must be quiet before it is analyzed.
const DefaultDebounce = 500 * time.Millisecond

// Watcher monitors files for changes and triggers analysis.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	config    *config.Config
	parser    *parser.Parser
	debounce  time.Duration
	path      string
	callback  func(path string)
	out       io.Writer
	logger    *log.Logger
	mu        sync.Mutex
	pending   map[string]time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithOutput sets where change banners are written. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(wt *Watcher) {
		wt.out = w
	}
}

// WithLogger sets the logger for watch errors.
func WithLogger(l *log.Logger) Option {
	return func(wt *Watcher) {
		wt.logger = l
	}
}

// NewWatcher creates a new file watcher rooted at path.
func NewWatcher(path string, cfg *config.Config, debounce time.Duration, opts ...Option) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		config:    cfg,
		parser:    parser.New(parser.WithExtensions(cfg.Analysis.Extensions...)),
		debounce:  debounce,
		path:      path,
		out:       os.Stdout,
		logger:    logging.Discard(),
		pending:   make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// SetCallback sets the function to call when a file changes.
func (w *Watcher) SetCallback(cb func(path string)) {
	w.callback = cb
}

// addTree registers dir and every non-excluded directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.path && w.excludedDir(path) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

func (w *Watcher) excludedDir(path string) bool {
	rel, err := filepath.Rel(w.path, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	return w.config.ShouldExclude(rel + string(filepath.Separator))
}

// Start watches until ctx is cancelled or the watcher is stopped. Callbacks
// run one at a time on the debounce goroutine, which has exited by the time
// Start returns.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addTree(w.path); err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	dirs := w.WatchedDirs()
	w.logger.WithField("dirs", len(dirs)).Debug("watch registered")
	cyan.Fprintf(w.out, "Watching for changes in %s (%d directories)...\n", w.path, len(dirs))
	cyan.Fprintln(w.out, "Press Ctrl+C to stop")
	io.WriteString(w.out, "\n")

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.processDebounced(ctx)
	}()
	defer func() {
		cancel()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("watch error")
		}
	}
}

// handleEvent processes a filesystem event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Only care about writes and creates
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	path := event.Name

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !w.excludedDir(path) {
				if err := w.addTree(path); err != nil {
					w.logger.WithError(err).WithField("path", path).Warn("watching new directory")
				}
			}
			return
		}
	}

	if !w.parser.Supports(path) {
		return
	}
	rel, err := filepath.Rel(w.path, path)
	if err != nil {
		rel = path
	}
	if w.config.ShouldExclude(rel) || !w.config.ShouldInclude(rel) {
		return
	}

	w.mu.Lock()
	w.pending[path] = time.Now()
	w.mu.Unlock()
}

// processDebounced processes pending changes after debounce period.
func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, path := range w.takeReady(time.Now()) {
				w.runCallback(path)
			}
		}
	}
}

// takeReady removes and returns, sorted, the files that have been stable for
// the debounce period.
func (w *Watcher) takeReady(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var ready []string
	for path, lastMod := range w.pending {
		if now.Sub(lastMod) >= w.debounce {
			ready = append(ready, path)
		}
	}
	for _, path := range ready {
		delete(w.pending, path)
	}
	sort.Strings(ready)
	return ready
}

// runCallback executes the callback for a changed file.
func (w *Watcher) runCallback(path string) {
	if w.callback == nil {
		return
	}
	relPath, err := filepath.Rel(w.path, path)
	if err != nil {
		relPath = path
	}

	color.New(color.FgYellow).Fprintf(w.out, "File changed: %s\n", relPath)
	io.WriteString(w.out, strings.Repeat("-", 40)+"\n")

	w.callback(path)

	io.WriteString(w.out, "\n")
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// WatchedDirs returns the directories currently watched.
func (w *Watcher) WatchedDirs() []string {
	return w.fsWatcher.WatchList()
}
