package sources

import (
	"context"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// skipDirectories are never watched.
var skipDirectories = map[string]bool{
	".git":         true,
	"node_modules": true,
}

const eventChannelBuffer = 100

// Watcher reports changed source files under a scanner's root.
type Watcher struct {
	scanner   *Scanner
	fsWatcher *fsnotify.Watcher
	skip      map[string]bool
	events    chan string
	errors    chan error
}

// NewWatcher creates a watcher. Directories named in exclude (root-relative)
// are not watched, typically the bundle output.
func (s *Scanner) NewWatcher(exclude ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	skip := make(map[string]bool, len(exclude))
	for _, dir := range exclude {
		if abs, err := filepath.Abs(s.Abs(dir)); err == nil {
			skip[abs] = true
		}
	}

	return &Watcher{
		scanner:   s,
		fsWatcher: fw,
		skip:      skip,
		events:    make(chan string, eventChannelBuffer),
		errors:    make(chan error, 1),
	}, nil
}

// Start watches the root recursively until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	for dir := range w.directories(w.scanner.root) {
		if err := w.fsWatcher.Add(dir); err != nil {
			return err
		}
	}

	go w.processEvents(ctx)
	return nil
}

// Stop releases the watcher.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// Events yields the root-relative path of every written or created file
// that is not skipped.
func (w *Watcher) Events() iter.Seq[string] {
	return func(yield func(string) bool) {
		for path := range w.events {
			if !yield(path) {
				return
			}
		}
	}
}

// Errors carries file system errors. Older errors are dropped while one is
// pending. The channel is closed once the watcher stops.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

func (w *Watcher) directories(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // unreadable directories are skipped
			}
			if !d.IsDir() {
				return nil
			}
			if w.skipDir(path) {
				return fs.SkipDir
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

func (w *Watcher) skipDir(path string) bool {
	if skipDirectories[filepath.Base(path)] {
		return true
	}
	abs, err := filepath.Abs(path)
	return err == nil && w.skip[abs]
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.errors)
	defer close(w.events)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			info, err := os.Stat(event.Name)
			if err != nil {
				continue
			}
			if info.IsDir() {
				if event.Has(fsnotify.Create) && !w.skipDir(event.Name) {
					for dir := range w.directories(event.Name) {
						_ = w.fsWatcher.Add(dir)
					}
				}
				continue
			}

			rel, ok := w.scanner.Rel(event.Name)
			if !ok || w.scanner.Skip(rel) {
				continue
			}

			select {
			case w.events <- rel:
			case <-ctx.Done():
				return
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}
