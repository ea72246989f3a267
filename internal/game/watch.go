package game

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher reports changes to profile files. It watches the directory
// rather than single files so editors that replace files on save are seen.
type FileWatcher struct {
	Dir      string
	onChange func(string) // called with path that changed
	w        *fsnotify.Watcher
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  bool
}

// NewFileWatcher creates a watcher for the YAML files in dir.
func NewFileWatcher(dir string, onChange func(string)) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, err
	}
	return &FileWatcher{
		Dir:      dir,
		onChange: onChange,
		w:        w,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// WatchLoader invalidates l whenever one of its profiles changes, then calls
// onChange if set.
func WatchLoader(l *Loader, onChange func(string)) (*FileWatcher, error) {
	dir := filepath.Dir(l.Paths().DefaultPath())
	return NewFileWatcher(dir, func(path string) {
		l.Invalidate()
		if onChange != nil {
			onChange(path)
		}
	})
}

// Start begins delivering events in a goroutine.
func (w *FileWatcher) Start() {
	w.started = true
	go func() {
		defer close(w.done)
		for {
			select {
			case ev, ok := <-w.w.Events:
				if !ok {
					return
				}
				if !strings.HasSuffix(ev.Name, ".yaml") {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
					if w.onChange != nil {
						w.onChange(ev.Name)
					}
				}
			case err, ok := <-w.w.Errors:
				if !ok {
					return
				}
				slog.Warn("profile watcher error", "dir", w.Dir, "error", err)
			case <-w.stopCh:
				return
			}
		}
	}()
}

// Stop terminates the watcher and waits for the event loop to exit.
func (w *FileWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		_ = w.w.Close()
	})
	if w.started {
		<-w.done
	}
}
