package vault

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"

	"notes-retrieval/internal/contextutil"
)

// DefaultDebounce is how long the watcher waits for changes to settle.
const DefaultDebounce = 2 * time.Second

// ChangeFunc receives the note paths that changed since the last call.
type ChangeFunc func(ctx context.Context, paths []string)

// Watcher reports markdown changes under a Source root, coalescing bursts
// of events into one callback.
type Watcher struct {
	root      string
	onChange  ChangeFunc
	watcher   *fsnotify.Watcher
	debounced func(func())

	mu      sync.Mutex
	pending map[string]struct{}
}

// NewWatcher watches every directory under src.Root. delay <= 0 selects
// DefaultDebounce.
func NewWatcher(src *Source, delay time.Duration, onChange ChangeFunc) (*Watcher, error) {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		root:      src.Root,
		onChange:  onChange,
		watcher:   fw,
		debounced: debounce.New(delay),
		pending:   make(map[string]struct{}),
	}
	if err := w.addTree(src.Root); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

// addTree watches dir and its subdirectories. fsnotify is not recursive.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// Run processes events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)
	defer w.watcher.Close()

	logger.InfoContext(ctx, "watching notes", "root", w.root)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.ErrorContext(ctx, "file watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	logger := contextutil.LoggerFromContext(ctx)

	if event.Has(fsnotify.Create) {
		if isDir(event.Name) && !skipDir(filepath.Base(event.Name)) {
			if err := w.addTree(event.Name); err != nil {
				logger.WarnContext(ctx, "failed to watch new directory", "path", event.Name, "error", err)
			}
			return
		}
	}
	if !IsNote(event.Name) {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	logger.DebugContext(ctx, "note changed", "path", event.Name, "op", event.Op.String())

	w.mu.Lock()
	w.pending[event.Name] = struct{}{}
	w.mu.Unlock()

	w.debounced(func() { w.flush(ctx) })
}

func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	if len(paths) == 0 || ctx.Err() != nil {
		return
	}
	slices.Sort(paths)
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "notes changed", "count", len(paths))
	w.onChange(ctx, paths)
}
