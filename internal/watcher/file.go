package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Aman-CERP/artifactindex/internal/errors"
)

// Watcher watches a fixed set of files for changes.
type Watcher struct {
	opts      Options
	logger    *slog.Logger
	fsw       *fsnotify.Watcher
	debouncer *Debouncer

	// watched maps an absolute path to the path given by the caller.
	watched map[string]string

	stopOnce sync.Once
	done     chan struct{}
}

// New creates a watcher for paths. The parent directory of every path must
// exist; the files themselves may not yet.
func New(paths []string, opts Options, logger *slog.Logger) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no files to watch", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	opts = opts.WithDefaults()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.New(errors.ErrCodeInternal, "failed to create file watcher", err)
	}

	w := &Watcher{
		opts:      opts,
		logger:    logger,
		fsw:       fsw,
		debouncer: NewDebouncer(opts.DebounceWindow, opts.EventBufferSize, logger),
		watched:   make(map[string]string, len(paths)),
		done:      make(chan struct{}),
	}

	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fsw.Close()
			return nil, errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("invalid path %q", p), err)
		}
		w.watched[abs] = p
		dirs[filepath.Dir(abs)] = struct{}{}
	}

	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, errors.New(errors.ErrCodeDirectory, fmt.Sprintf("cannot watch %s", dir), err)
		}
	}

	return w, nil
}

// Events returns the channel of debounced change batches. It is closed by
// Stop.
func (w *Watcher) Events() <-chan []FileEvent {
	return w.debouncer.Output()
}

// Start processes file system events until ctx is canceled or Stop is
// called. It blocks.
func (w *Watcher) Start(ctx context.Context) error {
	w.logger.Info("watch_started", slog.Int("files", len(w.watched)))
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.done:
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch_error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return
	}
	original, ok := w.watched[abs]
	if !ok {
		return
	}

	op, ok := translate(ev.Op)
	if !ok {
		return
	}

	w.logger.Debug("watch_event",
		slog.String("path", original),
		slog.String("op", op.String()))

	w.debouncer.Add(FileEvent{Path: original, Operation: op, Timestamp: time.Now()})
}

func translate(op fsnotify.Op) (Operation, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return OpCreate, true
	case op.Has(fsnotify.Write):
		return OpModify, true
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return OpDelete, true
	default:
		return 0, false
	}
}

// Stop releases the file system watcher and closes Events. Safe to call
// more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.fsw.Close()
		w.debouncer.Stop()
		w.logger.Info("watch_stopped")
	})
}
