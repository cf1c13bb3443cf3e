// Package watcher reports changes to artifact source files.
//
// Files are watched through their parent directories, so editors that save
// by writing a temporary file and renaming it over the original are seen as
// a single modification. Bursts of events are debounced per path.
//
//	w, err := watcher.New([]string{"artifacts.json"}, watcher.DefaultOptions(), logger)
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	go func() { _ = w.Start(ctx) }()
//	for batch := range w.Events() {
//	    // re-import batch[i].Path
//	}
package watcher

import "time"

// Operation is a file system change.
type Operation int

const (
	// OpCreate indicates the file appeared.
	OpCreate Operation = iota
	// OpModify indicates the file content changed.
	OpModify
	// OpDelete indicates the file was removed or renamed away.
	OpDelete
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// FileEvent is a change to a watched file.
type FileEvent struct {
	// Path is the watched path as given to New.
	Path      string
	Operation Operation
	Timestamp time.Time
}

// Options configures a Watcher.
type Options struct {
	// DebounceWindow is how long a path must be quiet before its event is
	// emitted. Default: 200ms
	DebounceWindow time.Duration

	// EventBufferSize is the number of undelivered batches kept.
	// Default: 16
	EventBufferSize int
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		DebounceWindow:  200 * time.Millisecond,
		EventBufferSize: 16,
	}
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = defaults.DebounceWindow
	}
	if o.EventBufferSize <= 0 {
		o.EventBufferSize = defaults.EventBufferSize
	}
	return o
}
