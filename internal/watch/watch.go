// Package watch reports changes to a single file made by other processes.
//
// The parent directory is watched instead of the file itself: atomic writes
// replace the file by renaming over it, which drops a watch placed on the
// old inode.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/totpkeeper/internal/logging"
	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 100 * time.Millisecond

// File watches one path.
type File struct {
	path     string
	name     string
	debounce time.Duration
	log      logging.Logger
	w        *fsnotify.Watcher
}

type Option func(*File)

// WithDebounce collapses bursts of events into one notification.
func WithDebounce(d time.Duration) Option {
	return func(f *File) { f.debounce = d }
}

func WithLogger(l logging.Logger) Option {
	return func(f *File) { f.log = l }
}

// NewFile starts watching the directory containing path. The directory must
// exist; the file need not.
func NewFile(path string, opts ...Option) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	f := &File{
		path:     abs,
		name:     filepath.Base(abs),
		debounce: DefaultDebounce,
		log:      logging.NewNop(),
		w:        w,
	}
	for _, o := range opts {
		o(f)
	}
	return f, nil
}

// Run calls onChange after the file is written, created, replaced or
// removed, until ctx is done or Close is called.
func (f *File) Run(ctx context.Context, onChange func()) error {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-f.w.Events:
			if !ok {
				return nil
			}
			if !f.relevant(ev) {
				continue
			}
			f.log.Debug(ctx, "store file event", "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(f.debounce)
			} else {
				timer.Reset(f.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			onChange()

		case err, ok := <-f.w.Errors:
			if !ok {
				return nil
			}
			f.log.Warn(ctx, "file watcher error", "error", err)
		}
	}
}

func (f *File) relevant(ev fsnotify.Event) bool {
	if filepath.Base(ev.Name) != f.name {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) ||
		ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove)
}

// Path returns the watched file.
func (f *File) Path() string { return f.path }

// Close stops the watcher; a running Run returns.
func (f *File) Close() error {
	return f.w.Close()
}
