package scheduler

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/MrSnakeDoc/huddle/internal/logger"
)

// FileWatcher signals the refresher when the file backend's document changes
// on disk. Bursts of events within the debounce window collapse into one signal.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	trigger  chan<- struct{}
	logger   logger.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
}

// DefaultDebounce applies when NewFileWatcher is given a non-positive window.
const DefaultDebounce = 250 * time.Millisecond

// NewFileWatcher watches the directory holding path, so atomic renames are seen.
func NewFileWatcher(path string, debounce time.Duration, trigger chan<- struct{}, log logger.Logger) (*FileWatcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	return &FileWatcher{
		watcher:  w,
		path:     abs,
		debounce: debounce,
		trigger:  trigger,
		logger:   log,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start runs the event loop in a goroutine.
func (fw *FileWatcher) Start(ctx context.Context) {
	fw.logger.Info("watching data file", logger.String("path", fw.path))
	fw.started.Store(true)
	go fw.run(ctx)
}

// Stop ends the loop and releases the watcher. Safe to call more than once.
func (fw *FileWatcher) Stop() {
	fw.stopOnce.Do(func() {
		close(fw.stopCh)
		if fw.started.Load() {
			<-fw.doneCh
		}
		if err := fw.watcher.Close(); err != nil {
			fw.logger.Warn("failed to close file watcher", logger.Error(err))
		}
	})
}

func (fw *FileWatcher) run(ctx context.Context) {
	defer close(fw.doneCh)

	timer := time.NewTimer(fw.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-fw.stopCh:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !fw.relevant(event) {
				continue
			}
			fw.logger.Debug("data file changed",
				logger.String("path", event.Name),
				logger.String("op", event.Op.String()))
			timer.Reset(fw.debounce)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("file watcher error", logger.Error(err))

		case <-timer.C:
			fw.signal()
		}
	}
}

func (fw *FileWatcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != fw.path {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Rename)
}

// signal never blocks: a pending trigger already covers this change.
func (fw *FileWatcher) signal() {
	select {
	case fw.trigger <- struct{}{}:
	default:
		fw.logger.Debug("refresh already pending")
	}
}
