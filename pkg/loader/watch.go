package loader

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period a Watcher waits before firing.
const DefaultDebounce = 250 * time.Millisecond

// WatchHandler receives the sorted, de-duplicated paths that changed in one
// burst.
type WatchHandler func(ctx context.Context, paths []string)

// Watcher calls a handler when manifest files under a directory change.
// Events arriving within the debounce window of each other are delivered
// as a single call. The handler runs on one goroutine at a time.
type Watcher struct {
	dir      Dir
	handler  WatchHandler
	debounce time.Duration
	logger   *log.Logger

	fsw      *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewWatcher creates a watcher for the directory and pattern of d. A zero
// debounce means DefaultDebounce.
func NewWatcher(d Dir, debounce time.Duration, handler WatchHandler) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		dir:      d,
		handler:  handler,
		debounce: debounce,
		logger:   discard(d.Logger),
		fsw:      fsw,
		done:     make(chan struct{}),
	}, nil
}

// Start registers the directory tree and begins delivering events. It
// returns once watching has begun; delivery stops when ctx is cancelled or
// Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addTree(w.dir.Path); err != nil {
		return err
	}
	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

// Stop ends watching and waits for a running handler to return.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.fsw.Close()
	})
	w.wg.Wait()
}

func (w *Watcher) addTree(root string) error {
	if !w.dir.Recursive {
		return w.fsw.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	pending := map[string]struct{}{}
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) && w.dir.Recursive {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && !skipDir(info.Name()) {
					if err := w.addTree(ev.Name); err != nil {
						w.logger.Debug("could not watch directory", "path", ev.Name, "err", err)
					}
					continue
				}
			}
			if ev.Has(fsnotify.Chmod) || !w.dir.Matches(ev.Name) {
				continue
			}
			w.logger.Debug("manifest changed", "path", ev.Name, "op", ev.Op.String())
			pending[ev.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer, timerC = nil, nil
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			clear(pending)
			slices.Sort(paths)
			w.handler(ctx, paths)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "dir", w.dir.Path, "err", err)
		}
	}
}
