// Package watch re-decodes configuration when its files change on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"grimm.is/nereon/internal/logging"
	"grimm.is/nereon/internal/metrics"
	"grimm.is/nereon/internal/tree"
)

// DefaultDebounce is how long the watcher waits for a burst of events to
// settle before decoding.
const DefaultDebounce = 200 * time.Millisecond

// DecodeFunc produces the current tree.
type DecodeFunc func() (*tree.Node, error)

// Watcher calls Decode whenever one of its files changes and reports trees
// that differ from the previous one.
type Watcher struct {
	Decode   DecodeFunc
	Debounce time.Duration

	// OnChange receives each tree that differs from the last one delivered.
	// The first successful decode is always delivered.
	OnChange func(*tree.Node)
	// OnError receives decode failures. The last good tree is kept.
	OnError func(error)

	files   map[string]bool
	dirs    map[string]bool
	last    *tree.Node
	primed  bool
	logger  *logging.Logger
	metrics *metrics.Registry
}

// New returns a Watcher for paths. Empty paths are ignored.
func New(decode DecodeFunc, paths ...string) (*Watcher, error) {
	w := &Watcher{
		Decode:   decode,
		Debounce: DefaultDebounce,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		logger:   logging.WithComponent("watch"),
		metrics:  metrics.Get(),
	}
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		w.files[abs] = true
		w.dirs[filepath.Dir(abs)] = true
	}
	if len(w.files) == 0 {
		return nil, fmt.Errorf("nothing to watch")
	}
	return w, nil
}

// SetLogger replaces the watcher's logger.
func (w *Watcher) SetLogger(l *logging.Logger) {
	w.logger = l
}

// Run decodes once, then again after every settled change, until ctx is
// cancelled. Parent directories are watched so that editors which replace
// files by rename are followed.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	for dir := range w.dirs {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	w.reload(false)

	var (
		timer   *time.Timer
		settled <-chan time.Time
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

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("change detected", "file", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.Debounce)
			} else {
				timer.Reset(w.Debounce)
			}
			settled = timer.C

		case <-settled:
			settled = nil
			w.reload(true)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !w.files[filepath.Clean(event.Name)] {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

func (w *Watcher) reload(count bool) {
	root, err := w.Decode()
	if count {
		w.metrics.RecordReload(err)
	}
	if err != nil {
		w.logger.Warn("decode failed, keeping previous tree", "error", err)
		if w.OnError != nil {
			w.OnError(err)
		}
		return
	}
	if w.primed && w.last.Equal(root) {
		w.logger.Debug("tree unchanged")
		return
	}
	w.primed = true
	w.last = root
	if w.OnChange != nil {
		w.OnChange(root)
	}
}
