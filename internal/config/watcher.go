package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"inkwell/internal/logging"
)

// Watcher monitors .inkwell/config.yaml for edits and reloads the config.
// Rapid saves (editor atomic writes fire several events) are debounced.
// Consumers that snapshot config at construction, like the status banner,
// are unaffected by reloads; only long-lived readers see updates.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	workspace   string
	onChange    func(*Config)
	debounceDur time.Duration
	lastEvent   time.Time
	running     bool
	stopCh      chan struct{}
	doneCh      chan struct{}
}

// NewWatcher creates a config watcher for the given workspace.
// onChange is invoked with the freshly loaded config after each edit.
func NewWatcher(workspace string, onChange func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:     fw,
		workspace:   workspace,
		onChange:    onChange,
		debounceDur: 500 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; the watch loop runs in a goroutine
// until Stop is called or ctx is canceled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	log := logging.Get(logging.CategoryConfig)

	// Watch the directory, not the file: editors replace the file on save,
	// which drops a file-level watch.
	dir := filepath.Dir(Path(w.workspace))
	if err := w.watcher.Add(dir); err != nil {
		log.Warnf("config watch failed (dir may not exist yet): %v", err)
	}

	go w.loop(ctx)
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.doneCh)
	log := logging.Get(logging.CategoryConfig)
	target := filepath.Base(Path(w.workspace))

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			w.mu.Lock()
			w.lastEvent = time.Now()
			w.mu.Unlock()

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounceDur, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warnf("config watcher error: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	log := logging.Get(logging.CategoryConfig)

	cfg, err := Load(w.workspace)
	if err != nil {
		log.Warnf("config reload failed: %v", err)
		return
	}

	log.Infof("config reloaded from %s", Path(w.workspace))
	if w.onChange != nil {
		w.onChange(cfg)
	}
}

// Stop shuts the watcher down and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	_ = w.watcher.Close()
	<-w.doneCh
}
