package catalog

import (
	"fmt"
	"log"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher keeps the latest catalog snapshot and hot-reloads it when either
// catalog file changes. Runs read Current(); a failed reload keeps the
// previous snapshot.
type Watcher struct {
	actionsPath string
	contextPath string

	mu       sync.RWMutex
	current  *Snapshot
	onChange []func(*Snapshot)
}

// NewWatcher performs the initial load and returns a watcher.
func NewWatcher(actionsPath, contextPath string) (*Watcher, error) {
	snap, err := Load(actionsPath, contextPath)
	if err != nil {
		return nil, err
	}
	return &Watcher{
		actionsPath: actionsPath,
		contextPath: contextPath,
		current:     snap,
	}, nil
}

// Current returns the latest snapshot.
func (w *Watcher) Current() *Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers a callback invoked after every successful reload.
func (w *Watcher) OnChange(fn func(*Snapshot)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

// Reload forces an immediate re-read of both catalog files.
func (w *Watcher) Reload() (*Snapshot, error) {
	snap, err := Load(w.actionsPath, w.contextPath)
	if err != nil {
		return nil, err
	}
	w.swap(snap)
	return snap, nil
}

// Watch starts a background goroutine reloading on file changes. Call the
// returned stop function to clean up.
func (w *Watcher) Watch() (stop func(), err error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("catalog watcher: %w", err)
	}
	paths := []string{w.actionsPath}
	if w.contextPath != "" {
		paths = append(paths, w.contextPath)
	}
	for _, p := range paths {
		if err := fw.Add(p); err != nil {
			fw.Close()
			return nil, fmt.Errorf("catalog watcher add %s: %w", p, err)
		}
	}

	done := make(chan struct{})
	go func() {
		defer fw.Close()
		for {
			select {
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					if _, err := w.Reload(); err != nil {
						log.Printf("catalog: reload after %s: %v", ev.Name, err)
					}
				}
			case <-fw.Errors:
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }, nil
}

func (w *Watcher) swap(snap *Snapshot) {
	w.mu.Lock()
	w.current = snap
	callbacks := make([]func(*Snapshot), len(w.onChange))
	copy(callbacks, w.onChange)
	w.mu.Unlock()
	for _, fn := range callbacks {
		fn(snap)
	}
}
