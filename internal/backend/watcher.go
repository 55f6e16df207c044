// Package backend watches the repository metadata on disk and paces the
// dashboard's refresh traffic.
package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/atomicstack/easyhg/internal/logging/events"
	"github.com/fsnotify/fsnotify"
)

const debounceDelay = 250 * time.Millisecond

// Event signals that the repository changed on disk. Path is the file
// that triggered the (debounced) notification.
type Event struct {
	Path string
}

// Watcher emits debounced change events for a Mercurial repository by
// watching .hg and .hg/store. Lock and journal churn is filtered out so
// easyhg's own commands do not retrigger refreshes.
type Watcher struct {
	events chan Event

	ctx    context.Context
	cancel context.CancelFunc
	fs     *fsnotify.Watcher
	wg     sync.WaitGroup
}

// NewWatcher starts watching the repository rooted at repoRoot. The .hg
// directory must be watchable; .hg/store is added when present.
func NewWatcher(repoRoot string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}

	hgDir := filepath.Join(repoRoot, ".hg")
	if err := fw.Add(hgDir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", hgDir, err)
	}
	storeDir := filepath.Join(hgDir, "store")
	if info, statErr := os.Stat(storeDir); statErr == nil && info.IsDir() {
		if err := fw.Add(storeDir); err != nil {
			events.Watch.Error(err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		events: make(chan Event, 1),
		ctx:    ctx,
		cancel: cancel,
		fs:     fw,
	}

	w.wg.Add(1)
	go w.loop()

	go func() {
		w.wg.Wait()
		close(w.events)
	}()

	return w, nil
}

// Events returns the channel of debounced change notifications. The
// channel closes after Stop.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Stop shuts the watcher down. Use Wait for a clean drain.
func (w *Watcher) Stop() {
	w.cancel()
	w.fs.Close()
}

// Wait blocks until the watch loop has exited and the events channel is
// closed.
func (w *Watcher) Wait() {
	w.wg.Wait()
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending string
	)
	for {
		select {
		case <-w.ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if shouldIgnorePath(ev.Name) {
				continue
			}
			pending = ev.Name
			if timer == nil {
				timer = time.NewTimer(debounceDelay)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounceDelay)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			events.Watch.Event(pending)
			select {
			case w.events <- Event{Path: pending}:
			default:
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			events.Watch.Error(err)
		}
	}
}

// shouldIgnorePath filters the repository bookkeeping files Mercurial
// touches on every command.
func shouldIgnorePath(name string) bool {
	base := filepath.Base(name)
	if base == "lock" || base == "wlock" {
		return true
	}
	if strings.HasPrefix(base, "journal") {
		return true
	}
	return strings.ToLower(filepath.Ext(base)) == ".lock"
}
