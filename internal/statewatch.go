package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	stateDebounce = 100 * time.Millisecond
	// stateMaxWait bounds how long a burst of writes can postpone a reload
	stateMaxWait = 500 * time.Millisecond
)

// WatchState calls fn with the new state whenever another process rewrites
// the store's file. It blocks until ctx is done.
//
// The parent directory is watched rather than the file because Save
// replaces the file by rename.
func WatchState(ctx context.Context, store *StateStore, fn func(SavedState)) error {
	dir := filepath.Dir(store.Path())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch path %s: %w", dir, err)
	}

	name := filepath.Base(store.Path())
	var (
		timer *time.Timer
		fire  <-chan time.Time
		first time.Time
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
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}
			now := time.Now()
			if first.IsZero() {
				first = now
			}
			wait := debounceDelay(now.Sub(first))
			if timer == nil {
				timer = time.NewTimer(wait)
			} else {
				timer.Stop()
				timer.Reset(wait)
			}
			fire = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			LogWarn("State watcher error: %v", err)
		case <-fire:
			fire = nil
			first = time.Time{}
			st, err := store.Load()
			if err != nil {
				LogWarn("Failed to reload state: %v", err)
				continue
			}
			fn(st)
		}
	}
}

// debounceDelay is the wait before reloading, given how long the current
// burst of writes has lasted
func debounceDelay(elapsed time.Duration) time.Duration {
	return max(min(stateDebounce, stateMaxWait-elapsed), 0)
}
