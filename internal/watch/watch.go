// Package watch reports changes to a repository's git directory.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/thiagokokada/gitrun/internal/debounce"
)

const DefaultDelay = 350 * time.Millisecond

// Watcher calls onChange once a burst of filesystem events under the git
// directory has settled.
type Watcher struct {
	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	debounce *debounce.Debouncer
	closed   bool
	done     chan struct{}
}

// New starts watching root. A zero delay uses DefaultDelay.
func New(root string, delay time.Duration, onChange func()) (*Watcher, error) {
	if delay <= 0 {
		delay = DefaultDelay
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	for _, path := range Paths(root) {
		slog.Debug("adding path to FS watcher", slog.String("path", path))
		if err := fsw.Add(path); err != nil {
			err := errors.Join(err, fsw.Close())
			return nil, fmt.Errorf("watch %s: %w", path, err)
		}
	}
	w := &Watcher{
		fsw:      fsw,
		debounce: debounce.New(delay, onChange),
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Run watches root until ctx is done.
func Run(ctx context.Context, root string, delay time.Duration, onChange func()) error {
	w, err := New(root, delay, onChange)
	if err != nil {
		return err
	}
	<-ctx.Done()
	return w.Close()
}

// Close stops the watcher and drops any pending call. It is safe to call
// more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.debounce.Stop()
	w.mu.Unlock()

	err := w.fsw.Close()
	<-w.done
	return err
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if ignored(ev.Name) {
				continue
			}
			slog.Debug("fsnotify event",
				slog.String("op", ev.Op.String()),
				slog.String("path", ev.Name),
			)
			w.schedule()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Error("fsnotify error", slog.Any("error", err))
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.debounce.Trigger()
}

// Paths lists the directories to watch for root: the git directory and its
// branch and remote ref folders when present, or root itself otherwise.
// fsnotify is not recursive, so each folder is added on its own.
func Paths(root string) []string {
	if root == "" {
		return nil
	}
	gitDir := filepath.Join(root, ".git")
	if info, err := os.Stat(gitDir); err != nil || !info.IsDir() {
		return []string{root}
	}
	paths := []string{gitDir}
	for _, sub := range []string{"refs/heads", "refs/remotes", "refs/tags"} {
		dir := filepath.Join(gitDir, filepath.FromSlash(sub))
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			paths = append(paths, dir)
		}
	}
	return paths
}

// ignored filters git's transient lock and ipc files.
func ignored(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".lock", ".ipc":
		return true
	}
	return false
}
