package watch

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Notifier marks paths dirty when fsnotify reports activity on them.
// It only decides whether a stat is worth doing; the modification time
// stays the sole staleness signal.
type Notifier struct {
	watcher *fsnotify.Watcher
	mu      sync.Mutex
	dirty   map[string]bool
	dirs    map[string]bool
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewNotifier() (*Notifier, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fs watcher: %w", err)
	}
	n := &Notifier{
		watcher: w,
		dirty:   make(map[string]bool),
		dirs:    make(map[string]bool),
		done:    make(chan struct{}),
	}
	n.wg.Add(1)
	go n.loop()
	return n, nil
}

// Add starts watching the directory holding path. Editors often replace a
// file instead of writing it in place, so the directory is watched rather
// than the file. The path starts out dirty.
func (n *Notifier) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)

	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.dirs[dir] {
		if err := n.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		n.dirs[dir] = true
	}
	n.dirty[abs] = true
	return nil
}

// Take returns whether path saw activity since the previous Take and clears the flag.
// Paths that were never added always report true.
func (n *Notifier) Take(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return true
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	d, ok := n.dirty[abs]
	if !ok {
		return true
	}
	n.dirty[abs] = false
	return d
}

func (n *Notifier) loop() {
	defer n.wg.Done()
	for {
		select {
		case <-n.done:
			return
		case event, ok := <-n.watcher.Events:
			if !ok {
				return
			}
			name := filepath.Clean(event.Name)
			n.mu.Lock()
			if _, tracked := n.dirty[name]; tracked {
				n.dirty[name] = true
			}
			n.mu.Unlock()
		case err, ok := <-n.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("fs watcher error: %v", err)
		}
	}
}

func (n *Notifier) Close() error {
	close(n.done)
	err := n.watcher.Close()
	n.wg.Wait()
	return err
}
