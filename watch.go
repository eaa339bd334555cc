package autoload

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher logs changes to profile files in a directory. It never triggers a
// sync; a changed file is picked up by the next lifecycle trigger.
type Watcher struct {
	fs   *fsnotify.Watcher
	log  *slog.Logger
	dir  string
	once sync.Once
	done chan struct{}
	wg   sync.WaitGroup
}

// Watch starts watching dir until ctx is cancelled or Close is called.
func Watch(ctx context.Context, dir string, log *slog.Logger) (*Watcher, error) {
	if log == nil {
		log = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	w := &Watcher{
		fs:   fw,
		log:  log,
		dir:  dir,
		done: make(chan struct{}),
	}

	w.wg.Add(1)
	go w.run(ctx)

	log.Info("autoload: watching profile directory", "dir", dir)
	return w, nil
}

// run logs events until stopped.
func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.event(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("autoload: profile directory watch error", "dir", w.dir, "error", err)
		}
	}
}

// event logs a single file event.
func (w *Watcher) event(ev fsnotify.Event) {
	name := filepath.Base(ev.Name)
	if !strings.HasSuffix(name, ".json") {
		return
	}

	switch {
	case ev.Has(fsnotify.Create):
		w.log.Info("autoload: profile file created", "file", name)
	case ev.Has(fsnotify.Write):
		w.log.Info("autoload: profile file modified", "file", name)
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		w.log.Info("autoload: profile file removed", "file", name)
	}
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		w.wg.Wait()
		err = w.fs.Close()
	})
	return err
}
