package plugins

import (
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/doeshing/fabsh/internal/ports"
)

const reloadDebounce = 250 * time.Millisecond

// Watcher reloads the registry when plugin files change, so edits show up
// without restarting the session.
type Watcher struct {
	registry *Registry
	fw       *fsnotify.Watcher
	logger   ports.Logger
	done     chan struct{}
}

// Watch starts watching the registry's plugin directory. Close releases
// the watch.
func Watch(registry *Registry, logger ports.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(registry.dir); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{registry: registry, fw: fw, logger: logger, done: make(chan struct{})}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	var timer *time.Timer
	var pending <-chan time.Time

	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !yamlFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// Editors fire bursts of events per save; coalesce them.
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			if err := w.registry.Load(); err != nil {
				w.logger.Warn("plugin reload failed", map[string]interface{}{"error": err.Error()})
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("plugin watch error", map[string]interface{}{"error": err.Error()})

		case <-w.done:
			return
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fw.Close()
}
