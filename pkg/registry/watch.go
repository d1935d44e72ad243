package registry

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a registry file when it changes and swaps the result into
// a Holder. A reload that fails validation is logged and the previous
// registry stays in place.
type Watcher struct {
	path   string
	holder *Holder
	logger *slog.Logger

	// reloaded, when set, receives the outcome of every reload attempt.
	reloaded chan<- error
}

// NewWatcher creates a Watcher for the registry file at path.
func NewWatcher(path string, holder *Holder, logger *slog.Logger) *Watcher {
	return &Watcher{
		path:   filepath.Clean(path),
		holder: holder,
		logger: logger,
	}
}

// NotifyReloads makes the watcher report each reload attempt on ch.
func (w *Watcher) NotifyReloads(ch chan<- error) {
	w.reloaded = ch
}

// Run watches the registry file until ctx is done. The parent directory is
// watched so that editors that replace the file on save are handled.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating registry watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watching registry dir: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("registry watcher error: %w", err)
		}
	}
}

func (w *Watcher) reload() {
	reg, res, err := Load(w.path)
	if err != nil {
		w.logger.Error("registry reload failed, keeping previous registry",
			"path", w.path,
			"error", err,
		)
		w.notify(err)
		return
	}

	for _, warning := range res.Warnings {
		w.logger.Warn("registry warning", "path", warning.Path, "message", warning.Message)
	}

	w.holder.Set(reg)
	w.logger.Info("registry reloaded",
		"path", w.path,
		"version", reg.Version,
		"components", len(reg.Components),
	)
	w.notify(nil)
}

func (w *Watcher) notify(err error) {
	if w.reloaded == nil {
		return
	}
	select {
	case w.reloaded <- err:
	default:
	}
}
