package batch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	debounceTick   = 250 * time.Millisecond
	debounceStable = 300 * time.Millisecond
)

// Watch processes files as they appear in the input directory until ctx is
// canceled. A file is handed to the workers once no write event has been
// seen for it for a short while.
func (r *Runner) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(r.cfg.InputDir); err != nil {
		return fmt.Errorf("watch %s: %w", r.cfg.InputDir, err)
	}
	slog.Info("watching for new files", "dir", r.cfg.InputDir)

	fileCh := make(chan string, 256)
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.runWorkerPool(ctx, fileCh)
	}()

	err = debounce(ctx, w, fileCh)
	close(fileCh)
	<-done
	return err
}

// debounce forwards stable file names from w to out. It returns nil when ctx
// ends and an error if the watcher shuts down underneath it.
func debounce(ctx context.Context, w *fsnotify.Watcher, out chan<- string) error {
	pending := map[string]time.Time{}
	ticker := time.NewTicker(debounceTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			name := filepath.Base(ev.Name)
			if !isSupportedExt(name) {
				continue
			}
			pending[name] = time.Now()
		case <-ticker.C:
			now := time.Now()
			for name, t := range pending {
				if now.Sub(t) > debounceStable {
					select {
					case out <- name:
						delete(pending, name)
					case <-ctx.Done():
						return nil
					}
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			slog.Warn("watch error", "error", err)
		}
	}
}
