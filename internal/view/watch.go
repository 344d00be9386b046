package view

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay coalesces bursts of events from editors that write in steps.
const reloadDelay = 100 * time.Millisecond

// Watch reloads the templates whenever a template file under dir changes,
// until ctx is done. dir must be the directory backing the renderer's file
// system. A reload that fails to parse keeps the previous templates.
func (r *Renderer) Watch(ctx context.Context, dir string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create template watcher: %w", err)
	}
	defer w.Close()

	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(p)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	r.logger.Info("watching templates", slog.String("dir", dir))

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = w.Add(ev.Name)
				}
			}
			if strings.HasSuffix(ev.Name, r.suffix) && ev.Op != fsnotify.Chmod {
				pending = time.After(reloadDelay)
			}

		case <-pending:
			pending = nil
			if err := r.Reload(); err != nil {
				r.logger.Error("template reload failed", slog.String("error", err.Error()))
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("template watcher error", slog.String("error", err.Error()))
		}
	}
}
