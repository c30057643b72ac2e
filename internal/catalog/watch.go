package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/ChoBioLab/xenium-explorer-files/internal/logging"
	"github.com/ChoBioLab/xenium-explorer-files/internal/storage"
)

const watchDebounce = 250 * time.Millisecond

// Watch reloads the catalog whenever its local file changes, until ctx is
// done. onLoad, if non-nil, is called after each reload attempt. Only
// local file locations can be watched.
func (l *Loader) Watch(ctx context.Context, onLoad func(*Catalog, error)) error {
	loc, err := storage.ParseLocation(l.location)
	if err != nil {
		return err
	}
	if loc.Scheme != storage.SchemeFile {
		return fmt.Errorf("watch %s: only local files can be watched", l.location)
	}
	path, err := filepath.Abs(loc.Key)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory: the indexer replaces the file by rename.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	go func() {
		defer watcher.Close()
		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != path {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(watchDebounce)
				} else {
					timer.Reset(watchDebounce)
				}
				fire = timer.C
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Warn("catalog watch error", zap.String("path", path), zap.Error(err))
			case <-fire:
				fire = nil
				cat, err := l.Load(ctx)
				if onLoad != nil {
					onLoad(cat, err)
				}
			}
		}
	}()
	return nil
}
