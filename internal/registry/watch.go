package registry

import (
	"context"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the store whenever the registry file is written or
// replaced. It blocks until ctx is cancelled.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(s.path); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := s.Reload(); err != nil {
				s.logger.Error("Failed to reload registry", "path", s.path, "error", err)
				continue
			}
			// Editors replace files on save, which drops the watch on
			// some platforms. Re-add to keep following the path.
			_ = watcher.Add(s.path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("Registry watcher error", "path", s.path, "error", err)
		}
	}
}
