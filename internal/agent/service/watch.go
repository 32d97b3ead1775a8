package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/headless/internal/log"
)

// Watch processes queue files dropped into dir until the context ends or
// a shutdown is requested. Files already present at startup are processed
// first. Only files with the .queue extension are picked up; processed
// files are archived by ProcessQueue, so the directory never retriggers.
func (s *Service) Watch(ctx context.Context, dir string, onSummary func(QueueSummary)) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create watch dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	log.Info(log.CatQueue, "watching for queue files", "dir", dir)

	if err := s.drainExisting(ctx, dir, onSummary); err != nil {
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
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !isQueueFile(event.Name) {
				continue
			}
			// Writers may still be mid-write on Create; give them a beat.
			time.Sleep(100 * time.Millisecond)
			s.processOne(ctx, event.Name, onSummary)
			if s.ShutdownRequested() {
				return nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.ErrorErr(log.CatQueue, "watcher error", err, "dir", dir)
		}
	}
}

func (s *Service) drainExisting(ctx context.Context, dir string, onSummary func(QueueSummary)) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scan watch dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !isQueueFile(e.Name()) {
			continue
		}
		s.processOne(ctx, filepath.Join(dir, e.Name()), onSummary)
		if s.ShutdownRequested() || ctx.Err() != nil {
			break
		}
	}
	return nil
}

func (s *Service) processOne(ctx context.Context, path string, onSummary func(QueueSummary)) {
	summary, err := s.ProcessQueue(ctx, path)
	if err != nil {
		log.ErrorErr(log.CatQueue, "process queue file", err, "path", path)
		return
	}
	if onSummary != nil {
		onSummary(summary)
	}
}

func isQueueFile(path string) bool {
	return strings.HasSuffix(path, ".queue")
}
