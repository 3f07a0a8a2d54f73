package prompts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zachzeid/prompteval/internal/shared/telemetry"
)

// debounceWindow coalesces rapid editor write bursts into one reload.
const debounceWindow = 200 * time.Millisecond

// DirLoader loads every Markdown file in a directory into the prompt store
// and keeps the store in sync as files change on disk. Prompts from a file
// are replaced wholesale when that file is rewritten and removed when the
// file disappears.
type DirLoader struct {
	Svc *Service
	Dir string

	mu     sync.Mutex
	byPath map[string][]string
	timers map[string]*time.Timer
}

func NewDirLoader(svc *Service, dir string) *DirLoader {
	return &DirLoader{
		Svc:    svc,
		Dir:    dir,
		byPath: make(map[string][]string),
		timers: make(map[string]*time.Timer),
	}
}

// LoadAll parses every .md file directly under the directory and returns the
// number of prompts stored. Files that fail to read or contain no prompts
// are logged and skipped.
func (l *DirLoader) LoadAll(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, entry := range entries {
		if entry.IsDir() || !isMarkdown(entry.Name()) {
			continue
		}
		n := l.reload(ctx, filepath.Join(l.Dir, entry.Name()))
		total += n
	}
	return total, nil
}

// Watch blocks watching the directory for changes until ctx is cancelled.
// Callers normally run it in a goroutine after LoadAll.
func (l *DirLoader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(l.Dir); err != nil {
		return err
	}
	telemetry.Info("prompts.watch.started", map[string]any{"dir": l.Dir})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isMarkdown(event.Name) {
				continue
			}
			switch {
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				l.forget(ctx, event.Name)
			case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
				l.scheduleReload(ctx, event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			telemetry.Warn("prompts.watch.error", map[string]any{"error": err.Error()})
		}
	}
}

func isMarkdown(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".md")
}

// scheduleReload debounces per path so an editor's write-then-rename burst
// triggers a single parse.
func (l *DirLoader) scheduleReload(ctx context.Context, path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t, ok := l.timers[path]; ok {
		t.Stop()
	}
	l.timers[path] = time.AfterFunc(debounceWindow, func() {
		if ctx.Err() != nil {
			return
		}
		l.reload(ctx, path)
	})
}

// reload replaces the stored prompts for path with a fresh parse of the file.
func (l *DirLoader) reload(ctx context.Context, path string) int {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			l.forget(ctx, path)
			return 0
		}
		telemetry.Warn("prompts.dir.read_failed", map[string]any{"file": path, "error": err.Error()})
		return 0
	}

	l.dropStored(ctx, path)

	result, err := l.Svc.ParseAndStore(ctx, string(raw), filepath.Base(path), "")
	if err != nil {
		if errors.Is(err, ErrNoPrompts) || errors.Is(err, ErrEmptyContent) {
			telemetry.Warn("prompts.dir.empty", map[string]any{"file": path})
			return 0
		}
		telemetry.Error("prompts.dir.store_failed", map[string]any{"file": path, "error": err.Error()})
		return 0
	}

	ids := make([]string, 0, len(result.Prompts))
	for _, p := range result.Prompts {
		ids = append(ids, p.ID)
	}
	l.mu.Lock()
	l.byPath[path] = ids
	l.mu.Unlock()

	telemetry.Info("prompts.dir.loaded", map[string]any{"file": path, "count": len(ids)})
	return len(ids)
}

// forget removes prompts loaded from a path that no longer exists.
func (l *DirLoader) forget(ctx context.Context, path string) {
	l.dropStored(ctx, path)
	telemetry.Info("prompts.dir.removed", map[string]any{"file": path})
}

func (l *DirLoader) dropStored(ctx context.Context, path string) {
	l.mu.Lock()
	ids := l.byPath[path]
	delete(l.byPath, path)
	l.mu.Unlock()

	for _, id := range ids {
		if err := l.Svc.Repo.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
			telemetry.Warn("prompts.dir.delete_failed", map[string]any{"promptId": id, "error": err.Error()})
		}
	}
}
