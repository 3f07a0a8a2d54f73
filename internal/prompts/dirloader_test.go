package prompts

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writePromptFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func waitForPromptCount(t *testing.T, repo Repo, want int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		ps, err := repo.List(context.Background())
		if err == nil && len(ps) == want {
			return
		}
		time.Sleep(25 * time.Millisecond)
	}
	ps, _ := repo.List(context.Background())
	t.Fatalf("store never reached %d prompts, got %d", want, len(ps))
}

func TestDirLoaderLoadAll(t *testing.T) {
	dir := t.TempDir()
	writePromptFile(t, dir, "a.md", twoPromptDoc)
	writePromptFile(t, dir, "b.md", "## User Prompt: Solo\nJust the one prompt here.\n")
	writePromptFile(t, dir, "notes.txt", "## User Prompt\nnot markdown, not loaded\n")

	svc := &Service{Repo: NewMemoryRepo()}
	loader := NewDirLoader(svc, dir)

	n, err := loader.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 prompts loaded, got %d", n)
	}

	ps, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ps) != 3 {
		t.Fatalf("expected 3 stored prompts, got %d", len(ps))
	}
}

func TestDirLoaderReloadReplacesFilePrompts(t *testing.T) {
	dir := t.TempDir()
	path := writePromptFile(t, dir, "a.md", twoPromptDoc)

	svc := &Service{Repo: NewMemoryRepo()}
	loader := NewDirLoader(svc, dir)
	if _, err := loader.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	writePromptFile(t, dir, "a.md", "## System Prompt: Rewritten\nOnly one prompt remains in the file.\n")
	if n := loader.reload(context.Background(), path); n != 1 {
		t.Fatalf("expected 1 prompt after reload, got %d", n)
	}

	ps, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ps) != 1 {
		t.Fatalf("expected 1 stored prompt, got %d", len(ps))
	}
	if ps[0].Name != "Rewritten" {
		t.Fatalf("expected replacement prompt, got %q", ps[0].Name)
	}
}

func TestDirLoaderDropsRemovedFiles(t *testing.T) {
	dir := t.TempDir()
	path := writePromptFile(t, dir, "a.md", twoPromptDoc)

	svc := &Service{Repo: NewMemoryRepo()}
	loader := NewDirLoader(svc, dir)
	if _, err := loader.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	loader.reload(context.Background(), path)

	ps, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ps) != 0 {
		t.Fatalf("expected empty store after file removal, got %d", len(ps))
	}
}

func TestDirLoaderWatchPicksUpNewFiles(t *testing.T) {
	dir := t.TempDir()
	svc := &Service{Repo: NewMemoryRepo()}
	loader := NewDirLoader(svc, dir)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = loader.Watch(ctx)
	}()
	// Give the watcher a beat to register before writing.
	time.Sleep(50 * time.Millisecond)

	writePromptFile(t, dir, "fresh.md", "## User Prompt: Fresh\nPicked up by the watcher.\n")
	waitForPromptCount(t, svc.Repo, 1)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}
