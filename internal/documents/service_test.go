package documents

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/zachzeid/prompteval/internal/prompts"
	"github.com/zachzeid/prompteval/internal/shared/storage/object/local"
)

const sampleMarkdown = `## System Prompt: Assistant
You are a helpful assistant. Answer briefly.

## User Prompt: Review
Check the following code for bugs.
`

func newTestService(t *testing.T) *Service {
	t.Helper()
	return &Service{
		Repo:    NewMemoryRepo(),
		Store:   local.New(t.TempDir()),
		Prompts: &prompts.Service{Repo: prompts.NewMemoryRepo()},
	}
}

func TestIngestStoresDocumentAndPrompts(t *testing.T) {
	svc := newTestService(t)

	result, err := svc.Ingest(context.Background(), "prompts.md", "text/markdown", []byte(sampleMarkdown))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if len(result.Prompts) != 2 {
		t.Fatalf("prompts = %d, want 2", len(result.Prompts))
	}
	if result.Document.PromptCount != 2 {
		t.Fatalf("promptCount = %d, want 2", result.Document.PromptCount)
	}
	if result.Document.ParsedAt == nil {
		t.Fatal("parsedAt not set")
	}
	for _, p := range result.Prompts {
		if p.SourceDocumentID != result.Document.ID {
			t.Fatalf("prompt %s not linked to document", p.ID)
		}
	}

	doc, rc, err := svc.OpenContent(context.Background(), result.Document.ID)
	if err != nil {
		t.Fatalf("open content: %v", err)
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read content: %v", err)
	}
	if string(raw) != sampleMarkdown {
		t.Fatalf("stored bytes differ from upload")
	}
	if doc.Filename != "prompts.md" {
		t.Fatalf("filename = %q", doc.Filename)
	}
}

func TestIngestRejectsPromptlessFile(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Ingest(context.Background(), "notes.md", "text/markdown", []byte("just some notes\nwith no headings\n"))
	if !errors.Is(err, prompts.ErrNoPrompts) {
		t.Fatalf("expected ErrNoPrompts, got %v", err)
	}

	docs, err := svc.List(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("rejected upload left a document record: %+v", docs)
	}
}

func TestIngestRejectsUnsupportedType(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Ingest(context.Background(), "photo.png", "image/png", []byte{0x89, 0x50})
	if err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Fatalf("expected unsupported media error, got %v", err)
	}
}

func TestDeleteCascadesToPromptsAndBytes(t *testing.T) {
	svc := newTestService(t)

	result, err := svc.Ingest(context.Background(), "prompts.md", "text/markdown", []byte(sampleMarkdown))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	keep, err := svc.Prompts.CreateInline(context.Background(), "standalone prompt content", "user", "keep")
	if err != nil {
		t.Fatalf("create inline: %v", err)
	}

	removed, err := svc.Delete(context.Background(), result.Document.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed != 2 {
		t.Fatalf("promptsRemoved = %d, want 2", removed)
	}

	if _, err := svc.Get(context.Background(), result.Document.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("document survived delete: %v", err)
	}
	if _, _, err := svc.OpenContent(context.Background(), result.Document.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("content survived delete: %v", err)
	}
	remaining, err := svc.Prompts.List(context.Background())
	if err != nil {
		t.Fatalf("list prompts: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != keep.ID {
		t.Fatalf("cascade removed the wrong prompts: %+v", remaining)
	}
}

func TestListNewestFirst(t *testing.T) {
	svc := newTestService(t)

	first, err := svc.Ingest(context.Background(), "a.md", "text/markdown", []byte(sampleMarkdown))
	if err != nil {
		t.Fatalf("ingest a: %v", err)
	}
	second, err := svc.Ingest(context.Background(), "b.md", "text/markdown", []byte(sampleMarkdown))
	if err != nil {
		t.Fatalf("ingest b: %v", err)
	}

	docs, err := svc.List(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("documents = %d, want 2", len(docs))
	}
	if docs[0].ID != second.Document.ID || docs[1].ID != first.Document.ID {
		t.Fatalf("list not newest first: %q then %q", docs[0].Filename, docs[1].Filename)
	}
}
