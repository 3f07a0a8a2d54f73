package prompts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zachzeid/prompteval/internal/shared/metrics"
	"github.com/zachzeid/prompteval/internal/shared/storage/object"
	"github.com/zachzeid/prompteval/internal/shared/telemetry"
)

// Service contains business logic for prompt ingestion and management.
type Service struct {
	Repo         Repo
	Store        object.ObjectStore
	ExportPrefix string
}

// ParseAndStore parses the text and stores every extracted prompt. The
// returned result carries the stored prompts (ids and timestamps assigned)
// plus validation warnings. A parse that finds nothing returns ErrNoPrompts.
func (s *Service) ParseAndStore(ctx context.Context, text, filename, sourceDocumentID string) (ParseResult, error) {
	if strings.TrimSpace(text) == "" {
		return ParseResult{}, ErrEmptyContent
	}

	result := ParseFile(text, filename)
	if len(result.Prompts) == 0 {
		return result, ErrNoPrompts
	}

	now := time.Now().UTC()
	for i := range result.Prompts {
		result.Prompts[i].ID = uuid.NewString()
		result.Prompts[i].SourceDocumentID = sourceDocumentID
		result.Prompts[i].CreatedAt = now
		result.Prompts[i].UpdatedAt = now
		if err := s.Repo.Create(ctx, result.Prompts[i]); err != nil {
			return ParseResult{}, fmt.Errorf("store prompt: %w", err)
		}
	}

	metrics.AddPromptsParsed(len(result.Prompts))
	telemetry.Info("prompts.parsed", map[string]any{
		"filename": filename,
		"count":    len(result.Prompts),
		"warnings": len(result.Warnings),
	})
	return result, nil
}

// CreateInline constructs and stores a single prompt from raw content,
// bypassing file parsing.
func (s *Service) CreateInline(ctx context.Context, content, typeRaw, name string) (Prompt, error) {
	if strings.TrimSpace(content) == "" {
		return Prompt{}, ErrEmptyContent
	}
	typ, ok := ParseType(typeRaw)
	if !ok {
		return Prompt{}, fmt.Errorf("%w: %q", ErrInvalidType, typeRaw)
	}
	if name == "" {
		name = "Inline Prompt"
	}

	now := time.Now().UTC()
	p := Prompt{
		ID:        uuid.NewString(),
		Name:      name,
		Type:      typ,
		Content:   strings.TrimSpace(content),
		LineStart: 1,
		LineEnd:   strings.Count(content, "\n") + 1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Repo.Create(ctx, p); err != nil {
		return Prompt{}, err
	}
	return p, nil
}

// Get returns a prompt by ID.
func (s *Service) Get(ctx context.Context, id string) (Prompt, error) {
	if id == "" {
		return Prompt{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, id)
}

// List returns all prompts in document order.
func (s *Service) List(ctx context.Context) ([]Prompt, error) {
	return s.Repo.List(ctx)
}

// UpdateContent replaces a prompt's content, re-validates it, and shifts
// LineEnd to match the new line count.
func (s *Service) UpdateContent(ctx context.Context, id, content string) (Prompt, []Warning, error) {
	if strings.TrimSpace(content) == "" {
		return Prompt{}, nil, ErrEmptyContent
	}
	p, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Prompt{}, nil, err
	}

	p.Content = strings.TrimSpace(content)
	p.LineEnd = p.LineStart + strings.Count(p.Content, "\n")
	p.UpdatedAt = time.Now().UTC()

	if err := s.Repo.Update(ctx, p); err != nil {
		return Prompt{}, nil, err
	}
	return p, Validate([]Prompt{p}), nil
}

// DeleteBySource removes every prompt extracted from one source document.
func (s *Service) DeleteBySource(ctx context.Context, sourceDocumentID string) (int, error) {
	return s.Repo.DeleteBySource(ctx, sourceDocumentID)
}

// Clear removes every prompt from the store.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.Repo.Clear(ctx); err != nil {
		return err
	}
	telemetry.Info("prompts.cleared", nil)
	return nil
}

// Export renders stored prompts back to Markdown. A non-empty ids list
// restricts the export to those prompts, preserving store order. When save
// is set the document is also written to the object store and its storage
// key returned.
func (s *Service) Export(ctx context.Context, ids []string, save bool) (string, string, error) {
	all, err := s.Repo.List(ctx)
	if err != nil {
		return "", "", err
	}

	selected := all
	if len(ids) > 0 {
		wanted := make(map[string]bool, len(ids))
		for _, id := range ids {
			wanted[id] = true
		}
		selected = selected[:0:0]
		for _, p := range all {
			if wanted[p.ID] {
				selected = append(selected, p)
			}
		}
	}
	if len(selected) == 0 {
		return "", "", ErrNoPrompts
	}

	markdown := Render(selected)

	if !save || s.Store == nil {
		return markdown, "", nil
	}
	prefix := s.ExportPrefix
	if prefix == "" {
		prefix = "exports"
	}
	filename := fmt.Sprintf("prompts-%s.md", time.Now().UTC().Format("20060102-150405"))
	key, _, _, err := s.Store.Save(ctx, prefix, filename, strings.NewReader(markdown))
	if err != nil {
		return "", "", fmt.Errorf("save export: %w", err)
	}
	return markdown, key, nil
}
