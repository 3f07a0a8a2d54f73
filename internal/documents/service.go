package documents

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/zachzeid/prompteval/internal/extract"
	"github.com/zachzeid/prompteval/internal/prompts"
	"github.com/zachzeid/prompteval/internal/shared/storage/object"
	"github.com/zachzeid/prompteval/internal/shared/telemetry"
)

// Service owns the upload path: extract text, parse prompts, retain the file.
type Service struct {
	Repo    Repo
	Store   object.ObjectStore
	Prompts *prompts.Service
}

// IngestResult bundles the stored document with what parsing produced.
type IngestResult struct {
	Document Document          `json:"document"`
	Prompts  []prompts.Prompt  `json:"prompts"`
	Warnings []prompts.Warning `json:"warnings"`
}

// Ingest extracts text from an uploaded file, stores every prompt found in
// it, and records the document with its raw bytes retained for download.
// Extraction and parse failures reject the whole upload.
func (s *Service) Ingest(ctx context.Context, fileName, mimeType string, data []byte) (IngestResult, error) {
	if fileName == "" {
		return IngestResult{}, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}

	text, err := extract.Text(data, mimeType, fileName)
	if err != nil {
		return IngestResult{}, err
	}

	docID := uuid.NewString()
	parsed, err := s.Prompts.ParseAndStore(ctx, text, fileName, docID)
	if err != nil {
		// Parse warnings explain an empty result; keep them for the response.
		return IngestResult{Warnings: parsed.Warnings}, err
	}

	contentType := mimeType
	size := int64(len(data))
	var storageKey string
	if s.Store != nil {
		key, savedSize, sniffed, err := s.Store.Save(ctx, "documents", fileName, bytes.NewReader(data))
		if err != nil {
			return IngestResult{}, fmt.Errorf("save upload: %w", err)
		}
		storageKey = key
		size = savedSize
		if contentType == "" {
			contentType = sniffed
		}
	}

	now := time.Now().UTC()
	doc := Document{
		ID:          docID,
		Filename:    fileName,
		ContentType: contentType,
		SizeBytes:   size,
		PromptCount: len(parsed.Prompts),
		StorageKey:  storageKey,
		UploadedAt:  now,
		ParsedAt:    &now,
	}
	if err := s.Repo.Create(ctx, doc); err != nil {
		return IngestResult{}, fmt.Errorf("store document: %w", err)
	}

	telemetry.Info("documents.ingested", map[string]any{
		"document_id": doc.ID,
		"filename":    doc.Filename,
		"prompts":     doc.PromptCount,
		"size_bytes":  doc.SizeBytes,
	})
	return IngestResult{Document: doc, Prompts: parsed.Prompts, Warnings: parsed.Warnings}, nil
}

// Get returns a document by ID.
func (s *Service) Get(ctx context.Context, id string) (Document, error) {
	if id == "" {
		return Document{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, id)
}

// List returns documents newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Document, error) {
	return s.Repo.List(ctx, limit, offset)
}

// OpenContent returns the original bytes of an uploaded document. The caller
// closes the reader.
func (s *Service) OpenContent(ctx context.Context, id string) (Document, io.ReadCloser, error) {
	doc, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Document{}, nil, err
	}
	if s.Store == nil || doc.StorageKey == "" {
		return Document{}, nil, ErrNoContent
	}
	rc, err := s.Store.Open(ctx, doc.StorageKey)
	if err != nil {
		return Document{}, nil, fmt.Errorf("open %s: %w", doc.StorageKey, err)
	}
	return doc, rc, nil
}

// Delete removes a document, its stored bytes, and every prompt parsed from
// it. Returns the number of prompts removed.
func (s *Service) Delete(ctx context.Context, id string) (int, error) {
	doc, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}

	removed := 0
	if s.Prompts != nil {
		removed, err = s.Prompts.DeleteBySource(ctx, doc.ID)
		if err != nil {
			return 0, fmt.Errorf("delete prompts: %w", err)
		}
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return removed, err
	}
	if s.Store != nil && doc.StorageKey != "" {
		if err := s.Store.Delete(ctx, doc.StorageKey); err != nil {
			telemetry.Warn("documents.object_delete", map[string]any{
				"document_id": id,
				"key":         doc.StorageKey,
				"error":       err.Error(),
			})
		}
	}

	telemetry.Info("documents.deleted", map[string]any{
		"document_id":     id,
		"prompts_removed": removed,
	})
	return removed, nil
}
