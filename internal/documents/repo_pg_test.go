package documents

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

const documentSelect = `SELECT id, filename, content_type, size_bytes, prompt_count, storage_key, uploaded_at, parsed_at FROM documents WHERE id = $1`

func TestPGDocumentsCreateAndGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	repo := NewPGRepo(db)

	now := time.Now().UTC()
	doc := Document{
		ID:          "doc-1",
		Filename:    "prompts.md",
		ContentType: "text/markdown",
		SizeBytes:   421,
		PromptCount: 3,
		StorageKey:  "documents/abc-prompts.md",
		UploadedAt:  now,
		ParsedAt:    &now,
	}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO documents`)).
		WithArgs(doc.ID, doc.Filename, doc.ContentType, doc.SizeBytes,
			doc.PromptCount, doc.StorageKey, doc.UploadedAt, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), doc); err != nil {
		t.Fatalf("create: %v", err)
	}

	mock.ExpectQuery(regexp.QuoteMeta(documentSelect)).
		WithArgs("doc-1").
		WillReturnRows(documentRows().
			AddRow(doc.ID, doc.Filename, doc.ContentType, doc.SizeBytes,
				doc.PromptCount, doc.StorageKey, now, now))

	got, err := repo.GetByID(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.PromptCount != 3 || got.StorageKey != doc.StorageKey {
		t.Fatalf("got = %+v", got)
	}
	if got.ParsedAt == nil {
		t.Fatal("parsedAt not scanned")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGDocumentsGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	repo := NewPGRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(documentSelect)).
		WithArgs("missing").
		WillReturnRows(documentRows())

	_, err = repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGDocumentsListPaginates(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	repo := NewPGRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM documents ORDER BY uploaded_at DESC LIMIT $1 OFFSET $2`)).
		WithArgs(5, 10).
		WillReturnRows(documentRows().
			AddRow("doc-1", "a.md", "text/markdown", int64(10), 1, "documents/a.md", time.Now().UTC(), nil))

	docs, err := repo.List(context.Background(), 5, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "doc-1" {
		t.Fatalf("docs = %+v", docs)
	}
	if docs[0].ParsedAt != nil {
		t.Fatalf("expected nil parsedAt for NULL column, got %v", docs[0].ParsedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGDocumentsDeleteMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	repo := NewPGRepo(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM documents WHERE id = $1`)).
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func documentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "filename", "content_type", "size_bytes", "prompt_count",
		"storage_key", "uploaded_at", "parsed_at",
	})
}
