package documents

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo is a Postgres-backed Repo.
type PGRepo struct {
	DB *sql.DB
}

// NewPGRepo constructs a PGRepo.
func NewPGRepo(db *sql.DB) *PGRepo {
	return &PGRepo{DB: db}
}

var _ Repo = (*PGRepo)(nil)

const documentColumns = `id, filename, content_type, size_bytes, prompt_count, storage_key, uploaded_at, parsed_at`

func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	_, err := r.DB.ExecContext(ctx, `
INSERT INTO documents (`+documentColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		doc.ID, doc.Filename, doc.ContentType, doc.SizeBytes,
		doc.PromptCount, doc.StorageKey, doc.UploadedAt, doc.ParsedAt)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (Document, error) {
	row := r.DB.QueryRowContext(ctx, `
SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	return doc, err
}

func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Document, error) {
	limit, offset = clampPage(limit, offset)
	rows, err := r.DB.QueryContext(ctx, `
SELECT `+documentColumns+` FROM documents ORDER BY uploaded_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (r *PGRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var parsedAt sql.NullTime
	if err := row.Scan(
		&doc.ID, &doc.Filename, &doc.ContentType, &doc.SizeBytes,
		&doc.PromptCount, &doc.StorageKey, &doc.UploadedAt, &parsedAt,
	); err != nil {
		return Document{}, err
	}
	if parsedAt.Valid {
		t := parsedAt.Time
		doc.ParsedAt = &t
	}
	return doc, nil
}
