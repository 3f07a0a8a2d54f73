package prompts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const promptColumns = `id, name, prompt_type, content, front_matter, source_document_id, line_start, line_end, created_at, updated_at`

// Create inserts a new prompt.
func (r *PGRepo) Create(ctx context.Context, p Prompt) error {
	const query = `
INSERT INTO prompts (` + promptColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	frontMatter, err := marshalMetadata(p.Metadata)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		p.ID,
		p.Name,
		string(p.Type),
		p.Content,
		frontMatter,
		nullableString(p.SourceDocumentID),
		p.LineStart,
		p.LineEnd,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

// GetByID returns a prompt by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Prompt, error) {
	const query = `
SELECT ` + promptColumns + `
FROM prompts
WHERE id = $1
LIMIT 1`

	p, err := scanPrompt(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Prompt{}, ErrNotFound
		}
		return Prompt{}, err
	}
	return p, nil
}

// List returns all prompts in document order.
func (r *PGRepo) List(ctx context.Context) ([]Prompt, error) {
	const query = `
SELECT ` + promptColumns + `
FROM prompts
ORDER BY created_at ASC, source_document_id ASC NULLS FIRST, line_start ASC`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Prompt
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update replaces the mutable fields of an existing prompt.
func (r *PGRepo) Update(ctx context.Context, p Prompt) error {
	const query = `
UPDATE prompts
SET name = $2,
    content = $3,
    front_matter = $4,
    line_start = $5,
    line_end = $6,
    updated_at = $7
WHERE id = $1`

	frontMatter, err := marshalMetadata(p.Metadata)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.Content,
		frontMatter,
		p.LineStart,
		p.LineEnd,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a prompt by ID.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM prompts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBySource removes all prompts for a source document.
func (r *PGRepo) DeleteBySource(ctx context.Context, sourceDocumentID string) (int, error) {
	if sourceDocumentID == "" {
		return 0, nil
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM prompts WHERE source_document_id = $1`, sourceDocumentID)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Clear removes every prompt.
func (r *PGRepo) Clear(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM prompts`)
	return err
}

var _ Repo = (*PGRepo)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrompt(row rowScanner) (Prompt, error) {
	var p Prompt
	var typ string
	var frontMatter sql.NullString
	var sourceDoc sql.NullString
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&typ,
		&p.Content,
		&frontMatter,
		&sourceDoc,
		&p.LineStart,
		&p.LineEnd,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return Prompt{}, err
	}
	p.Type = Type(typ)
	if sourceDoc.Valid {
		p.SourceDocumentID = sourceDoc.String
	}
	if frontMatter.Valid && frontMatter.String != "" {
		var md Metadata
		if err := json.Unmarshal([]byte(frontMatter.String), &md); err == nil {
			p.Metadata = &md
		}
	}
	return p, nil
}

func marshalMetadata(md *Metadata) (any, error) {
	if md == nil {
		return nil, nil
	}
	payload, err := json.Marshal(md)
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
