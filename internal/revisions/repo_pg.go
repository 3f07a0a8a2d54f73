package revisions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
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

const revisionColumns = `id, prompt_id, suggested, explanation, changes, created_at`

func (r *PGRepo) Create(ctx context.Context, rev Revision) error {
	var changes []byte
	if rev.Changes != nil {
		data, err := json.Marshal(rev.Changes)
		if err != nil {
			return fmt.Errorf("marshal changes: %w", err)
		}
		changes = data
	}
	_, err := r.DB.ExecContext(ctx, `
INSERT INTO revisions (`+revisionColumns+`)
VALUES ($1, $2, $3, $4, $5, $6)`,
		rev.ID, rev.PromptID, rev.Suggested, rev.Explanation, changes, rev.CreatedAt)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (Revision, error) {
	row := r.DB.QueryRowContext(ctx, `
SELECT `+revisionColumns+` FROM revisions WHERE id = $1`, id)
	rev, err := scanRevision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Revision{}, ErrNotFound
	}
	return rev, err
}

func (r *PGRepo) ListByPrompt(ctx context.Context, promptID string, limit, offset int) ([]Revision, error) {
	limit, offset = clampPage(limit, offset)

	query := `SELECT ` + revisionColumns + ` FROM revisions`
	args := []any{}
	if promptID != "" {
		query += ` WHERE prompt_id = $1`
		args = append(args, promptID)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Revision{}
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rev)
	}
	return out, rows.Err()
}

func (r *PGRepo) PromptIDs(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT DISTINCT prompt_id FROM revisions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PGRepo) DeleteByPrompt(ctx context.Context, promptID string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM revisions WHERE prompt_id = $1`, promptID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRevision(row rowScanner) (Revision, error) {
	var rev Revision
	var changes []byte
	if err := row.Scan(&rev.ID, &rev.PromptID, &rev.Suggested, &rev.Explanation, &changes, &rev.CreatedAt); err != nil {
		return Revision{}, err
	}
	if len(changes) > 0 {
		if err := json.Unmarshal(changes, &rev.Changes); err != nil {
			return Revision{}, fmt.Errorf("unmarshal changes: %w", err)
		}
	}
	return rev, nil
}
