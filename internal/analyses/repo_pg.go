package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
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

const analysisColumns = `id, prompt_id, status, provider, model, result, failure_code, failure_message, retryable, created_at, started_at, completed_at`

func (r *PGRepo) Create(ctx context.Context, a Analysis) error {
	var result []byte
	if a.Result != nil {
		result = a.Result
	}
	_, err := r.DB.ExecContext(ctx, `
INSERT INTO analyses (`+analysisColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		a.ID, a.PromptID, a.Status, a.Provider, a.Model, result,
		nullString(a.FailureCode), nullString(a.FailureMessage), a.Retryable,
		a.CreatedAt, a.StartedAt, a.CompletedAt)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (Analysis, error) {
	row := r.DB.QueryRowContext(ctx, `
SELECT `+analysisColumns+` FROM analyses WHERE id = $1`, id)
	a, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Analysis{}, ErrNotFound
	}
	return a, err
}

func (r *PGRepo) ListByPrompt(ctx context.Context, promptID string, limit, offset int) ([]Analysis, error) {
	limit, offset = clampPage(limit, offset)

	query := `SELECT ` + analysisColumns + ` FROM analyses`
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

	out := []Analysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PGRepo) MarkRunning(ctx context.Context, id string, startedAt time.Time) error {
	res, err := r.DB.ExecContext(ctx, `
UPDATE analyses SET status = $1, started_at = $2 WHERE id = $3 AND status = $4`,
		StatusRunning, startedAt, id, StatusPending)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PGRepo) MarkCompleted(ctx context.Context, id string, result json.RawMessage, completedAt time.Time) error {
	res, err := r.DB.ExecContext(ctx, `
UPDATE analyses SET status = $1, result = $2, completed_at = $3 WHERE id = $4 AND status = $5`,
		StatusCompleted, []byte(result), completedAt, id, StatusRunning)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PGRepo) MarkFailed(ctx context.Context, id string, code, message string, retryable bool, completedAt time.Time) error {
	res, err := r.DB.ExecContext(ctx, `
UPDATE analyses SET status = $1, failure_code = $2, failure_message = $3, retryable = $4, completed_at = $5
WHERE id = $6 AND status IN ($7, $8)`,
		StatusFailed, code, message, retryable, completedAt, id, StatusPending, StatusRunning)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PGRepo) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
DELETE FROM analyses WHERE status IN ($1, $2) AND completed_at < $3`,
		StatusCompleted, StatusFailed, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (Analysis, error) {
	var a Analysis
	var result []byte
	var failureCode sql.NullString
	var failureMessage sql.NullString
	var startedAt sql.NullTime
	var completedAt sql.NullTime
	if err := row.Scan(
		&a.ID, &a.PromptID, &a.Status, &a.Provider, &a.Model, &result,
		&failureCode, &failureMessage, &a.Retryable,
		&a.CreatedAt, &startedAt, &completedAt,
	); err != nil {
		return Analysis{}, err
	}
	if len(result) > 0 {
		a.Result = json.RawMessage(result)
	}
	a.FailureCode = failureCode.String
	a.FailureMessage = failureMessage.String
	if startedAt.Valid {
		t := startedAt.Time
		a.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		a.CompletedAt = &t
	}
	return a, nil
}
