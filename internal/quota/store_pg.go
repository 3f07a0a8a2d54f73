package quota

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type pgStore struct {
	DB *sql.DB
}

// NewPGStore constructs a Postgres-backed quota store over the llm_usage
// table.
func NewPGStore(db *sql.DB) *pgStore {
	return &pgStore{DB: db}
}

func (s *pgStore) Usage(ctx context.Context, day string) (int, error) {
	var used int
	err := s.DB.QueryRowContext(ctx, `SELECT used FROM llm_usage WHERE day = $1`, day).Scan(&used)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return used, nil
}

func (s *pgStore) Consume(ctx context.Context, day string, n, limit int) (int, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	used, err := s.lockDay(ctx, tx, day)
	if err != nil {
		return 0, err
	}
	if limit > 0 && used+n > limit {
		err = ErrLimitReached
		return used, err
	}
	used += n
	if _, err = tx.ExecContext(ctx, `
UPDATE llm_usage SET used = $1, updated_at = $2 WHERE day = $3`,
		used, time.Now().UTC(), day); err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return used, nil
}

// lockDay row-locks the day's counter, inserting a zero row first if the day
// has not been seen.
func (s *pgStore) lockDay(ctx context.Context, tx *sql.Tx, day string) (int, error) {
	var used int
	row := tx.QueryRowContext(ctx, `SELECT used FROM llm_usage WHERE day = $1 FOR UPDATE`, day)
	err := row.Scan(&used)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, err = tx.ExecContext(ctx, `
INSERT INTO llm_usage (day, used, updated_at) VALUES ($1, 0, $2)`,
				day, time.Now().UTC()); err != nil {
				return 0, err
			}
			return 0, nil
		}
		return 0, err
	}
	return used, nil
}
