package quota

import (
	"context"
	"time"
)

type store interface {
	Usage(ctx context.Context, day string) (int, error)
	Consume(ctx context.Context, day string, n, limit int) (int, error)
}

// Service tracks LLM calls against a per-UTC-day budget via an underlying
// store. The window rolls over at midnight UTC because counters are keyed by
// calendar day.
type Service struct {
	DailyLimit int

	store store
}

// NewService constructs a Service with an in-memory store.
func NewService(dailyLimit int) *Service {
	return &Service{DailyLimit: dailyLimit, store: newMemoryStore()}
}

// NewPostgresService constructs a Service backed by Postgres.
func NewPostgresService(dailyLimit int, pgStore store) *Service {
	return &Service{DailyLimit: dailyLimit, store: pgStore}
}

// Enforced reports whether a positive daily limit is configured.
func (s *Service) Enforced() bool {
	return s.DailyLimit > 0
}

// Snapshot returns the current day's consumption.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	now := time.Now().UTC()
	used, err := s.store.Usage(ctx, dayKey(now))
	if err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(now, used), nil
}

// CanConsume reports whether n more calls fit in today's budget.
func (s *Service) CanConsume(ctx context.Context, n int) (bool, Snapshot, error) {
	now := time.Now().UTC()
	used, err := s.store.Usage(ctx, dayKey(now))
	if err != nil {
		return false, Snapshot{}, err
	}
	snap := s.snapshot(now, used)
	if n <= 0 || !s.Enforced() {
		return true, snap, nil
	}
	if used+n > s.DailyLimit {
		return false, snap, nil
	}
	return true, snap, nil
}

// Consume records n calls, failing with ErrLimitReached when the budget would
// be exceeded. Calls are still counted when no limit is enforced.
func (s *Service) Consume(ctx context.Context, n int) (Snapshot, error) {
	now := time.Now().UTC()
	if n <= 0 {
		return s.Snapshot(ctx)
	}
	used, err := s.store.Consume(ctx, dayKey(now), n, s.DailyLimit)
	if err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(now, used), nil
}

func (s *Service) snapshot(now time.Time, used int) Snapshot {
	remaining := 0
	if s.Enforced() {
		remaining = s.DailyLimit - used
		if remaining < 0 {
			remaining = 0
		}
	}
	return Snapshot{
		Limit:     s.DailyLimit,
		Used:      used,
		Remaining: remaining,
		ResetsAt:  nextReset(now),
	}
}
