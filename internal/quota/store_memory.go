package quota

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu   sync.Mutex
	days map[string]int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{days: make(map[string]int)}
}

func (s *memoryStore) Usage(ctx context.Context, day string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.days[day], nil
}

func (s *memoryStore) Consume(ctx context.Context, day string, n, limit int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	used := s.days[day]
	if limit > 0 && used+n > limit {
		return used, ErrLimitReached
	}
	used += n
	// Stale day counters are never read again; drop them.
	for k := range s.days {
		if k != day {
			delete(s.days, k)
		}
	}
	s.days[day] = used
	return used, nil
}
