package health

import (
	"context"
	"database/sql"
	"time"
)

// Service reports process readiness.
type Service struct {
	DB       *sql.DB
	Provider string
}

// NewService constructs a health service. db is nil for in-memory runs.
func NewService(db *sql.DB, provider string) *Service {
	return &Service{DB: db, Provider: provider}
}

// Status is the health payload.
type Status struct {
	OK       bool   `json:"ok"`
	Storage  string `json:"storage"`
	Provider string `json:"provider"`
}

// Check pings the database when one is configured. In-memory storage is
// always ready.
func (s *Service) Check(ctx context.Context) Status {
	st := Status{OK: true, Storage: "memory", Provider: s.Provider}
	if s.DB == nil {
		return st
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.DB.PingContext(pingCtx); err != nil {
		st.OK = false
		st.Storage = "unavailable"
		return st
	}
	st.Storage = "postgres"
	return st
}
