package quota

import "time"

// Snapshot reports LLM call consumption for the current UTC day. A Limit of
// zero means the budget is not enforced; Used still counts calls.
type Snapshot struct {
	Limit     int       `json:"limit"`
	Used      int       `json:"used"`
	Remaining int       `json:"remaining"`
	ResetsAt  time.Time `json:"resetsAt"`
}

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func nextReset(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
}
