package revisions

import "time"

// Change is one suggested text replacement inside a prompt. Changes apply in
// order, so a later Original may match text produced by an earlier
// Replacement.
type Change struct {
	Original    string `json:"original"`
	Replacement string `json:"replacement"`
	Reason      string `json:"reason,omitempty"`
}

// Revision is a stored suggestion run against one prompt. The record is
// history; applying it mutates the prompt, not the revision.
type Revision struct {
	ID          string    `json:"id"`
	PromptID    string    `json:"promptId"`
	Suggested   string    `json:"suggested"`
	Explanation string    `json:"explanation"`
	Changes     []Change  `json:"changes"`
	CreatedAt   time.Time `json:"createdAt"`
}

const (
	ChangeApplied  = "applied"
	ChangeConflict = "conflict"
)

// ChangeOutcome reports how one change fared during an apply run.
type ChangeOutcome struct {
	Index       int    `json:"index"`
	Original    string `json:"original"`
	Replacement string `json:"replacement"`
	Status      string `json:"status"`
	Conflict    string `json:"conflict,omitempty"`
}
