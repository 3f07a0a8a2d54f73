package documents

import "time"

// Document records one uploaded source file and what parsing found in it.
// The raw bytes live in the object store under StorageKey so the file can be
// re-downloaded for the lifetime of the session.
type Document struct {
	ID          string     `json:"id"`
	Filename    string     `json:"filename"`
	ContentType string     `json:"contentType"`
	SizeBytes   int64      `json:"sizeBytes"`
	PromptCount int        `json:"promptCount"`
	StorageKey  string     `json:"-"`
	UploadedAt  time.Time  `json:"uploadedAt"`
	ParsedAt    *time.Time `json:"parsedAt,omitempty"`
}
