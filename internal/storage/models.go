package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Context kinds.
const (
	ContextKindFile = "file"
	ContextKindText = "text"
)

// DocumentContext is the single active reference document that compliance
// checks are grounded against. Content holds raw text, or a base64 payload
// when Kind is "file". MimeType is set iff Kind is "file".
type DocumentContext struct {
	Kind          string    `json:"type"`
	Content       string    `json:"content"`
	MimeType      string    `json:"mimeType,omitempty"`
	Name          string    `json:"name"`
	ExtractedText string    `json:"extractedText,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ManualEntry is a user-authored override rule for a single HTS code or
// code range.
type ManualEntry struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	MetalType   string    `json:"metalType"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
