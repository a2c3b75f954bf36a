package models

import (
	"time"
)

// FileStatus is the lifecycle status of a stored attachment version.
type FileStatus string

const (
	// FileStatusOriginal marks the first record of a chain (import/upload).
	FileStatusOriginal FileStatus = "ORIGINAL"
	// FileStatusModified marks a superseded version.
	FileStatusModified FileStatus = "MODIFIED"
	// FileStatusLatest marks the single active version of a chain.
	FileStatusLatest FileStatus = "LATEST"
)

// Attachment is one immutable stored version of a named file within a
// conversation. The set of rows sharing (conversation_id, filename) forms a
// version chain; at most one row per chain holds status LATEST.
type Attachment struct {
	ID                  int64                  `json:"id" db:"id"`
	ConversationID      int64                  `json:"conversation_id" db:"conversation_id"`
	Filename            string                 `json:"filename" db:"filename"`
	OriginalFilename    *string                `json:"original_filename,omitempty" db:"original_filename"`
	Content             string                 `json:"content,omitempty" db:"content"`
	ContentHash         string                 `json:"content_hash" db:"content_hash"`
	MimeType            string                 `json:"mime_type" db:"mime_type"`
	SizeBytes           int64                  `json:"size_bytes" db:"size_bytes"`
	Status              FileStatus             `json:"status" db:"status"`
	Version             int                    `json:"version" db:"version"`
	ParentFileID        *int64                 `json:"parent_file_id,omitempty" db:"parent_file_id"`
	ModificationSummary *string                `json:"modification_summary,omitempty" db:"modification_summary"`
	ImportSource        *string                `json:"import_source,omitempty" db:"import_source"`
	ImportMetadata      map[string]interface{} `json:"import_metadata,omitempty" db:"import_metadata"`
	CreatedAt           time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time              `json:"updated_at" db:"updated_at"`
}

// DisplayStatus returns a human-readable status label.
func (a *Attachment) DisplayStatus() string {
	switch a.Status {
	case FileStatusOriginal:
		return "Original"
	case FileStatusModified:
		return "Modified"
	case FileStatusLatest:
		return "Latest"
	default:
		return string(a.Status)
	}
}

// ChainAnchorID returns the id of the chain's first record: the parent link if
// this row has one, otherwise the row itself.
func (a *Attachment) ChainAnchorID() int64 {
	if a.ParentFileID != nil {
		return *a.ParentFileID
	}
	return a.ID
}
