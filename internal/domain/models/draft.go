package models

import (
	"time"
)

// DraftStatus is the review state of a draft rewrite.
type DraftStatus string

const (
	// DraftStatusPending means the draft awaits manual review.
	DraftStatusPending DraftStatus = "PENDING"
	// DraftStatusApproved means the draft passed review (or the fast path).
	DraftStatusApproved DraftStatus = "APPROVED"
	// DraftStatusRejected is terminal.
	DraftStatusRejected DraftStatus = "REJECTED"
	// DraftStatusPromoted is terminal; the draft became a new LATEST attachment.
	DraftStatusPromoted DraftStatus = "PROMOTED"
)

// Terminal reports whether no further transitions are allowed from s.
func (s DraftStatus) Terminal() bool {
	return s == DraftStatusRejected || s == DraftStatusPromoted
}

// Draft is a candidate rewrite of one file, pending review. It is independent
// of the attachment chain until promoted; version_number is its own counter
// per (conversation_id, filename), distinct from Attachment.Version.
type Draft struct {
	ID                 int64                  `json:"id" db:"id"`
	ConversationID     int64                  `json:"conversation_id" db:"conversation_id"`
	Filename           string                 `json:"filename" db:"filename"`
	OriginalFilename   *string                `json:"original_filename,omitempty" db:"original_filename"`
	AttachmentID       *int64                 `json:"attachment_id,omitempty" db:"attachment_id"`
	Content            string                 `json:"content,omitempty" db:"content"`
	ContentHash        string                 `json:"content_hash" db:"content_hash"`
	ContentLength      int                    `json:"content_length" db:"content_length"`
	VersionNumber      int                    `json:"version_number" db:"version_number"`
	Status             DraftStatus            `json:"status" db:"status"`
	IsComplete         bool                   `json:"is_complete" db:"is_complete"`
	HasSyntaxErrors    bool                   `json:"has_syntax_errors" db:"has_syntax_errors"`
	CompletenessScore  float64                `json:"completeness_score" db:"completeness_score"`
	ChangeSummary      *string                `json:"change_summary,omitempty" db:"change_summary"`
	ChangeDetails      []string               `json:"change_details,omitempty" db:"change_details"`
	AIModel            *string                `json:"ai_model,omitempty" db:"ai_model"`
	GenerationMetadata map[string]interface{} `json:"generation_metadata,omitempty" db:"generation_metadata"`
	CreatedAt          time.Time              `json:"created_at" db:"created_at"`
	ReviewedAt         *time.Time             `json:"reviewed_at,omitempty" db:"reviewed_at"`
	PromotedAt         *time.Time             `json:"promoted_at,omitempty" db:"promoted_at"`
}

// DisplayStatus returns a human-readable status label.
func (d *Draft) DisplayStatus() string {
	switch d.Status {
	case DraftStatusPending:
		return "Pending Review"
	case DraftStatusApproved:
		return "Approved"
	case DraftStatusRejected:
		return "Rejected"
	case DraftStatusPromoted:
		return "Promoted"
	default:
		return string(d.Status)
	}
}

// ShortSummary returns the change summary truncated for list views.
func (d *Draft) ShortSummary() string {
	if d.ChangeSummary == nil {
		return ""
	}
	s := *d.ChangeSummary
	if len(s) > 100 {
		return s[:100] + "..."
	}
	return s
}
