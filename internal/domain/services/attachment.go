package services

import (
	"context"

	"draftsmith/internal/domain/models"
)

// UploadAttachmentInput carries a new ORIGINAL file upload.
type UploadAttachmentInput struct {
	ConversationID int64
	Filename       string
	Content        string
	MimeType       string
	ImportSource   *string
}

// AttachmentService manages file uploads and version chain reads.
type AttachmentService interface {
	// Upload stores a new file as the ORIGINAL (and current) version of a
	// fresh chain. Uploading a filename that already has a chain is a conflict.
	Upload(ctx context.Context, input *UploadAttachmentInput) (*models.Attachment, error)

	// Get retrieves one attachment version by ID
	Get(ctx context.Context, id int64) (*models.Attachment, error)

	// GetCurrent retrieves the current version of the named file
	GetCurrent(ctx context.Context, conversationID int64, filename string) (*models.Attachment, error)

	// ListChains lists every version of every file in a conversation, grouped
	// by filename with versions ascending
	ListChains(ctx context.Context, conversationID int64) (map[string][]models.Attachment, error)

	// CurrentFilenames returns the filenames with a current version in the
	// conversation
	CurrentFilenames(ctx context.Context, conversationID int64) ([]string, error)
}
