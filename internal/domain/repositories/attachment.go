package repositories

import (
	"context"

	"draftsmith/internal/domain/models"
)

// AttachmentRepository defines data access operations for file attachments
// and their version chains.
type AttachmentRepository interface {
	// Create inserts a new attachment version
	Create(ctx context.Context, att *models.Attachment) error

	// GetByID retrieves an attachment by ID
	GetByID(ctx context.Context, id int64) (*models.Attachment, error)

	// GetLatestByFilename retrieves the LATEST (or sole ORIGINAL) version of
	// the named file in a conversation
	GetLatestByFilename(ctx context.Context, conversationID int64, filename string) (*models.Attachment, error)

	// GetLatestForUpdate is GetLatestByFilename with a row lock. It must be
	// called inside a transaction; promotions on the same chain serialize on it.
	GetLatestForUpdate(ctx context.Context, conversationID int64, filename string) (*models.Attachment, error)

	// MaxVersion returns the highest version number in the named file's chain,
	// or 0 when the chain is empty
	MaxVersion(ctx context.Context, conversationID int64, filename string) (int, error)

	// Update persists mutable fields (status, modification summary)
	Update(ctx context.Context, att *models.Attachment) error

	// ListByConversation lists all attachment versions in a conversation,
	// oldest first
	ListByConversation(ctx context.Context, conversationID int64) ([]models.Attachment, error)

	// ListChain lists every version of the named file, version ascending
	ListChain(ctx context.Context, conversationID int64, filename string) ([]models.Attachment, error)

	// ListCurrentFilenames returns the distinct filenames that have a current
	// version in the conversation
	ListCurrentFilenames(ctx context.Context, conversationID int64) ([]string, error)

	// DeleteByConversation removes all attachments in a conversation
	DeleteByConversation(ctx context.Context, conversationID int64) error
}
