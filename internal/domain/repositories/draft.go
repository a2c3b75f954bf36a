package repositories

import (
	"context"

	"draftsmith/internal/domain/models"
)

// DraftRepository defines data access operations for draft rewrites.
type DraftRepository interface {
	// Create inserts a new draft
	Create(ctx context.Context, draft *models.Draft) error

	// GetByID retrieves a draft by ID
	GetByID(ctx context.Context, id int64) (*models.Draft, error)

	// Update persists mutable fields (status, review and promotion timestamps)
	Update(ctx context.Context, draft *models.Draft) error

	// ListByConversation lists drafts in a conversation, newest first
	ListByConversation(ctx context.Context, conversationID int64) ([]models.Draft, error)

	// ListPending lists PENDING drafts, oldest first. A conversationID of 0
	// spans all conversations; otherwise only that conversation's drafts.
	ListPending(ctx context.Context, conversationID int64) ([]models.Draft, error)

	// MaxVersionNumber returns the highest draft version number for the named
	// file in a conversation, or 0 when none exist
	MaxVersionNumber(ctx context.Context, conversationID int64, filename string) (int, error)

	// DeleteByConversation removes all drafts in a conversation
	DeleteByConversation(ctx context.Context, conversationID int64) error
}
