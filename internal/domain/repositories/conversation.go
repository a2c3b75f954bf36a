package repositories

import (
	"context"

	"draftsmith/internal/domain/models"
)

// ConversationRepository defines data access operations for conversations.
type ConversationRepository interface {
	// Create inserts a new conversation
	Create(ctx context.Context, conv *models.Conversation) error

	// GetByID retrieves a conversation by ID
	GetByID(ctx context.Context, id int64) (*models.Conversation, error)

	// List lists all conversations, newest first
	List(ctx context.Context) ([]models.Conversation, error)

	// Delete removes a conversation
	Delete(ctx context.Context, id int64) error
}
