package services

import (
	"context"

	"draftsmith/internal/domain/models"
)

// CreateDraftInput carries everything needed to record a candidate rewrite.
type CreateDraftInput struct {
	ConversationID     int64
	Filename           string
	OriginalFilename   *string
	AttachmentID       *int64
	Content            string
	ChangeSummary      *string
	ChangeDetails      []string
	AIModel            *string
	GenerationMetadata map[string]interface{}

	// ForceReview pins the draft to PENDING even when validation passes,
	// used when the target file match was ambiguous.
	ForceReview bool
}

// DraftService manages the draft lifecycle: creation with completeness
// validation, review transitions, and promotion into the attachment chain.
type DraftService interface {
	// CreateDraft validates content and stores a new draft. Complete drafts
	// start APPROVED unless ForceReview is set; incomplete ones start PENDING.
	CreateDraft(ctx context.Context, input *CreateDraftInput) (*models.Draft, error)

	// GetDraft retrieves a draft by ID
	GetDraft(ctx context.Context, id int64) (*models.Draft, error)

	// ListDrafts lists drafts in a conversation, newest first
	ListDrafts(ctx context.Context, conversationID int64) ([]models.Draft, error)

	// ListPendingDrafts lists drafts awaiting review, oldest first. A
	// conversationID of 0 spans all conversations.
	ListPendingDrafts(ctx context.Context, conversationID int64) ([]models.Draft, error)

	// ApproveDraft moves a PENDING draft to APPROVED. Incomplete drafts
	// cannot be approved.
	ApproveDraft(ctx context.Context, id int64) (*models.Draft, error)

	// RejectDraft moves a PENDING or APPROVED draft to REJECTED
	RejectDraft(ctx context.Context, id int64) (*models.Draft, error)

	// PromoteDraft turns an APPROVED draft into the new LATEST version of its
	// file chain. Returns the updated draft and the created attachment.
	PromoteDraft(ctx context.Context, id int64) (*models.Draft, *models.Attachment, error)
}
