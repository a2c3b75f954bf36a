// Package draft implements the draft lifecycle: creation with completeness
// validation, review transitions, and promotion into the attachment chain.
package draft

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"draftsmith/internal/domain"
	"draftsmith/internal/domain/models"
	"draftsmith/internal/domain/repositories"
	"draftsmith/internal/domain/services"
	"draftsmith/internal/service/completeness"
)

// draftService implements the DraftService interface
type draftService struct {
	draftRepo      repositories.DraftRepository
	attachmentRepo repositories.AttachmentRepository
	convRepo       repositories.ConversationRepository
	txManager      repositories.TransactionManager
	validator      *completeness.Validator
	logger         *slog.Logger
}

// NewService creates a new draft service
func NewService(
	draftRepo repositories.DraftRepository,
	attachmentRepo repositories.AttachmentRepository,
	convRepo repositories.ConversationRepository,
	txManager repositories.TransactionManager,
	validator *completeness.Validator,
	logger *slog.Logger,
) services.DraftService {
	return &draftService{
		draftRepo:      draftRepo,
		attachmentRepo: attachmentRepo,
		convRepo:       convRepo,
		txManager:      txManager,
		validator:      validator,
		logger:         logger,
	}
}

// ContentHash returns the hex digest used for draft and attachment content.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// CreateDraft validates content and stores a new draft. The content is hashed
// and measured exactly as given, never re-encoded or trimmed. Complete drafts
// start APPROVED unless the caller forces review; everything else starts
// PENDING. Validation problems are data on the draft, not errors.
func (s *draftService) CreateDraft(ctx context.Context, input *services.CreateDraftInput) (*models.Draft, error) {
	if input.Filename == "" {
		return nil, &domain.ValidationError{Message: "filename is required"}
	}

	if _, err := s.convRepo.GetByID(ctx, input.ConversationID); err != nil {
		return nil, err
	}

	verdict := s.validator.Validate(input.Content, input.Filename)

	maxVersion, err := s.draftRepo.MaxVersionNumber(ctx, input.ConversationID, input.Filename)
	if err != nil {
		return nil, err
	}

	status := models.DraftStatusPending
	if verdict.IsComplete && !input.ForceReview {
		status = models.DraftStatusApproved
	}

	draft := &models.Draft{
		ConversationID:     input.ConversationID,
		Filename:           input.Filename,
		OriginalFilename:   input.OriginalFilename,
		AttachmentID:       input.AttachmentID,
		Content:            input.Content,
		ContentHash:        ContentHash(input.Content),
		ContentLength:      len(input.Content),
		VersionNumber:      maxVersion + 1,
		Status:             status,
		IsComplete:         verdict.IsComplete,
		HasSyntaxErrors:    verdict.HasSyntaxErrors,
		CompletenessScore:  verdict.Score,
		ChangeSummary:      input.ChangeSummary,
		ChangeDetails:      input.ChangeDetails,
		AIModel:            input.AIModel,
		GenerationMetadata: input.GenerationMetadata,
	}

	if draft.GenerationMetadata == nil {
		draft.GenerationMetadata = map[string]interface{}{}
	}
	draft.GenerationMetadata["validation_issues"] = verdict.Issues
	draft.GenerationMetadata["validation_warnings"] = verdict.Warnings
	draft.GenerationMetadata["language"] = verdict.Language

	if err := s.draftRepo.Create(ctx, draft); err != nil {
		return nil, err
	}

	s.logger.Info("draft created",
		"draft_id", draft.ID,
		"conversation_id", draft.ConversationID,
		"filename", draft.Filename,
		"version", draft.VersionNumber,
		"status", draft.Status,
		"score", draft.CompletenessScore,
	)

	return draft, nil
}

// GetDraft retrieves a draft by ID
func (s *draftService) GetDraft(ctx context.Context, id int64) (*models.Draft, error) {
	return s.draftRepo.GetByID(ctx, id)
}

// ListDrafts lists drafts in a conversation
func (s *draftService) ListDrafts(ctx context.Context, conversationID int64) ([]models.Draft, error) {
	if _, err := s.convRepo.GetByID(ctx, conversationID); err != nil {
		return nil, err
	}
	return s.draftRepo.ListByConversation(ctx, conversationID)
}

// ListPendingDrafts lists drafts awaiting review, optionally scoped to one
// conversation
func (s *draftService) ListPendingDrafts(ctx context.Context, conversationID int64) ([]models.Draft, error) {
	return s.draftRepo.ListPending(ctx, conversationID)
}

// ApproveDraft moves a PENDING draft to APPROVED.
func (s *draftService) ApproveDraft(ctx context.Context, id int64) (*models.Draft, error) {
	draft, err := s.draftRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if draft.Status != models.DraftStatusPending {
		return nil, &domain.PreconditionError{
			Message: fmt.Sprintf("draft %d cannot be approved from status %s", id, draft.Status),
			Current: string(draft.Status),
		}
	}
	if !draft.IsComplete {
		return nil, &domain.PreconditionError{
			Message: "cannot approve incomplete draft",
			Current: string(draft.Status),
		}
	}

	now := time.Now()
	draft.Status = models.DraftStatusApproved
	draft.ReviewedAt = &now
	if err := s.draftRepo.Update(ctx, draft); err != nil {
		return nil, err
	}

	s.logger.Info("draft approved", "draft_id", draft.ID, "filename", draft.Filename)
	return draft, nil
}

// RejectDraft moves a PENDING or APPROVED draft to REJECTED. Terminal.
func (s *draftService) RejectDraft(ctx context.Context, id int64) (*models.Draft, error) {
	draft, err := s.draftRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if draft.Status.Terminal() {
		return nil, &domain.PreconditionError{
			Message: fmt.Sprintf("draft %d is already %s", id, draft.Status),
			Current: string(draft.Status),
		}
	}

	now := time.Now()
	draft.Status = models.DraftStatusRejected
	draft.ReviewedAt = &now
	if err := s.draftRepo.Update(ctx, draft); err != nil {
		return nil, err
	}

	s.logger.Info("draft rejected", "draft_id", draft.ID, "filename", draft.Filename)
	return draft, nil
}
