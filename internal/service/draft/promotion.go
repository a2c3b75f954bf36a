package draft

import (
	"context"
	"errors"
	"fmt"
	"time"

	"draftsmith/internal/domain"
	"draftsmith/internal/domain/models"
)

// PromoteDraft turns an APPROVED, complete draft into the new LATEST version
// of its file chain. The whole step runs in one transaction: the current row
// of the chain is read with a row lock, so concurrent promotions of the same
// (conversation_id, filename) serialize and the one-LATEST invariant holds.
// Promotions of different filenames proceed in parallel.
func (s *draftService) PromoteDraft(ctx context.Context, id int64) (*models.Draft, *models.Attachment, error) {
	var promoted *models.Draft
	var created *models.Attachment

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		draft, err := s.draftRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}

		if draft.Status != models.DraftStatusApproved {
			return &domain.PreconditionError{
				Message: fmt.Sprintf("draft must be approved before promotion (status %s)", draft.Status),
				Current: string(draft.Status),
			}
		}
		if !draft.IsComplete {
			return &domain.PreconditionError{
				Message: "cannot promote incomplete draft",
				Current: string(draft.Status),
			}
		}

		// lock the chain; nil current means this is the first version
		current, err := s.attachmentRepo.GetLatestForUpdate(txCtx, draft.ConversationID, draft.Filename)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		version := 1
		var parentID *int64
		if current != nil {
			maxVersion, err := s.attachmentRepo.MaxVersion(txCtx, draft.ConversationID, draft.Filename)
			if err != nil {
				return err
			}
			version = maxVersion + 1
			anchor := current.ChainAnchorID()
			parentID = &anchor

			if current.Status == models.FileStatusLatest {
				current.Status = models.FileStatusModified
				if err := s.attachmentRepo.Update(txCtx, current); err != nil {
					return err
				}
			}
		}

		att := &models.Attachment{
			ConversationID:      draft.ConversationID,
			Filename:            draft.Filename,
			OriginalFilename:    draft.OriginalFilename,
			Content:             draft.Content,
			ContentHash:         draft.ContentHash,
			MimeType:            "text/plain",
			SizeBytes:           int64(draft.ContentLength),
			Status:              models.FileStatusLatest,
			Version:             version,
			ParentFileID:        parentID,
			ModificationSummary: draft.ChangeSummary,
			ImportMetadata: map[string]interface{}{
				"promoted_from_draft_id": draft.ID,
				"draft_version_number":   draft.VersionNumber,
				"change_details":         draft.ChangeDetails,
			},
		}
		if current != nil {
			att.MimeType = current.MimeType
		}
		if err := s.attachmentRepo.Create(txCtx, att); err != nil {
			return err
		}

		now := time.Now()
		draft.Status = models.DraftStatusPromoted
		draft.PromotedAt = &now
		if err := s.draftRepo.Update(txCtx, draft); err != nil {
			return err
		}

		promoted = draft
		created = att
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("draft promoted",
		"draft_id", promoted.ID,
		"filename", promoted.Filename,
		"attachment_id", created.ID,
		"attachment_version", created.Version,
	)

	return promoted, created, nil
}
