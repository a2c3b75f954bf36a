package draft

import (
	"context"
	"errors"
	"testing"

	"draftsmith/internal/domain"
	"draftsmith/internal/domain/models"
	"draftsmith/internal/domain/services"
)

func createApprovedDraft(t *testing.T, f *fixture, filename, content string) *models.Draft {
	t.Helper()
	draft, err := f.service.CreateDraft(context.Background(), &services.CreateDraftInput{
		ConversationID: 1,
		Filename:       filename,
		Content:        content,
	})
	if err != nil {
		t.Fatalf("CreateDraft() error = %v", err)
	}
	if draft.Status != models.DraftStatusApproved {
		t.Fatalf("draft status = %s, want APPROVED fast path", draft.Status)
	}
	return draft
}

func TestPromoteFirstVersion(t *testing.T) {
	f := newFixture(t)

	content := "def f():\n    pass"
	draft := createApprovedDraft(t, f, "f.py", content)

	promoted, att, err := f.service.PromoteDraft(context.Background(), draft.ID)
	if err != nil {
		t.Fatalf("PromoteDraft() error = %v", err)
	}

	if promoted.Status != models.DraftStatusPromoted {
		t.Errorf("draft status = %s, want PROMOTED", promoted.Status)
	}
	if promoted.PromotedAt == nil {
		t.Errorf("promoted_at not set")
	}
	if att.Version != 1 {
		t.Errorf("attachment version = %d, want 1", att.Version)
	}
	if att.Status != models.FileStatusLatest {
		t.Errorf("attachment status = %s, want LATEST", att.Status)
	}
	if att.ParentFileID != nil {
		t.Errorf("parent_file_id = %v, want nil for a fresh chain", *att.ParentFileID)
	}
	if att.Content != content {
		t.Errorf("attachment content differs from draft content")
	}
	if att.ContentHash != draft.ContentHash {
		t.Errorf("attachment hash = %q, want the draft hash %q", att.ContentHash, draft.ContentHash)
	}
}

func TestPromoteSupersedesPreviousLatest(t *testing.T) {
	f := newFixture(t)

	first := createApprovedDraft(t, f, "app.py", "def v1():\n    pass")
	_, firstAtt, err := f.service.PromoteDraft(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("first PromoteDraft() error = %v", err)
	}

	second := createApprovedDraft(t, f, "app.py", "def v2():\n    pass")
	_, secondAtt, err := f.service.PromoteDraft(context.Background(), second.ID)
	if err != nil {
		t.Fatalf("second PromoteDraft() error = %v", err)
	}

	if secondAtt.Version != 2 {
		t.Errorf("version = %d, want 2", secondAtt.Version)
	}
	if secondAtt.ParentFileID == nil || *secondAtt.ParentFileID != firstAtt.ID {
		t.Errorf("parent_file_id = %v, want chain anchor %d", secondAtt.ParentFileID, firstAtt.ID)
	}

	// the previous LATEST flipped to MODIFIED
	old, err := f.attachments.GetByID(context.Background(), firstAtt.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if old.Status != models.FileStatusModified {
		t.Errorf("old attachment status = %s, want MODIFIED", old.Status)
	}

	// exactly one LATEST in the chain
	chain, _ := f.attachments.ListChain(context.Background(), 1, "app.py")
	latest := 0
	for _, a := range chain {
		if a.Status == models.FileStatusLatest {
			latest++
		}
	}
	if latest != 1 {
		t.Errorf("chain has %d LATEST rows, want exactly 1", latest)
	}
}

func TestPromoteKeepsOriginalIntact(t *testing.T) {
	f := newFixture(t)

	// seed an uploaded ORIGINAL as version 1 of the chain
	original := &models.Attachment{
		ConversationID: 1,
		Filename:       "app.py",
		Content:        "def original():\n    pass",
		ContentHash:    ContentHash("def original():\n    pass"),
		MimeType:       "text/x-python",
		Status:         models.FileStatusOriginal,
		Version:        1,
	}
	if err := f.attachments.Create(context.Background(), original); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	draft := createApprovedDraft(t, f, "app.py", "def rewritten():\n    pass")
	_, att, err := f.service.PromoteDraft(context.Background(), draft.ID)
	if err != nil {
		t.Fatalf("PromoteDraft() error = %v", err)
	}

	if att.Version != 2 {
		t.Errorf("version = %d, want 2", att.Version)
	}
	if att.ParentFileID == nil || *att.ParentFileID != original.ID {
		t.Errorf("parent_file_id = %v, want original %d", att.ParentFileID, original.ID)
	}
	if att.MimeType != "text/x-python" {
		t.Errorf("mime_type = %q, want inherited from the chain", att.MimeType)
	}

	// ORIGINAL records are never flipped, only superseded
	stored, _ := f.attachments.GetByID(context.Background(), original.ID)
	if stored.Status != models.FileStatusOriginal {
		t.Errorf("original status = %s, want ORIGINAL untouched", stored.Status)
	}
	if stored.Content != original.Content {
		t.Errorf("original content mutated")
	}
}

func TestPromotePendingDraftRejected(t *testing.T) {
	f := newFixture(t)

	pending, err := f.service.CreateDraft(context.Background(), &services.CreateDraftInput{
		ConversationID: 1,
		Filename:       "f.py",
		Content:        "def f():\n    pass",
		ForceReview:    true,
	})
	if err != nil {
		t.Fatalf("CreateDraft() error = %v", err)
	}

	_, _, err = f.service.PromoteDraft(context.Background(), pending.ID)
	if !errors.Is(err, domain.ErrPrecondition) {
		t.Fatalf("error = %v, want precondition violation", err)
	}

	// no state change anywhere
	stored, _ := f.drafts.GetByID(context.Background(), pending.ID)
	if stored.Status != models.DraftStatusPending {
		t.Errorf("draft status = %s, want PENDING unchanged", stored.Status)
	}
	atts, _ := f.attachments.ListByConversation(context.Background(), 1)
	if len(atts) != 0 {
		t.Errorf("attachments created = %d, want 0", len(atts))
	}
}

func TestPromoteTwiceRejected(t *testing.T) {
	f := newFixture(t)

	draft := createApprovedDraft(t, f, "f.py", "def f():\n    pass")
	if _, _, err := f.service.PromoteDraft(context.Background(), draft.ID); err != nil {
		t.Fatalf("PromoteDraft() error = %v", err)
	}

	_, _, err := f.service.PromoteDraft(context.Background(), draft.ID)
	if !errors.Is(err, domain.ErrPrecondition) {
		t.Errorf("second promote error = %v, want precondition violation", err)
	}

	chain, _ := f.attachments.ListChain(context.Background(), 1, "f.py")
	if len(chain) != 1 {
		t.Errorf("chain length = %d after double promote, want 1", len(chain))
	}
}

func TestPromoteMissingDraft(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.service.PromoteDraft(context.Background(), 404)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want not found", err)
	}
}
