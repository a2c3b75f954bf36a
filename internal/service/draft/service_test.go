package draft

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"draftsmith/internal/domain"
	"draftsmith/internal/domain/models"
	"draftsmith/internal/domain/services"
)

func TestCreateDraftFastPath(t *testing.T) {
	f := newFixture(t)

	content := "def f():\n    pass"
	draft, err := f.service.CreateDraft(context.Background(), &services.CreateDraftInput{
		ConversationID: 1,
		Filename:       "f.py",
		Content:        content,
	})
	if err != nil {
		t.Fatalf("CreateDraft() error = %v", err)
	}

	if draft.ContentLength != len(content) {
		t.Errorf("content_length = %d, want %d", draft.ContentLength, len(content))
	}
	wantHash := sha256.Sum256([]byte(content))
	if draft.ContentHash != hex.EncodeToString(wantHash[:]) {
		t.Errorf("content_hash = %q, want digest of exact content", draft.ContentHash)
	}
	if draft.Status != models.DraftStatusApproved {
		t.Errorf("status = %s, want APPROVED fast path", draft.Status)
	}
	if !draft.IsComplete {
		t.Errorf("is_complete = false, want true")
	}
	if draft.VersionNumber != 1 {
		t.Errorf("version_number = %d, want 1", draft.VersionNumber)
	}
}

func TestCreateDraftIncompleteStaysPending(t *testing.T) {
	f := newFixture(t)

	draft, err := f.service.CreateDraft(context.Background(), &services.CreateDraftInput{
		ConversationID: 1,
		Filename:       "app.py",
		Content:        "def main():\n    pass\n# ... rest of code\n",
	})
	if err != nil {
		t.Fatalf("CreateDraft() error = %v, validation problems are data not errors", err)
	}

	if draft.Status != models.DraftStatusPending {
		t.Errorf("status = %s, want PENDING", draft.Status)
	}
	if draft.IsComplete {
		t.Errorf("is_complete = true, want false")
	}
	if draft.CompletenessScore >= 0.95 {
		t.Errorf("score = %v, want below threshold", draft.CompletenessScore)
	}
}

func TestCreateDraftForceReview(t *testing.T) {
	f := newFixture(t)

	draft, err := f.service.CreateDraft(context.Background(), &services.CreateDraftInput{
		ConversationID: 1,
		Filename:       "f.py",
		Content:        "def f():\n    pass",
		ForceReview:    true,
	})
	if err != nil {
		t.Fatalf("CreateDraft() error = %v", err)
	}

	if draft.Status != models.DraftStatusPending {
		t.Errorf("status = %s, want PENDING when review is forced", draft.Status)
	}
	if !draft.IsComplete {
		t.Errorf("is_complete = false, forced review must not change the verdict")
	}
}

func TestCreateDraftVersionNumbers(t *testing.T) {
	f := newFixture(t)

	for want := 1; want <= 3; want++ {
		draft, err := f.service.CreateDraft(context.Background(), &services.CreateDraftInput{
			ConversationID: 1,
			Filename:       "app.py",
			Content:        "def f():\n    pass",
		})
		if err != nil {
			t.Fatalf("CreateDraft() error = %v", err)
		}
		if draft.VersionNumber != want {
			t.Errorf("version_number = %d, want %d", draft.VersionNumber, want)
		}
	}

	// a different filename starts its own counter
	other, err := f.service.CreateDraft(context.Background(), &services.CreateDraftInput{
		ConversationID: 1,
		Filename:       "other.py",
		Content:        "def g():\n    pass",
	})
	if err != nil {
		t.Fatalf("CreateDraft() error = %v", err)
	}
	if other.VersionNumber != 1 {
		t.Errorf("version_number = %d, want 1 for a fresh filename", other.VersionNumber)
	}
}

func TestCreateDraftUnknownConversation(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.CreateDraft(context.Background(), &services.CreateDraftInput{
		ConversationID: 99,
		Filename:       "f.py",
		Content:        "x",
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestApproveDraft(t *testing.T) {
	f := newFixture(t)

	// complete but force-reviewed, so it sits PENDING
	pending, err := f.service.CreateDraft(context.Background(), &services.CreateDraftInput{
		ConversationID: 1,
		Filename:       "f.py",
		Content:        "def f():\n    pass",
		ForceReview:    true,
	})
	if err != nil {
		t.Fatalf("CreateDraft() error = %v", err)
	}

	approved, err := f.service.ApproveDraft(context.Background(), pending.ID)
	if err != nil {
		t.Fatalf("ApproveDraft() error = %v", err)
	}
	if approved.Status != models.DraftStatusApproved {
		t.Errorf("status = %s, want APPROVED", approved.Status)
	}
	if approved.ReviewedAt == nil {
		t.Errorf("reviewed_at not set")
	}

	// approving again is a precondition violation, not idempotent success
	if _, err := f.service.ApproveDraft(context.Background(), pending.ID); !errors.Is(err, domain.ErrPrecondition) {
		t.Errorf("second approve error = %v, want precondition violation", err)
	}
}

func TestApproveIncompleteDraftRejected(t *testing.T) {
	f := newFixture(t)

	pending, err := f.service.CreateDraft(context.Background(), &services.CreateDraftInput{
		ConversationID: 1,
		Filename:       "app.py",
		Content:        "def main():\n    pass\n# ... rest of code\n",
	})
	if err != nil {
		t.Fatalf("CreateDraft() error = %v", err)
	}

	_, err = f.service.ApproveDraft(context.Background(), pending.ID)
	if !errors.Is(err, domain.ErrPrecondition) {
		t.Fatalf("error = %v, want precondition violation", err)
	}

	stored, _ := f.drafts.GetByID(context.Background(), pending.ID)
	if stored.Status != models.DraftStatusPending {
		t.Errorf("status mutated to %s on rejected approve", stored.Status)
	}
}

func TestRejectDraft(t *testing.T) {
	f := newFixture(t)

	for _, forceReview := range []bool{true, false} {
		draft, err := f.service.CreateDraft(context.Background(), &services.CreateDraftInput{
			ConversationID: 1,
			Filename:       "f.py",
			Content:        "def f():\n    pass",
			ForceReview:    forceReview,
		})
		if err != nil {
			t.Fatalf("CreateDraft() error = %v", err)
		}

		// reject is legal from both PENDING and APPROVED
		rejected, err := f.service.RejectDraft(context.Background(), draft.ID)
		if err != nil {
			t.Fatalf("RejectDraft() from %s error = %v", draft.Status, err)
		}
		if rejected.Status != models.DraftStatusRejected {
			t.Errorf("status = %s, want REJECTED", rejected.Status)
		}
		if rejected.ReviewedAt == nil {
			t.Errorf("reviewed_at not set")
		}

		// terminal: a second reject is refused
		if _, err := f.service.RejectDraft(context.Background(), draft.ID); !errors.Is(err, domain.ErrPrecondition) {
			t.Errorf("second reject error = %v, want precondition violation", err)
		}
	}
}

func TestGetDraftNotFound(t *testing.T) {
	f := newFixture(t)

	if _, err := f.service.GetDraft(context.Background(), 42); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestListPendingDrafts(t *testing.T) {
	f := newFixture(t)

	complete, _ := f.service.CreateDraft(context.Background(), &services.CreateDraftInput{
		ConversationID: 1, Filename: "a.py", Content: "def f():\n    pass",
	})
	incomplete, _ := f.service.CreateDraft(context.Background(), &services.CreateDraftInput{
		ConversationID: 1, Filename: "b.py", Content: "def g():\n# ... rest of code\n",
	})

	pending, err := f.service.ListPendingDrafts(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListPendingDrafts() error = %v", err)
	}
	if len(pending) != 1 || pending[0].ID != incomplete.ID {
		t.Errorf("pending = %+v, want only draft %d (not %d)", pending, incomplete.ID, complete.ID)
	}
}

func TestListPendingDraftsScopedToConversation(t *testing.T) {
	f := newFixture(t)

	first, _ := f.service.CreateDraft(context.Background(), &services.CreateDraftInput{
		ConversationID: 1, Filename: "a.py", Content: "def f():\n# ... rest of code\n",
	})
	other, _ := f.service.CreateDraft(context.Background(), &services.CreateDraftInput{
		ConversationID: 2, Filename: "b.py", Content: "def g():\n# ... rest of code\n",
	})

	pending, err := f.service.ListPendingDrafts(context.Background(), 2)
	if err != nil {
		t.Fatalf("ListPendingDrafts() error = %v", err)
	}
	if len(pending) != 1 || pending[0].ID != other.ID {
		t.Errorf("pending = %+v, want only draft %d", pending, other.ID)
	}

	all, err := f.service.ListPendingDrafts(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListPendingDrafts() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("unscoped pending count = %d, want 2 (%d and %d)", len(all), first.ID, other.ID)
	}
}
