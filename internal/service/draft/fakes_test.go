package draft

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"draftsmith/internal/domain"
	"draftsmith/internal/domain/models"
	"draftsmith/internal/domain/repositories"
	"draftsmith/internal/domain/services"
	"draftsmith/internal/service/completeness"
)

// In-memory repository fakes. They honor the same error contracts as the
// postgres implementations so the service under test cannot tell them apart.

type fakeDraftRepo struct {
	nextID int64
	drafts map[int64]*models.Draft
}

func newFakeDraftRepo() *fakeDraftRepo {
	return &fakeDraftRepo{nextID: 1, drafts: make(map[int64]*models.Draft)}
}

func (r *fakeDraftRepo) Create(_ context.Context, d *models.Draft) error {
	d.ID = r.nextID
	r.nextID++
	d.CreatedAt = time.Now()
	stored := *d
	r.drafts[d.ID] = &stored
	return nil
}

func (r *fakeDraftRepo) GetByID(_ context.Context, id int64) (*models.Draft, error) {
	d, ok := r.drafts[id]
	if !ok {
		return nil, fmt.Errorf("draft %d: %w", id, domain.ErrNotFound)
	}
	copied := *d
	return &copied, nil
}

func (r *fakeDraftRepo) Update(_ context.Context, d *models.Draft) error {
	if _, ok := r.drafts[d.ID]; !ok {
		return fmt.Errorf("draft %d: %w", d.ID, domain.ErrNotFound)
	}
	stored := *d
	r.drafts[d.ID] = &stored
	return nil
}

func (r *fakeDraftRepo) ListByConversation(_ context.Context, conversationID int64) ([]models.Draft, error) {
	var out []models.Draft
	for _, d := range r.drafts {
		if d.ConversationID == conversationID {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *fakeDraftRepo) ListPending(_ context.Context, conversationID int64) ([]models.Draft, error) {
	var out []models.Draft
	for _, d := range r.drafts {
		if d.Status != models.DraftStatusPending {
			continue
		}
		if conversationID != 0 && d.ConversationID != conversationID {
			continue
		}
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeDraftRepo) MaxVersionNumber(_ context.Context, conversationID int64, filename string) (int, error) {
	max := 0
	for _, d := range r.drafts {
		if d.ConversationID == conversationID && d.Filename == filename && d.VersionNumber > max {
			max = d.VersionNumber
		}
	}
	return max, nil
}

func (r *fakeDraftRepo) DeleteByConversation(_ context.Context, conversationID int64) error {
	for id, d := range r.drafts {
		if d.ConversationID == conversationID {
			delete(r.drafts, id)
		}
	}
	return nil
}

type fakeAttachmentRepo struct {
	nextID      int64
	attachments map[int64]*models.Attachment
}

func newFakeAttachmentRepo() *fakeAttachmentRepo {
	return &fakeAttachmentRepo{nextID: 1, attachments: make(map[int64]*models.Attachment)}
}

func (r *fakeAttachmentRepo) Create(_ context.Context, a *models.Attachment) error {
	for _, existing := range r.attachments {
		if existing.ConversationID == a.ConversationID && existing.Filename == a.Filename && existing.Version == a.Version {
			return fmt.Errorf("attachment '%s' version %d already exists: %w", a.Filename, a.Version, domain.ErrConflict)
		}
	}
	a.ID = r.nextID
	r.nextID++
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	stored := *a
	r.attachments[a.ID] = &stored
	return nil
}

func (r *fakeAttachmentRepo) GetByID(_ context.Context, id int64) (*models.Attachment, error) {
	a, ok := r.attachments[id]
	if !ok {
		return nil, fmt.Errorf("attachment %d: %w", id, domain.ErrNotFound)
	}
	copied := *a
	return &copied, nil
}

func (r *fakeAttachmentRepo) getLatest(conversationID int64, filename string) *models.Attachment {
	var latest *models.Attachment
	for _, a := range r.attachments {
		if a.ConversationID != conversationID || a.Filename != filename {
			continue
		}
		if latest == nil || a.Version > latest.Version {
			latest = a
		}
	}
	return latest
}

func (r *fakeAttachmentRepo) GetLatestByFilename(_ context.Context, conversationID int64, filename string) (*models.Attachment, error) {
	latest := r.getLatest(conversationID, filename)
	if latest == nil {
		return nil, fmt.Errorf("attachment '%s': %w", filename, domain.ErrNotFound)
	}
	copied := *latest
	return &copied, nil
}

func (r *fakeAttachmentRepo) GetLatestForUpdate(ctx context.Context, conversationID int64, filename string) (*models.Attachment, error) {
	return r.GetLatestByFilename(ctx, conversationID, filename)
}

func (r *fakeAttachmentRepo) MaxVersion(_ context.Context, conversationID int64, filename string) (int, error) {
	latest := r.getLatest(conversationID, filename)
	if latest == nil {
		return 0, nil
	}
	return latest.Version, nil
}

func (r *fakeAttachmentRepo) Update(_ context.Context, a *models.Attachment) error {
	if _, ok := r.attachments[a.ID]; !ok {
		return fmt.Errorf("attachment %d: %w", a.ID, domain.ErrNotFound)
	}
	stored := *a
	stored.UpdatedAt = time.Now()
	r.attachments[a.ID] = &stored
	return nil
}

func (r *fakeAttachmentRepo) ListByConversation(_ context.Context, conversationID int64) ([]models.Attachment, error) {
	var out []models.Attachment
	for _, a := range r.attachments {
		if a.ConversationID == conversationID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeAttachmentRepo) ListChain(_ context.Context, conversationID int64, filename string) ([]models.Attachment, error) {
	var out []models.Attachment
	for _, a := range r.attachments {
		if a.ConversationID == conversationID && a.Filename == filename {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func (r *fakeAttachmentRepo) ListCurrentFilenames(_ context.Context, conversationID int64) ([]string, error) {
	seen := make(map[string]bool)
	for _, a := range r.attachments {
		if a.ConversationID == conversationID {
			seen[a.Filename] = true
		}
	}
	var names []string
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (r *fakeAttachmentRepo) DeleteByConversation(_ context.Context, conversationID int64) error {
	for id, a := range r.attachments {
		if a.ConversationID == conversationID {
			delete(r.attachments, id)
		}
	}
	return nil
}

type fakeConversationRepo struct {
	conversations map[int64]*models.Conversation
}

func newFakeConversationRepo(ids ...int64) *fakeConversationRepo {
	r := &fakeConversationRepo{conversations: make(map[int64]*models.Conversation)}
	for _, id := range ids {
		r.conversations[id] = &models.Conversation{ID: id, Title: fmt.Sprintf("conversation %d", id)}
	}
	return r
}

func (r *fakeConversationRepo) Create(_ context.Context, c *models.Conversation) error {
	id := int64(len(r.conversations) + 1)
	c.ID = id
	r.conversations[id] = c
	return nil
}

func (r *fakeConversationRepo) GetByID(_ context.Context, id int64) (*models.Conversation, error) {
	c, ok := r.conversations[id]
	if !ok {
		return nil, fmt.Errorf("conversation %d: %w", id, domain.ErrNotFound)
	}
	return c, nil
}

func (r *fakeConversationRepo) List(_ context.Context) ([]models.Conversation, error) {
	var out []models.Conversation
	for _, c := range r.conversations {
		out = append(out, *c)
	}
	return out, nil
}

func (r *fakeConversationRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.conversations[id]; !ok {
		return fmt.Errorf("conversation %d: %w", id, domain.ErrNotFound)
	}
	delete(r.conversations, id)
	return nil
}

// fakeTxManager runs the function directly; the fakes mutate shared maps so
// the transaction boundary is a no-op here.
type fakeTxManager struct{}

func (fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

type fixture struct {
	service     services.DraftService
	drafts      *fakeDraftRepo
	attachments *fakeAttachmentRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	registry, err := completeness.NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	drafts := newFakeDraftRepo()
	attachments := newFakeAttachmentRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewService(
		drafts,
		attachments,
		newFakeConversationRepo(1, 2),
		fakeTxManager{},
		completeness.NewValidator(registry, completeness.DefaultThreshold),
		logger,
	)

	return &fixture{service: svc, drafts: drafts, attachments: attachments}
}
