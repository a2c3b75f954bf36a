package rewrite

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"draftsmith/internal/domain"
	"draftsmith/internal/domain/models"
	"draftsmith/internal/domain/services"
)

// scriptedSegment drives one generation call of the scripted client.
type scriptedSegment struct {
	chunks []string
	stop   services.StopReason
	err    error

	// hang keeps the stream open after the chunks until ctx is cancelled,
	// then closes it without a terminal event
	hang bool
}

// scriptedClient replays pre-scripted segments and records every request.
type scriptedClient struct {
	segments []scriptedSegment
	openErr  error

	mu       sync.Mutex
	requests []*services.GenerateRequest
}

func (c *scriptedClient) Name() string { return "scripted" }

func (c *scriptedClient) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "scripted-")
}

func (c *scriptedClient) StreamGenerate(ctx context.Context, req *services.GenerateRequest) (<-chan services.StreamEvent, error) {
	c.mu.Lock()
	idx := len(c.requests)
	reqCopy := *req
	c.requests = append(c.requests, &reqCopy)
	c.mu.Unlock()

	if c.openErr != nil {
		return nil, c.openErr
	}
	if idx >= len(c.segments) {
		idx = len(c.segments) - 1
	}
	seg := c.segments[idx]

	events := make(chan services.StreamEvent)
	go func() {
		defer close(events)
		for _, chunk := range seg.chunks {
			select {
			case events <- services.StreamEvent{Text: chunk}:
			case <-ctx.Done():
				return
			}
		}
		if seg.hang {
			<-ctx.Done()
			return
		}
		if seg.err != nil {
			select {
			case events <- services.StreamEvent{Err: seg.err}:
			case <-ctx.Done():
			}
			return
		}
		select {
		case events <- services.StreamEvent{Status: seg.stop}:
		case <-ctx.Done():
		}
	}()
	return events, nil
}

func (c *scriptedClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

// fakeConvRepo knows a fixed set of conversation ids.
type fakeConvRepo struct {
	ids map[int64]bool
}

func (r *fakeConvRepo) Create(ctx context.Context, conv *models.Conversation) error {
	r.ids[conv.ID] = true
	return nil
}

func (r *fakeConvRepo) GetByID(ctx context.Context, id int64) (*models.Conversation, error) {
	if !r.ids[id] {
		return nil, &domain.NotFoundError{Message: "conversation not found"}
	}
	return &models.Conversation{ID: id}, nil
}

func (r *fakeConvRepo) List(ctx context.Context) ([]models.Conversation, error) {
	return nil, nil
}

func (r *fakeConvRepo) Delete(ctx context.Context, id int64) error {
	delete(r.ids, id)
	return nil
}

// fakeAttachmentRepo serves a fixed set of current versions, keyed by filename.
type fakeAttachmentRepo struct {
	current map[string]*models.Attachment
}

func (r *fakeAttachmentRepo) Create(ctx context.Context, att *models.Attachment) error {
	return nil
}

func (r *fakeAttachmentRepo) GetByID(ctx context.Context, id int64) (*models.Attachment, error) {
	for _, att := range r.current {
		if att.ID == id {
			copied := *att
			return &copied, nil
		}
	}
	return nil, &domain.NotFoundError{Message: "attachment not found"}
}

func (r *fakeAttachmentRepo) GetLatestByFilename(ctx context.Context, conversationID int64, filename string) (*models.Attachment, error) {
	att, ok := r.current[filename]
	if !ok {
		return nil, &domain.NotFoundError{Message: "attachment not found"}
	}
	copied := *att
	return &copied, nil
}

func (r *fakeAttachmentRepo) GetLatestForUpdate(ctx context.Context, conversationID int64, filename string) (*models.Attachment, error) {
	return r.GetLatestByFilename(ctx, conversationID, filename)
}

func (r *fakeAttachmentRepo) MaxVersion(ctx context.Context, conversationID int64, filename string) (int, error) {
	att, ok := r.current[filename]
	if !ok {
		return 0, nil
	}
	return att.Version, nil
}

func (r *fakeAttachmentRepo) Update(ctx context.Context, att *models.Attachment) error {
	return nil
}

func (r *fakeAttachmentRepo) ListByConversation(ctx context.Context, conversationID int64) ([]models.Attachment, error) {
	return nil, nil
}

func (r *fakeAttachmentRepo) ListChain(ctx context.Context, conversationID int64, filename string) ([]models.Attachment, error) {
	return nil, nil
}

func (r *fakeAttachmentRepo) ListCurrentFilenames(ctx context.Context, conversationID int64) ([]string, error) {
	names := make([]string, 0, len(r.current))
	for name := range r.current {
		names = append(names, name)
	}
	return names, nil
}

func (r *fakeAttachmentRepo) DeleteByConversation(ctx context.Context, conversationID int64) error {
	return nil
}

// fakeDraftService records CreateDraft calls and assigns sequential ids.
// ForceReview pins the returned draft to PENDING, as the real service does.
type fakeDraftService struct {
	mu      sync.Mutex
	created []*services.CreateDraftInput
	nextID  int64
	err     error
}

func (s *fakeDraftService) CreateDraft(ctx context.Context, input *services.CreateDraftInput) (*models.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	s.nextID++
	s.created = append(s.created, input)

	status := models.DraftStatusApproved
	if input.ForceReview {
		status = models.DraftStatusPending
	}
	return &models.Draft{
		ID:                s.nextID,
		ConversationID:    input.ConversationID,
		Filename:          input.Filename,
		Content:           input.Content,
		Status:            status,
		IsComplete:        true,
		CompletenessScore: 0.97,
	}, nil
}

func (s *fakeDraftService) GetDraft(ctx context.Context, id int64) (*models.Draft, error) {
	return nil, &domain.NotFoundError{Message: "draft not found"}
}

func (s *fakeDraftService) ListDrafts(ctx context.Context, conversationID int64) ([]models.Draft, error) {
	return nil, nil
}

func (s *fakeDraftService) ListPendingDrafts(ctx context.Context, conversationID int64) ([]models.Draft, error) {
	return nil, nil
}

func (s *fakeDraftService) ApproveDraft(ctx context.Context, id int64) (*models.Draft, error) {
	return nil, &domain.NotFoundError{Message: "draft not found"}
}

func (s *fakeDraftService) RejectDraft(ctx context.Context, id int64) (*models.Draft, error) {
	return nil, &domain.NotFoundError{Message: "draft not found"}
}

func (s *fakeDraftService) PromoteDraft(ctx context.Context, id int64) (*models.Draft, *models.Attachment, error) {
	return nil, nil, &domain.NotFoundError{Message: "draft not found"}
}

func (s *fakeDraftService) createdInputs() []*services.CreateDraftInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*services.CreateDraftInput, len(s.created))
	copy(out, s.created)
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// waitStatus polls until the executor reaches the wanted status.
func waitStatus(t *testing.T, e *Executor, want string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if e.Status() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("executor status = %q, want %q", e.Status(), want)
}

// parseSSE splits a formatted SSE event into its type and decoded payload.
func parseSSE(t *testing.T, raw string) (string, map[string]interface{}) {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	if len(lines) != 2 {
		t.Fatalf("malformed SSE event: %q", raw)
	}
	eventType := strings.TrimPrefix(lines[0], "event: ")
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimPrefix(lines[1], "data: ")), &payload); err != nil {
		t.Fatalf("decoding SSE payload: %v", err)
	}
	return eventType, payload
}
