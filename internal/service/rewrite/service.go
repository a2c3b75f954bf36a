// Package rewrite orchestrates whole-file rewrites: prompt in, live SSE
// chunk stream out, and a draft per detected file once the text is fully
// assembled.
package rewrite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"draftsmith/internal/domain"
	"draftsmith/internal/domain/repositories"
	"draftsmith/internal/domain/services"
	"draftsmith/internal/service/detect"
	"draftsmith/internal/service/generation"
)

// systemPromptTemplate steers the model toward whole-file output the
// detector can attribute. The current filenames of the conversation are
// substituted in so the model reuses them verbatim.
const systemPromptTemplate = `You are a code assistant. When you modify a file, always emit the complete file, never a fragment or a diff. Wrap each file in a fenced code block and put its exact filename on the fence line or the line directly above it. Files in this conversation: %s.`

const noFilesNote = "none yet"

// Config bounds the rewrite pipeline.
type Config struct {
	// DefaultModel is used when the request names none
	DefaultModel string

	// Assembler bounds segment count and total length per rewrite
	Assembler generation.AssemblerConfig
}

type rewriteService struct {
	convRepo       repositories.ConversationRepository
	attachmentRepo repositories.AttachmentRepository
	clients        *generation.ClientRegistry
	draftService   services.DraftService
	detector       *detect.Detector
	matcher        detect.ChainMatcher
	executors      *ExecutorRegistry
	cfg            Config
	logger         *slog.Logger
}

// NewService wires the rewrite pipeline. The executor registry is shared
// with the SSE handler so stream subscribers can find running rewrites.
func NewService(
	convRepo repositories.ConversationRepository,
	attachmentRepo repositories.AttachmentRepository,
	clients *generation.ClientRegistry,
	draftService services.DraftService,
	detector *detect.Detector,
	matcher detect.ChainMatcher,
	executors *ExecutorRegistry,
	cfg Config,
	logger *slog.Logger,
) services.RewriteService {
	return &rewriteService{
		convRepo:       convRepo,
		attachmentRepo: attachmentRepo,
		clients:        clients,
		draftService:   draftService,
		detector:       detector,
		matcher:        matcher,
		executors:      executors,
		cfg:            cfg,
		logger:         logger,
	}
}

// StartRewrite validates the request, registers an executor, and launches
// assembly in the background. The response returns immediately; chunks and
// the terminal event arrive over the stream URL.
func (s *rewriteService) StartRewrite(ctx context.Context, req *services.StartRewriteRequest) (*services.StartRewriteResponse, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Prompt, validation.Required, validation.Length(1, 20000)),
	); err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}

	if _, err := s.convRepo.GetByID(ctx, req.ConversationID); err != nil {
		return nil, err
	}

	model := s.cfg.DefaultModel
	if req.Model != nil && *req.Model != "" {
		model = *req.Model
	}

	client, err := s.clients.ForModel(model)
	if err != nil {
		return nil, err
	}

	system, err := s.buildSystemPrompt(ctx, req)
	if err != nil {
		return nil, err
	}

	genReq := &services.GenerateRequest{
		Messages: []services.Message{{Role: "user", Content: req.Prompt}},
		Model:    model,
		System:   &system,
	}

	rewriteID := uuid.NewString()
	assembler := generation.NewAssembler(client, s.cfg.Assembler)

	// The executor outlives the HTTP request; it is cancelled by
	// CancelRewrite, not by the caller's context.
	executor := NewExecutor(context.Background(), rewriteID, assembler,
		s.finalizer(req.ConversationID, rewriteID, model), s.logger)

	if ok := s.executors.Register(rewriteID, executor); !ok {
		return nil, fmt.Errorf("rewrite id collision: %s", rewriteID)
	}

	executor.Start(genReq)

	s.logger.Info("rewrite started",
		"rewrite_id", rewriteID,
		"conversation_id", req.ConversationID,
		"model", model)

	return &services.StartRewriteResponse{
		RewriteID: rewriteID,
		StreamURL: "/api/rewrites/" + rewriteID + "/stream",
	}, nil
}

// CancelRewrite interrupts an in-flight rewrite. Connected stream clients
// receive a rewrite_error event with is_cancelled set; no drafts are created.
func (s *rewriteService) CancelRewrite(ctx context.Context, rewriteID string) error {
	executor := s.executors.Get(rewriteID)
	if executor == nil {
		return &domain.NotFoundError{Message: fmt.Sprintf("rewrite %s not found", rewriteID)}
	}
	executor.Interrupt()
	return nil
}

func (s *rewriteService) buildSystemPrompt(ctx context.Context, req *services.StartRewriteRequest) (string, error) {
	if req.SystemPrompt != nil && *req.SystemPrompt != "" {
		return *req.SystemPrompt, nil
	}

	filenames, err := s.attachmentRepo.ListCurrentFilenames(ctx, req.ConversationID)
	if err != nil {
		return "", err
	}

	listed := noFilesNote
	if len(filenames) > 0 {
		listed = strings.Join(filenames, ", ")
	}
	return fmt.Sprintf(systemPromptTemplate, listed), nil
}

// finalizer returns the closure the executor runs once assembly succeeds:
// detect file updates in the assembled text and record one draft each.
// It never runs on a cancelled or failed assembly.
func (s *rewriteService) finalizer(conversationID int64, rewriteID, model string) finalizeFunc {
	return func(ctx context.Context, result *generation.Result) ([]DraftRef, error) {
		updates := s.detector.Detect(result.Text)
		if len(updates) == 0 {
			s.logger.Info("rewrite produced no file updates", "rewrite_id", rewriteID)
			return nil, nil
		}

		known, err := s.attachmentRepo.ListCurrentFilenames(ctx, conversationID)
		if err != nil {
			return nil, err
		}

		refs := make([]DraftRef, 0, len(updates))
		for _, update := range updates {
			ref, err := s.createDraft(ctx, conversationID, rewriteID, model, known, update, result)
			if err != nil {
				return refs, err
			}
			refs = append(refs, ref)
		}
		return refs, nil
	}
}

// createDraft resolves one detected update against the conversation's file
// chains and records it. An ambiguous match still creates the draft but
// forces it through review.
func (s *rewriteService) createDraft(ctx context.Context, conversationID int64, rewriteID, model string, known []string, update detect.FileUpdate, result *generation.Result) (DraftRef, error) {
	match := s.matcher.Match(update.Filename, known)

	filename := update.Filename
	var attachmentID *int64
	if match.Filename != "" {
		filename = match.Filename
		current, err := s.attachmentRepo.GetLatestByFilename(ctx, conversationID, match.Filename)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return DraftRef{}, err
		}
		if current != nil {
			attachmentID = &current.ID
		}
	}

	var originalFilename *string
	if filename != update.Filename {
		detected := update.Filename
		originalFilename = &detected
	}

	draft, err := s.draftService.CreateDraft(ctx, &services.CreateDraftInput{
		ConversationID:   conversationID,
		Filename:         filename,
		OriginalFilename: originalFilename,
		AttachmentID:     attachmentID,
		Content:          update.Code,
		AIModel:          &model,
		GenerationMetadata: map[string]interface{}{
			"rewrite_id":      rewriteID,
			"segments":        result.Segments,
			"truncated":       result.Truncated,
			"ambiguous_match": match.Ambiguous,
		},
		ForceReview: match.Ambiguous,
	})
	if err != nil {
		return DraftRef{}, fmt.Errorf("create draft for %s: %w", filename, err)
	}

	return DraftRef{
		DraftID:    draft.ID,
		Filename:   draft.Filename,
		Status:     string(draft.Status),
		IsComplete: draft.IsComplete,
		Score:      draft.CompletenessScore,
	}, nil
}
