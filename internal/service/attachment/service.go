// Package attachment manages uploaded files and their version chains.
package attachment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"draftsmith/internal/domain"
	"draftsmith/internal/domain/models"
	"draftsmith/internal/domain/repositories"
	"draftsmith/internal/domain/services"
)

const defaultMimeType = "text/plain"

type attachmentService struct {
	attachmentRepo repositories.AttachmentRepository
	convRepo       repositories.ConversationRepository
	logger         *slog.Logger
}

// NewService creates the attachment service
func NewService(
	attachmentRepo repositories.AttachmentRepository,
	convRepo repositories.ConversationRepository,
	logger *slog.Logger,
) services.AttachmentService {
	return &attachmentService{
		attachmentRepo: attachmentRepo,
		convRepo:       convRepo,
		logger:         logger,
	}
}

// Upload stores a new file as the ORIGINAL version of a fresh chain. The
// ORIGINAL row is immutable from here on; rewrites extend the chain through
// draft promotion instead of touching it.
func (s *attachmentService) Upload(ctx context.Context, input *services.UploadAttachmentInput) (*models.Attachment, error) {
	if err := validation.ValidateStruct(input,
		validation.Field(&input.Filename, validation.Required, validation.Length(1, 512)),
		validation.Field(&input.Content, validation.Required),
	); err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}

	if _, err := s.convRepo.GetByID(ctx, input.ConversationID); err != nil {
		return nil, err
	}

	existing, err := s.attachmentRepo.GetLatestByFilename(ctx, input.ConversationID, input.Filename)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("file %s already has a version chain: %w", input.Filename, domain.ErrConflict)
	}

	importSource := input.ImportSource
	if importSource == nil {
		src := "upload"
		importSource = &src
	}

	att := &models.Attachment{
		ConversationID: input.ConversationID,
		Filename:       input.Filename,
		Content:        input.Content,
		ContentHash:    hashContent(input.Content),
		MimeType:       resolveMimeType(input),
		SizeBytes:      int64(len(input.Content)),
		Status:         models.FileStatusOriginal,
		Version:        1,
		ImportSource:   importSource,
	}

	if err := s.attachmentRepo.Create(ctx, att); err != nil {
		// a concurrent upload of the same filename loses on the version key
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("file %s already has a version chain: %w", input.Filename, domain.ErrConflict)
		}
		return nil, err
	}

	s.logger.Info("attachment uploaded",
		"attachment_id", att.ID,
		"conversation_id", att.ConversationID,
		"filename", att.Filename,
		"size_bytes", att.SizeBytes)

	return att, nil
}

func (s *attachmentService) Get(ctx context.Context, id int64) (*models.Attachment, error) {
	return s.attachmentRepo.GetByID(ctx, id)
}

func (s *attachmentService) GetCurrent(ctx context.Context, conversationID int64, filename string) (*models.Attachment, error) {
	return s.attachmentRepo.GetLatestByFilename(ctx, conversationID, filename)
}

// ListChains groups every stored version by filename, versions ascending.
func (s *attachmentService) ListChains(ctx context.Context, conversationID int64) (map[string][]models.Attachment, error) {
	all, err := s.attachmentRepo.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	chains := make(map[string][]models.Attachment)
	for _, att := range all {
		chains[att.Filename] = append(chains[att.Filename], att)
	}
	return chains, nil
}

func (s *attachmentService) CurrentFilenames(ctx context.Context, conversationID int64) ([]string, error) {
	return s.attachmentRepo.ListCurrentFilenames(ctx, conversationID)
}

func hashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// resolveMimeType honors an explicit mime type, then the filename extension.
func resolveMimeType(input *services.UploadAttachmentInput) string {
	if input.MimeType != "" {
		return input.MimeType
	}
	if byExt := mime.TypeByExtension(filepath.Ext(input.Filename)); byExt != "" {
		return byExt
	}
	return defaultMimeType
}
