package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"draftsmith/internal/domain"
	"draftsmith/internal/domain/models"
	"draftsmith/internal/domain/repositories"
)

// PostgresDraftRepository implements the DraftRepository interface
type PostgresDraftRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewDraftRepository creates a new draft repository
func NewDraftRepository(config *RepositoryConfig) repositories.DraftRepository {
	return &PostgresDraftRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const draftColumns = `id, conversation_id, filename, original_filename, attachment_id, content,
		content_hash, content_length, version_number, status, is_complete, has_syntax_errors,
		completeness_score, change_summary, change_details, ai_model, generation_metadata,
		created_at, reviewed_at, promoted_at`

func scanDraft(row interface{ Scan(...interface{}) error }, d *models.Draft) error {
	return row.Scan(
		&d.ID,
		&d.ConversationID,
		&d.Filename,
		&d.OriginalFilename,
		&d.AttachmentID,
		&d.Content,
		&d.ContentHash,
		&d.ContentLength,
		&d.VersionNumber,
		&d.Status,
		&d.IsComplete,
		&d.HasSyntaxErrors,
		&d.CompletenessScore,
		&d.ChangeSummary,
		&d.ChangeDetails,
		&d.AIModel,
		&d.GenerationMetadata,
		&d.CreatedAt,
		&d.ReviewedAt,
		&d.PromotedAt,
	)
}

// Create inserts a new draft
func (r *PostgresDraftRepository) Create(ctx context.Context, draft *models.Draft) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (conversation_id, filename, original_filename, attachment_id, content,
			content_hash, content_length, version_number, status, is_complete, has_syntax_errors,
			completeness_score, change_summary, change_details, ai_model, generation_metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at
	`, r.tables.Drafts)

	exec := GetExecutor(ctx, r.pool)
	err := exec.QueryRow(ctx, query,
		draft.ConversationID,
		draft.Filename,
		draft.OriginalFilename,
		draft.AttachmentID,
		draft.Content,
		draft.ContentHash,
		draft.ContentLength,
		draft.VersionNumber,
		draft.Status,
		draft.IsComplete,
		draft.HasSyntaxErrors,
		draft.CompletenessScore,
		draft.ChangeSummary,
		draft.ChangeDetails,
		draft.AIModel,
		draft.GenerationMetadata,
	).Scan(&draft.ID, &draft.CreatedAt)

	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("conversation %d: %w", draft.ConversationID, domain.ErrNotFound)
		}
		if IsPgDuplicateError(err) {
			return fmt.Errorf("draft '%s' version %d already exists: %w", draft.Filename, draft.VersionNumber, domain.ErrConflict)
		}
		return fmt.Errorf("create draft: %w", err)
	}

	return nil
}

// GetByID retrieves a draft by ID
func (r *PostgresDraftRepository) GetByID(ctx context.Context, id int64) (*models.Draft, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1
	`, draftColumns, r.tables.Drafts)

	exec := GetExecutor(ctx, r.pool)
	var draft models.Draft
	if err := scanDraft(exec.QueryRow(ctx, query, id), &draft); err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("draft %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get draft: %w", err)
	}

	return &draft, nil
}

// Update persists the mutable fields of a draft
func (r *PostgresDraftRepository) Update(ctx context.Context, draft *models.Draft) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1, attachment_id = $2, reviewed_at = $3, promoted_at = $4
		WHERE id = $5
	`, r.tables.Drafts)

	exec := GetExecutor(ctx, r.pool)
	result, err := exec.Exec(ctx, query,
		draft.Status,
		draft.AttachmentID,
		draft.ReviewedAt,
		draft.PromotedAt,
		draft.ID,
	)
	if err != nil {
		return fmt.Errorf("update draft: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("draft %d: %w", draft.ID, domain.ErrNotFound)
	}

	return nil
}

// ListByConversation lists drafts in a conversation, newest first
func (r *PostgresDraftRepository) ListByConversation(ctx context.Context, conversationID int64) ([]models.Draft, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE conversation_id = $1
		ORDER BY created_at DESC, id DESC
	`, draftColumns, r.tables.Drafts)

	return r.list(ctx, query, conversationID)
}

// ListPending lists PENDING drafts, oldest first, optionally scoped to one
// conversation (conversationID == 0 means all)
func (r *PostgresDraftRepository) ListPending(ctx context.Context, conversationID int64) ([]models.Draft, error) {
	if conversationID != 0 {
		query := fmt.Sprintf(`
			SELECT %s
			FROM %s
			WHERE status = $1 AND conversation_id = $2
			ORDER BY created_at ASC, id ASC
		`, draftColumns, r.tables.Drafts)

		return r.list(ctx, query, models.DraftStatusPending, conversationID)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE status = $1
		ORDER BY created_at ASC, id ASC
	`, draftColumns, r.tables.Drafts)

	return r.list(ctx, query, models.DraftStatusPending)
}

func (r *PostgresDraftRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Draft, error) {
	exec := GetExecutor(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()

	var drafts []models.Draft
	for rows.Next() {
		var draft models.Draft
		if err := scanDraft(rows, &draft); err != nil {
			return nil, fmt.Errorf("scan draft: %w", err)
		}
		drafts = append(drafts, draft)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}

	return drafts, nil
}

// MaxVersionNumber returns the highest draft version for the named file, or 0
func (r *PostgresDraftRepository) MaxVersionNumber(ctx context.Context, conversationID int64, filename string) (int, error) {
	query := fmt.Sprintf(`
		SELECT COALESCE(MAX(version_number), 0)
		FROM %s
		WHERE conversation_id = $1 AND filename = $2
	`, r.tables.Drafts)

	exec := GetExecutor(ctx, r.pool)
	var max int
	if err := exec.QueryRow(ctx, query, conversationID, filename).Scan(&max); err != nil {
		return 0, fmt.Errorf("max draft version: %w", err)
	}

	return max, nil
}

// DeleteByConversation removes all drafts in a conversation
func (r *PostgresDraftRepository) DeleteByConversation(ctx context.Context, conversationID int64) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE conversation_id = $1
	`, r.tables.Drafts)

	exec := GetExecutor(ctx, r.pool)
	if _, err := exec.Exec(ctx, query, conversationID); err != nil {
		return fmt.Errorf("delete drafts: %w", err)
	}

	return nil
}
