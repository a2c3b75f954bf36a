package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"draftsmith/internal/domain"
	"draftsmith/internal/domain/models"
	"draftsmith/internal/domain/repositories"
)

// PostgresAttachmentRepository implements the AttachmentRepository interface
type PostgresAttachmentRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewAttachmentRepository creates a new attachment repository
func NewAttachmentRepository(config *RepositoryConfig) repositories.AttachmentRepository {
	return &PostgresAttachmentRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const attachmentColumns = `id, conversation_id, filename, original_filename, content, content_hash,
		mime_type, size_bytes, status, version, parent_file_id, modification_summary,
		import_source, import_metadata, created_at, updated_at`

func scanAttachment(row interface{ Scan(...interface{}) error }, att *models.Attachment) error {
	return row.Scan(
		&att.ID,
		&att.ConversationID,
		&att.Filename,
		&att.OriginalFilename,
		&att.Content,
		&att.ContentHash,
		&att.MimeType,
		&att.SizeBytes,
		&att.Status,
		&att.Version,
		&att.ParentFileID,
		&att.ModificationSummary,
		&att.ImportSource,
		&att.ImportMetadata,
		&att.CreatedAt,
		&att.UpdatedAt,
	)
}

// Create inserts a new attachment version
func (r *PostgresAttachmentRepository) Create(ctx context.Context, att *models.Attachment) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (conversation_id, filename, original_filename, content, content_hash,
			mime_type, size_bytes, status, version, parent_file_id, modification_summary,
			import_source, import_metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at
	`, r.tables.Attachments)

	exec := GetExecutor(ctx, r.pool)
	err := exec.QueryRow(ctx, query,
		att.ConversationID,
		att.Filename,
		att.OriginalFilename,
		att.Content,
		att.ContentHash,
		att.MimeType,
		att.SizeBytes,
		att.Status,
		att.Version,
		att.ParentFileID,
		att.ModificationSummary,
		att.ImportSource,
		att.ImportMetadata,
	).Scan(&att.ID, &att.CreatedAt, &att.UpdatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("attachment '%s' version %d already exists: %w", att.Filename, att.Version, domain.ErrConflict)
		}
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("conversation %d: %w", att.ConversationID, domain.ErrNotFound)
		}
		return fmt.Errorf("create attachment: %w", err)
	}

	return nil
}

// GetByID retrieves an attachment by ID
func (r *PostgresAttachmentRepository) GetByID(ctx context.Context, id int64) (*models.Attachment, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1
	`, attachmentColumns, r.tables.Attachments)

	exec := GetExecutor(ctx, r.pool)
	var att models.Attachment
	if err := scanAttachment(exec.QueryRow(ctx, query, id), &att); err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("attachment %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get attachment: %w", err)
	}

	return &att, nil
}

// GetLatestByFilename retrieves the current version of the named file.
// MODIFIED rows are always superseded, so the current row is the one with
// the highest version (the sole ORIGINAL, or the LATEST).
func (r *PostgresAttachmentRepository) GetLatestByFilename(ctx context.Context, conversationID int64, filename string) (*models.Attachment, error) {
	return r.getLatest(ctx, conversationID, filename, false)
}

// GetLatestForUpdate locks the current row of the chain. Concurrent
// promotions of the same chain serialize on this lock.
func (r *PostgresAttachmentRepository) GetLatestForUpdate(ctx context.Context, conversationID int64, filename string) (*models.Attachment, error) {
	return r.getLatest(ctx, conversationID, filename, true)
}

func (r *PostgresAttachmentRepository) getLatest(ctx context.Context, conversationID int64, filename string, forUpdate bool) (*models.Attachment, error) {
	suffix := ""
	if forUpdate {
		suffix = "FOR UPDATE"
	}
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE conversation_id = $1 AND filename = $2
		ORDER BY version DESC
		LIMIT 1
		%s
	`, attachmentColumns, r.tables.Attachments, suffix)

	exec := GetExecutor(ctx, r.pool)
	var att models.Attachment
	if err := scanAttachment(exec.QueryRow(ctx, query, conversationID, filename), &att); err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("attachment '%s': %w", filename, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get latest attachment: %w", err)
	}

	return &att, nil
}

// MaxVersion returns the highest version in the chain, or 0 when empty
func (r *PostgresAttachmentRepository) MaxVersion(ctx context.Context, conversationID int64, filename string) (int, error) {
	query := fmt.Sprintf(`
		SELECT COALESCE(MAX(version), 0)
		FROM %s
		WHERE conversation_id = $1 AND filename = $2
	`, r.tables.Attachments)

	exec := GetExecutor(ctx, r.pool)
	var max int
	if err := exec.QueryRow(ctx, query, conversationID, filename).Scan(&max); err != nil {
		return 0, fmt.Errorf("max attachment version: %w", err)
	}

	return max, nil
}

// Update persists the mutable fields of an attachment
func (r *PostgresAttachmentRepository) Update(ctx context.Context, att *models.Attachment) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $1, modification_summary = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING updated_at
	`, r.tables.Attachments)

	exec := GetExecutor(ctx, r.pool)
	if err := exec.QueryRow(ctx, query, att.Status, att.ModificationSummary, att.ID).Scan(&att.UpdatedAt); err != nil {
		if IsPgNoRowsError(err) {
			return fmt.Errorf("attachment %d: %w", att.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("update attachment: %w", err)
	}

	return nil
}

// ListByConversation lists all attachment versions in a conversation
func (r *PostgresAttachmentRepository) ListByConversation(ctx context.Context, conversationID int64) ([]models.Attachment, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE conversation_id = $1
		ORDER BY filename ASC, version ASC
	`, attachmentColumns, r.tables.Attachments)

	return r.list(ctx, query, conversationID)
}

// ListChain lists every version of the named file, version ascending
func (r *PostgresAttachmentRepository) ListChain(ctx context.Context, conversationID int64, filename string) ([]models.Attachment, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE conversation_id = $1 AND filename = $2
		ORDER BY version ASC
	`, attachmentColumns, r.tables.Attachments)

	return r.list(ctx, query, conversationID, filename)
}

func (r *PostgresAttachmentRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Attachment, error) {
	exec := GetExecutor(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	var atts []models.Attachment
	for rows.Next() {
		var att models.Attachment
		if err := scanAttachment(rows, &att); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		atts = append(atts, att)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}

	return atts, nil
}

// ListCurrentFilenames returns the distinct filenames in a conversation
func (r *PostgresAttachmentRepository) ListCurrentFilenames(ctx context.Context, conversationID int64) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT filename
		FROM %s
		WHERE conversation_id = $1
		ORDER BY filename ASC
	`, r.tables.Attachments)

	exec := GetExecutor(ctx, r.pool)
	rows, err := exec.Query(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list filenames: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan filename: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list filenames: %w", err)
	}

	return names, nil
}

// DeleteByConversation removes all attachments in a conversation
func (r *PostgresAttachmentRepository) DeleteByConversation(ctx context.Context, conversationID int64) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE conversation_id = $1
	`, r.tables.Attachments)

	exec := GetExecutor(ctx, r.pool)
	if _, err := exec.Exec(ctx, query, conversationID); err != nil {
		return fmt.Errorf("delete attachments: %w", err)
	}

	return nil
}
