package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"draftsmith/internal/repository/postgres"
)

// EnsureSchema creates the prefixed tables and indexes if they do not exist.
// Safe to run at every startup.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	createConversations := `
		CREATE TABLE IF NOT EXISTS ` + tables.Conversations + ` (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			model TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createConversations); err != nil {
		return err
	}

	createAttachments := `
		CREATE TABLE IF NOT EXISTS ` + tables.Attachments + ` (
			id BIGSERIAL PRIMARY KEY,
			conversation_id BIGINT NOT NULL REFERENCES ` + tables.Conversations + `(id) ON DELETE CASCADE,
			filename TEXT NOT NULL,
			original_filename TEXT,
			content TEXT NOT NULL,
			content_hash TEXT NOT NULL,
			mime_type TEXT NOT NULL DEFAULT 'text/plain',
			size_bytes BIGINT NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'ORIGINAL',
			version INTEGER NOT NULL DEFAULT 1,
			parent_file_id BIGINT REFERENCES ` + tables.Attachments + `(id) ON DELETE CASCADE,
			modification_summary TEXT,
			import_source TEXT,
			import_metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE(conversation_id, filename, version)
		)
	`
	if _, err := pool.Exec(ctx, createAttachments); err != nil {
		return err
	}

	createDrafts := `
		CREATE TABLE IF NOT EXISTS ` + tables.Drafts + ` (
			id BIGSERIAL PRIMARY KEY,
			conversation_id BIGINT NOT NULL REFERENCES ` + tables.Conversations + `(id) ON DELETE CASCADE,
			filename TEXT NOT NULL,
			original_filename TEXT,
			attachment_id BIGINT REFERENCES ` + tables.Attachments + `(id) ON DELETE SET NULL,
			content TEXT NOT NULL,
			content_hash TEXT NOT NULL,
			content_length INTEGER NOT NULL DEFAULT 0,
			version_number INTEGER NOT NULL DEFAULT 1,
			status TEXT NOT NULL DEFAULT 'PENDING',
			is_complete BOOLEAN NOT NULL DEFAULT FALSE,
			has_syntax_errors BOOLEAN NOT NULL DEFAULT FALSE,
			completeness_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			change_summary TEXT,
			change_details JSONB,
			ai_model TEXT,
			generation_metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			reviewed_at TIMESTAMPTZ,
			promoted_at TIMESTAMPTZ
		)
	`
	if _, err := pool.Exec(ctx, createDrafts); err != nil {
		return err
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `attachments_conv_file ON ` + tables.Attachments + `(conversation_id, filename)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + tablePrefix + `attachments_one_latest ON ` + tables.Attachments + `(conversation_id, filename) WHERE status = 'LATEST'`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `drafts_conversation ON ` + tables.Drafts + `(conversation_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `drafts_status ON ` + tables.Drafts + `(status) WHERE status = 'PENDING'`,
	}

	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return err
		}
	}

	return nil
}

// DropAll drops the prefixed tables in reverse dependency order. Intended for
// dev and test environments only; callers must refuse to run it in prod.
func DropAll(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	for _, table := range []string{tables.Drafts, tables.Attachments, tables.Conversations} {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return err
		}
	}
	return nil
}
