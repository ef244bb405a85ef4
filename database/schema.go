package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS pepu_documents (
			id UUID PRIMARY KEY,
			url TEXT UNIQUE NOT NULL,
			title TEXT,
			position INT NOT NULL,
			fetched_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS pepu_chunks (
			id UUID PRIMARY KEY,
			document_id UUID NOT NULL REFERENCES pepu_documents(id) ON DELETE CASCADE,
			source TEXT NOT NULL,
			chunk_index INT NOT NULL,
			total_chunks INT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE(document_id, chunk_index)
		)`,
		"CREATE INDEX IF NOT EXISTS idx_pepu_chunks_document ON pepu_chunks(document_id)",
		"CREATE INDEX IF NOT EXISTS idx_pepu_documents_position ON pepu_documents(position)",
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}

	return nil
}
