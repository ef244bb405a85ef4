package corpus

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists and loads a processed corpus. Replace swaps the stored
// corpus wholesale; LoadChunks returns ErrCorpusMissing when nothing has
// been processed yet.
type Store interface {
	LoadChunks(ctx context.Context) ([]Chunk, error)
	Replace(ctx context.Context, docs []Document, chunks []Chunk) error
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// LoadChunks returns every stored chunk in corpus order: documents in
// insertion order, chunks by index within each document.
func (s *PostgresStore) LoadChunks(ctx context.Context) ([]Chunk, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := s.pool.Query(ctx, `
        SELECT pd.url, pd.title, pc.source, pc.chunk_index, pc.total_chunks, pc.content
        FROM pepu_chunks pc
        JOIN pepu_documents pd ON pd.id = pc.document_id
        ORDER BY pd.position, pc.chunk_index
    `)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	chunks := make([]Chunk, 0)
	for rows.Next() {
		var chunk Chunk
		if err := rows.Scan(&chunk.URL, &chunk.Title, &chunk.Source, &chunk.ChunkIndex, &chunk.TotalChunks, &chunk.Content); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunk.ContentLength = len(chunk.Content)
		chunks = append(chunks, chunk)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	if len(chunks) == 0 {
		return nil, ErrCorpusMissing
	}
	return chunks, nil
}

// Replace atomically swaps the stored corpus for the given documents and
// chunks. Chunks reference their document by URL.
func (s *PostgresStore) Replace(ctx context.Context, docs []Document, chunks []Chunk) (err error) {
	if s.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, "DELETE FROM pepu_chunks"); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}
	if _, err = tx.Exec(ctx, "DELETE FROM pepu_documents"); err != nil {
		return fmt.Errorf("clear documents: %w", err)
	}

	docIDs := make(map[string]uuid.UUID, len(docs))
	for position, doc := range docs {
		docID := uuid.New()
		docIDs[doc.URL] = docID
		if _, err = tx.Exec(ctx, `
			INSERT INTO pepu_documents (id, url, title, position, fetched_at, created_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
		`, docID, doc.URL, doc.Title, position, doc.FetchedAt); err != nil {
			return fmt.Errorf("insert document %s: %w", doc.URL, err)
		}
	}

	for _, chunk := range chunks {
		docID, ok := docIDs[chunk.URL]
		if !ok {
			return fmt.Errorf("chunk references unknown document %s", chunk.URL)
		}
		if _, err = tx.Exec(ctx, `
			INSERT INTO pepu_chunks (id, document_id, source, chunk_index, total_chunks, content, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
		`, uuid.New(), docID, chunk.Source, chunk.ChunkIndex, chunk.TotalChunks, chunk.Content); err != nil {
			return fmt.Errorf("insert chunk %d of %s: %w", chunk.ChunkIndex, chunk.URL, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	if s.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var count int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM pepu_chunks").Scan(&count); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	if s.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	if _, err := s.pool.Exec(ctx, "TRUNCATE pepu_chunks, pepu_documents"); err != nil {
		return fmt.Errorf("truncate corpus tables: %w", err)
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
