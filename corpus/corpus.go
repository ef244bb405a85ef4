// Package corpus defines the chunked knowledge corpus: the Chunk record,
// the chunking algorithm, and the Postgres-backed store that persists a
// processed corpus wholesale.
package corpus

import (
	"errors"
	"time"
)

// ErrCorpusMissing is returned by a Store when no processed corpus exists.
var ErrCorpusMissing = errors.New("no processed corpus found")

// Document is a captured source page or file before chunking.
type Document struct {
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	RawText   string    `json:"raw_text"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Chunk is one bounded segment of a document's cleaned text. Chunks from
// the same document share URL, Title and Source and are ordered by
// ChunkIndex from 0 to TotalChunks-1.
type Chunk struct {
	URL           string `json:"url"`
	Title         string `json:"title"`
	Source        string `json:"source"`
	ChunkIndex    int    `json:"chunk_index"`
	TotalChunks   int    `json:"total_chunks"`
	Content       string `json:"content"`
	ContentLength int    `json:"content_length"`
}

// FromDocument chunks a document's text and wraps each piece with the
// document's provenance metadata.
func FromDocument(doc Document, source string, maxSize, overlapHint int) []Chunk {
	pieces := Split(doc.RawText, maxSize, overlapHint)
	if len(pieces) == 0 {
		return nil
	}

	chunks := make([]Chunk, len(pieces))
	for i, content := range pieces {
		chunks[i] = Chunk{
			URL:           doc.URL,
			Title:         doc.Title,
			Source:        source,
			ChunkIndex:    i,
			TotalChunks:   len(pieces),
			Content:       content,
			ContentLength: len(content),
		}
	}
	return chunks
}
