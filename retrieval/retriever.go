// Package retrieval implements lexical chunk retrieval over the corpus
// plus the question classifiers and topic extraction that drive the
// conversation flow.
package retrieval

import (
	"sort"
	"strings"

	"github.com/pepu-community/pepubot/corpus"
)

// ScoredChunk pairs a corpus chunk with its lexical match score for one
// query.
type ScoredChunk struct {
	corpus.Chunk
	Score int
}

// FindRelevant scores every chunk against the query and returns the topK
// best matches, ordered by descending score with ties broken by corpus
// order. Chunks that match nothing are excluded.
//
// Scoring is raw term counting: the query is lower-cased and split on
// whitespace, and each term contributes its substring occurrence count in
// the lower-cased chunk content. Matching is deliberately not
// token-boundary aware; a term that appears inside a longer word still
// counts.
func FindRelevant(query string, chunks []corpus.Chunk, topK int) []ScoredChunk {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 || topK <= 0 {
		return nil
	}

	scored := make([]ScoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		content := strings.ToLower(chunk.Content)
		score := 0
		for _, term := range terms {
			score += strings.Count(content, term)
		}
		if score > 0 {
			scored = append(scored, ScoredChunk{Chunk: chunk, Score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}
