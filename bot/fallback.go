package bot

import (
	"strings"
	"unicode/utf8"

	"github.com/pepu-community/pepubot/corpus"
	"github.com/pepu-community/pepubot/retrieval"
)

const fallbackSnippetBudget = 500

// FallbackAnswer composes an answer straight from retrieval, used when
// the generative capability is out of quota. It returns false when no
// chunk matched, in which case the caller surfaces the billing guidance.
func FallbackAnswer(query string, chunks []corpus.Chunk) (string, bool) {
	topK := retrieval.TopK(retrieval.Classify(query))
	matches := retrieval.FindRelevant(query, chunks, topK)
	if len(matches) == 0 {
		return "", false
	}

	top := matches[0]
	content := strings.TrimSpace(top.Content)
	if len(content) > fallbackSnippetBudget {
		cut := fallbackSnippetBudget
		// never split a rune at the budget boundary
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		content = content[:cut] + "..."
	}

	var sb strings.Builder
	sb.WriteString("📖 From the Pepe Unchained docs:\n\n")
	sb.WriteString(content)
	sb.WriteString("\n\nSource: ")
	sb.WriteString(sourceLabel(top.Chunk))

	if len(matches) > 1 {
		sb.WriteString("\n\nSee also:")
		for _, match := range matches[1:] {
			sb.WriteString("\n• ")
			sb.WriteString(sourceLabel(match.Chunk))
		}
	}

	return sb.String(), true
}

func sourceLabel(chunk corpus.Chunk) string {
	if chunk.Title != "" {
		return chunk.Title
	}
	return chunk.URL
}
