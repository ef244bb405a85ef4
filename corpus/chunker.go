package corpus

import (
	"regexp"
	"strings"
)

const (
	DefaultChunkSize    = 2000
	DefaultChunkOverlap = 200
)

// sentencePattern matches a run of non-terminator characters followed by
// one or more sentence terminators. Leading whitespace after a previous
// terminator stays attached, so joining consecutive units reproduces the
// original spacing.
var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+`)

// Split breaks text into chunks of at most maxSize characters along
// sentence boundaries. Consecutive chunks overlap: each new chunk is
// seeded with the last overlapHint/10 words of the previous one. A single
// sentence longer than maxSize becomes its own chunk rather than being
// truncated. Empty or whitespace-only input yields no chunks.
func Split(text string, maxSize, overlapHint int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if maxSize <= 0 {
		maxSize = DefaultChunkSize
	}
	if overlapHint < 0 {
		overlapHint = 0
	}

	units := sentencePattern.FindAllString(text, -1)
	if len(units) == 0 {
		units = []string{text}
	}

	overlapWords := overlapHint / 10
	chunks := make([]string, 0)
	current := ""

	for _, unit := range units {
		if current != "" && len(current)+len(unit) > maxSize {
			closed := strings.TrimSpace(current)
			if closed != "" {
				chunks = append(chunks, closed)
			}
			current = overlapTail(closed, overlapWords)
			if current != "" {
				current += " "
			}
		}
		current += unit
	}

	if trimmed := strings.TrimSpace(current); trimmed != "" {
		chunks = append(chunks, trimmed)
	}

	return chunks
}

// overlapTail returns the last n space-separated words of text joined by
// single spaces.
func overlapTail(text string, n int) string {
	if n <= 0 {
		return ""
	}
	words := strings.Fields(text)
	if len(words) > n {
		words = words[len(words)-n:]
	}
	return strings.Join(words, " ")
}
