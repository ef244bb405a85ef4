package corpus

import (
	"strings"
	"testing"
)

func TestSplitEmptyInput(t *testing.T) {
	if chunks := Split("", 100, 20); chunks != nil {
		t.Fatalf("expected no chunks for empty input, got %v", chunks)
	}
	if chunks := Split("   \n\t  ", 100, 20); chunks != nil {
		t.Fatalf("expected no chunks for whitespace input, got %v", chunks)
	}
}

func TestSplitSingleSentence(t *testing.T) {
	chunks := Split("Pepe Unchained is a layer 2 chain.", 100, 20)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "Pepe Unchained is a layer 2 chain." {
		t.Fatalf("unexpected chunk: %q", chunks[0])
	}
}

func TestSplitNoTerminatorFallsBackToWholeText(t *testing.T) {
	chunks := Split("no terminator in this text at all", 100, 20)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "no terminator in this text at all" {
		t.Fatalf("unexpected chunk: %q", chunks[0])
	}
}

func TestSplitRespectsMaxSizeAndOverlap(t *testing.T) {
	text := "The quick brown fox jumps. The lazy dog sleeps now. Frogs leap over logs daily."
	chunks := Split(text, 50, 30)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %v", len(chunks), chunks)
	}
	for i, chunk := range chunks {
		if len(chunk) > 50 {
			t.Fatalf("chunk %d exceeds max size: %d chars", i, len(chunk))
		}
		if chunk != strings.TrimSpace(chunk) {
			t.Fatalf("chunk %d not trimmed: %q", i, chunk)
		}
	}

	// overlapHint 30 seeds each chunk with the previous chunk's last 3 words
	if !strings.HasPrefix(chunks[1], "brown fox jumps.") {
		t.Fatalf("expected overlap prefix in chunk 1, got %q", chunks[1])
	}

	// no sentence may be dropped
	joined := strings.Join(chunks, " ")
	for _, sentence := range []string{"The quick brown fox jumps.", "The lazy dog sleeps now.", "Frogs leap over logs daily."} {
		if !strings.Contains(joined, sentence) {
			t.Fatalf("sentence %q missing from chunks", sentence)
		}
	}
}

func TestSplitOversizedSentenceBecomesOwnChunk(t *testing.T) {
	chunks := Split("Supercalifragilisticexpialidocious sentence one. Ok.", 10, 0)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	if chunks[0] != "Supercalifragilisticexpialidocious sentence one." {
		t.Fatalf("oversized sentence was truncated: %q", chunks[0])
	}
	if chunks[1] != "Ok." {
		t.Fatalf("unexpected trailing chunk: %q", chunks[1])
	}
}

func TestFromDocumentOrdering(t *testing.T) {
	doc := Document{
		URL:     "https://docs.pepeunchained.com/bridge",
		Title:   "Bridge Guide",
		RawText: "Step one is easy. Step two is harder. Step three needs a wallet. Step four is done.",
	}

	chunks := FromDocument(doc, "docs.pepeunchained.com", 40, 0)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	for i, chunk := range chunks {
		if chunk.URL != doc.URL || chunk.Title != doc.Title || chunk.Source != "docs.pepeunchained.com" {
			t.Fatalf("chunk %d lost provenance: %+v", i, chunk)
		}
		if chunk.ChunkIndex != i {
			t.Fatalf("chunk %d has index %d", i, chunk.ChunkIndex)
		}
		if chunk.TotalChunks != len(chunks) {
			t.Fatalf("chunk %d reports %d total chunks, want %d", i, chunk.TotalChunks, len(chunks))
		}
		if chunk.ContentLength != len(chunk.Content) {
			t.Fatalf("chunk %d content length mismatch", i)
		}
	}
}

func TestFromDocumentEmptyText(t *testing.T) {
	if chunks := FromDocument(Document{URL: "x", RawText: "  "}, "local", 100, 10); chunks != nil {
		t.Fatalf("expected no chunks, got %v", chunks)
	}
}
