package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pepu-community/pepubot/corpus"
)

type recordingStore struct {
	docs   []corpus.Document
	chunks []corpus.Chunk
	calls  int
}

func (s *recordingStore) LoadChunks(ctx context.Context) ([]corpus.Chunk, error) {
	return s.chunks, nil
}

func (s *recordingStore) Replace(ctx context.Context, docs []corpus.Document, chunks []corpus.Chunk) error {
	s.calls++
	s.docs = docs
	s.chunks = chunks
	return nil
}

func (s *recordingStore) Count(ctx context.Context) (int, error) { return len(s.chunks), nil }

func (s *recordingStore) Clear(ctx context.Context) error { return nil }

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestProcessLoadsLocalDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bridge.md", "# Bridge Guide\n\nThe bridge moves PEPU to the layer 2 chain.")
	writeFile(t, dir, "faq.txt", "Pepe Unchained FAQ\n\nStaking locks PEPU to earn rewards.")
	writeFile(t, dir, "ignore.bin", "not a document")

	store := &recordingStore{}
	svc := NewService(store, nil, testLogger(), 0, 0)

	if err := svc.Process(context.Background(), dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.calls != 1 {
		t.Fatalf("expected one replace, got %d", store.calls)
	}
	if len(store.docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(store.docs))
	}
	if len(store.chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for _, chunk := range store.chunks {
		if chunk.Source != "local" {
			t.Fatalf("local files should be tagged local, got %q", chunk.Source)
		}
	}
}

func TestProcessMissingDirectoryFailsWithoutDocuments(t *testing.T) {
	store := &recordingStore{}
	svc := NewService(store, nil, testLogger(), 0, 0)

	if err := svc.Process(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error when nothing was collected")
	}
	if store.calls != 0 {
		t.Fatal("empty run must not touch the stored corpus")
	}
}

func TestDedupeByURL(t *testing.T) {
	docs := []corpus.Document{
		{URL: "https://a.example", Title: "first"},
		{URL: "https://b.example", Title: "second"},
		{URL: "https://a.example", Title: "repeat"},
	}

	deduped := dedupeByURL(docs)
	if len(deduped) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(deduped))
	}
	if deduped[0].Title != "first" || deduped[1].Title != "second" {
		t.Fatalf("dedupe should keep first occurrence: %+v", deduped)
	}
}

func TestSourceTag(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://docs.pepeunchained.com/bridge", "docs.pepeunchained.com"},
		{"file:///data/guide.md", "local"},
		{"", "local"},
	}

	for _, tc := range cases {
		if got := sourceTag(corpus.Document{URL: tc.url}); got != tc.want {
			t.Errorf("sourceTag(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}
