package ingestion

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"net/url"
	"os"
	"path/filepath"

	"github.com/pepu-community/pepubot/corpus"
)

// Service runs the full processing pipeline: crawl the sites, load the
// local data directory, chunk everything and replace the stored corpus.
type Service struct {
	store        corpus.Store
	scraper      *Scraper
	logger       *log.Logger
	chunkSize    int
	chunkOverlap int
}

func NewService(store corpus.Store, scraper *Scraper, logger *log.Logger, chunkSize, chunkOverlap int) *Service {
	if logger == nil {
		logger = log.Default()
	}
	if chunkSize <= 0 {
		chunkSize = corpus.DefaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = corpus.DefaultChunkOverlap
	}

	return &Service{
		store:        store,
		scraper:      scraper,
		logger:       logger,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Process rebuilds the corpus from scratch. The previous corpus stays
// available to readers until the replacement commits.
func (s *Service) Process(ctx context.Context, dataDir string) error {
	docs := make([]corpus.Document, 0)

	if s.scraper != nil {
		scraped, err := s.scraper.Crawl(ctx)
		if err != nil {
			return fmt.Errorf("crawl sites: %w", err)
		}
		docs = append(docs, scraped...)
	}

	local, err := s.loadDirectory(dataDir)
	if err != nil {
		return fmt.Errorf("load data directory: %w", err)
	}
	docs = append(docs, local...)

	if len(docs) == 0 {
		return fmt.Errorf("no documents collected, corpus left untouched")
	}

	docs = dedupeByURL(docs)

	chunks := make([]corpus.Chunk, 0, len(docs))
	for _, doc := range docs {
		docChunks := corpus.FromDocument(doc, sourceTag(doc), s.chunkSize, s.chunkOverlap)
		if len(docChunks) == 0 {
			s.logger.Printf("skip empty document %s", doc.URL)
			continue
		}
		chunks = append(chunks, docChunks...)
	}

	if err := s.store.Replace(ctx, docs, chunks); err != nil {
		return fmt.Errorf("store corpus: %w", err)
	}

	s.logger.Printf("processed %d documents into %d chunks", len(docs), len(chunks))
	return nil
}

// loadDirectory reads every supported file under dir. A missing directory
// is not an error; site scraping alone can build the corpus.
func (s *Service) loadDirectory(dir string) ([]corpus.Document, error) {
	if dir == "" {
		return nil, nil
	}
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	docs := make([]corpus.Document, 0)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || DetectFormat(path) == FormatUnknown {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		doc, err := ParseFile(path, data)
		if err != nil {
			s.logger.Printf("skip %s: %v", path, err)
			return nil
		}

		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func dedupeByURL(docs []corpus.Document) []corpus.Document {
	seen := make(map[string]bool, len(docs))
	result := make([]corpus.Document, 0, len(docs))
	for _, doc := range docs {
		if seen[doc.URL] {
			continue
		}
		seen[doc.URL] = true
		result = append(result, doc)
	}
	return result
}

// sourceTag labels a chunk's provenance: the page host for scraped
// documents, "local" for files from the data directory.
func sourceTag(doc corpus.Document) string {
	parsed, err := url.Parse(doc.URL)
	if err != nil || parsed.Host == "" {
		return "local"
	}
	return parsed.Host
}
