// Package ingestion builds the knowledge corpus: it crawls the project
// sites, loads local documents, chunks everything and stores the result
// wholesale.
package ingestion

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pepu-community/pepubot/config"
	"github.com/pepu-community/pepubot/corpus"
)

const scraperUserAgent = "pepubot/1.0 (+https://github.com/pepu-community/pepubot)"

// Scraper fetches site pages breadth-first, staying on the start hosts.
type Scraper struct {
	cfg    config.CrawlConfig
	client *http.Client
	logger *log.Logger
}

func NewScraper(cfg config.CrawlConfig, logger *log.Logger) *Scraper {
	if logger == nil {
		logger = log.Default()
	}

	return &Scraper{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

type crawlItem struct {
	url   string
	depth int
}

// Crawl visits the configured start URLs and the same-host links they
// reveal, up to the page and depth limits, and returns one document per
// successfully fetched page.
func (s *Scraper) Crawl(ctx context.Context) ([]corpus.Document, error) {
	allowedHosts := make(map[string]bool, len(s.cfg.StartURLs))
	queue := make([]crawlItem, 0, len(s.cfg.StartURLs))
	for _, start := range s.cfg.StartURLs {
		parsed, err := url.Parse(start)
		if err != nil || parsed.Host == "" {
			s.logger.Printf("skip invalid start url %q", start)
			continue
		}
		allowedHosts[parsed.Host] = true
		queue = append(queue, crawlItem{url: parsed.String(), depth: 0})
	}
	if len(queue) == 0 {
		return nil, fmt.Errorf("no valid start urls configured")
	}

	visited := make(map[string]bool)
	docs := make([]corpus.Document, 0)

	for len(queue) > 0 && len(docs) < s.cfg.MaxPages {
		if err := ctx.Err(); err != nil {
			return docs, err
		}

		item := queue[0]
		queue = queue[1:]

		normalized := normalizeURL(item.url)
		if visited[normalized] {
			continue
		}
		visited[normalized] = true

		doc, links, err := s.fetchPage(ctx, item.url)
		if err != nil {
			s.logger.Printf("fetch %s: %v", item.url, err)
			continue
		}
		if strings.TrimSpace(doc.RawText) != "" {
			docs = append(docs, doc)
			s.logger.Printf("fetched %s (%d chars)", doc.URL, len(doc.RawText))
		}

		if item.depth >= s.cfg.MaxDepth {
			continue
		}
		for _, link := range links {
			parsed, err := url.Parse(link)
			if err != nil || !allowedHosts[parsed.Host] {
				continue
			}
			if !visited[normalizeURL(parsed.String())] {
				queue = append(queue, crawlItem{url: parsed.String(), depth: item.depth + 1})
			}
		}

		if s.cfg.Delay > 0 {
			select {
			case <-ctx.Done():
				return docs, ctx.Err()
			case <-time.After(s.cfg.Delay):
			}
		}
	}

	return docs, nil
}

// fetchPage downloads one page and returns its cleaned text plus the
// absolute links it contains.
func (s *Scraper) fetchPage(ctx context.Context, pageURL string) (corpus.Document, []string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return corpus.Document{}, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", scraperUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return corpus.Document{}, nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return corpus.Document{}, nil, fmt.Errorf("page returned status %s", resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "text/html") {
		return corpus.Document{}, nil, fmt.Errorf("unsupported content type %s", ct)
	}

	parsed, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return corpus.Document{}, nil, fmt.Errorf("parse html: %w", err)
	}

	title := strings.TrimSpace(parsed.Find("title").First().Text())
	if title == "" {
		title = pageURL
	}

	parsed.Find("script, style, noscript, nav, header, footer, iframe").Remove()
	text := collapseWhitespace(parsed.Find("body").Text())

	base, err := url.Parse(pageURL)
	if err != nil {
		return corpus.Document{}, nil, fmt.Errorf("parse page url: %w", err)
	}

	links := make([]string, 0)
	parsed.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") {
			return
		}
		resolved, err := base.Parse(href)
		if err != nil {
			return
		}
		resolved.Fragment = ""
		links = append(links, resolved.String())
	})

	doc := corpus.Document{
		URL:       pageURL,
		Title:     title,
		RawText:   text,
		FetchedAt: time.Now().UTC(),
	}
	return doc, links, nil
}

// collapseWhitespace squashes runs of whitespace into single spaces while
// keeping paragraph breaks as newlines.
func collapseWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}

func normalizeURL(raw string) string {
	return strings.TrimSuffix(raw, "/")
}
