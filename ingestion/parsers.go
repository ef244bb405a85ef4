package ingestion

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	pdf "github.com/ledongthuc/pdf"

	"github.com/pepu-community/pepubot/corpus"
)

// ParseFile turns a local file's bytes into a document, or an error when
// the format is unsupported or unreadable.
func ParseFile(path string, data []byte) (corpus.Document, error) {
	var (
		content string
		err     error
	)

	switch DetectFormat(path) {
	case FormatMarkdown, FormatText:
		content = string(data)
	case FormatPDF:
		content, err = extractPDFText(data)
		if err != nil {
			return corpus.Document{}, err
		}
	default:
		return corpus.Document{}, fmt.Errorf("unsupported document format: %s", filepath.Ext(path))
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return corpus.Document{}, fmt.Errorf("document is empty")
	}

	return corpus.Document{
		URL:       "file://" + filepath.ToSlash(path),
		Title:     ExtractTitle(content, filepath.Base(path)),
		RawText:   content,
		FetchedAt: time.Now().UTC(),
	}, nil
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	buf := &bytes.Buffer{}
	if _, err := io.Copy(buf, plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}

// ExtractTitle returns the first markdown heading, or the first non-empty
// line, or the fallback.
func ExtractTitle(content, fallback string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			return strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
		}
		if len(trimmed) <= 120 {
			return trimmed
		}
		break
	}
	return fallback
}
