package index

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// maxLineSize bounds a single JSONL record. Full wiki article text rides
// along in each record, so the default bufio limit is far too small.
const maxLineSize = 16 * 1024 * 1024

// jsonlRecord mirrors one line of the preprocessed keyword file. Keywords
// stay raw until DecodeKeywords normalizes them.
type jsonlRecord struct {
	URL      string            `json:"url"`
	Title    string            `json:"title"`
	Text     string            `json:"text"`
	Keywords []json.RawMessage `json:"keywords"`
}

// LoadJSONL builds an index from a line-delimited JSON file. A missing file
// yields an empty index with a warning rather than an error: retrieval then
// simply finds nothing. Unparseable lines and records without a URL are
// skipped individually.
func LoadJSONL(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("index file not found, starting with empty index", "path", path)
			return New(nil), nil
		}
		return nil, fmt.Errorf("opening index file: %w", err)
	}
	defer f.Close()

	var docs []Document
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record jsonlRecord
		if err := json.Unmarshal(line, &record); err != nil {
			slog.Warn("skipping unparseable index record", "path", path, "line", lineNumber, "error", err)
			continue
		}
		if record.URL == "" {
			slog.Warn("skipping index record without url", "path", path, "line", lineNumber)
			continue
		}

		docs = append(docs, Document{
			URL:      record.URL,
			Title:    record.Title,
			Text:     record.Text,
			Keywords: DecodeKeywords(record.Keywords),
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading index file: %w", err)
	}

	slog.Info("loaded document index", "path", path, "documents", len(docs))
	return New(docs), nil
}
