// Command hopewell-keywords tags raw wiki records with extracted keywords.
// It reads a raw JSONL dump (url, title, text), runs each new record through
// the keyword-extraction collaborator, and writes the tagged records to a
// JSONL file or straight into Postgres. URLs already present in the sink are
// skipped entirely, so interrupted runs resume where they left off.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/hopewell-bot/hopewell/internal/index"
	"github.com/hopewell-bot/hopewell/internal/keywords"
)

const maxLineSize = 16 * 1024 * 1024

type rawRecord struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

type taggedRecord struct {
	URL      string  `json:"url"`
	Title    string  `json:"title"`
	Keywords [][]any `json:"keywords"`
	Text     string  `json:"text"`
}

// sink receives tagged documents. Both implementations expose the URLs they
// already hold so reruns skip tagged pages.
type sink interface {
	ExistingURLs(ctx context.Context) (map[string]bool, error)
	Write(ctx context.Context, doc index.Document) error
	Close() error
}

func main() {
	var (
		inPath     = flag.String("in", "data/raw/wiki_data.jsonl", "raw wiki JSONL input")
		outPath    = flag.String("out", "data/generated/wiki_keywords.jsonl", "keyword-tagged JSONL output (appended)")
		dsn        = flag.String("dsn", "", "Postgres connection string; when set, tagged records go to the wiki_documents table instead of -out")
		serviceURL = flag.String("service", "", "keyword extraction service URL; empty uses the builtin tokenizer")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := run(*inPath, *outPath, *dsn, *serviceURL); err != nil {
		slog.Error("preprocessing failed", "error", err)
		os.Exit(1)
	}
}

func run(inPath, outPath, dsn, serviceURL string) error {
	ctx := context.Background()

	var extractor keywords.Extractor
	if serviceURL != "" {
		extractor = keywords.NewServiceExtractor(keywords.ServiceConfig{BaseURL: serviceURL})
	} else {
		extractor = keywords.NewNaiveExtractor()
	}

	var (
		out sink
		err error
	)
	if dsn != "" {
		out, err = newPostgresSink(ctx, dsn)
	} else {
		out, err = newFileSink(outPath)
	}
	if err != nil {
		return err
	}
	defer out.Close()

	existing, err := out.ExistingURLs(ctx)
	if err != nil {
		return err
	}
	slog.Info("loaded existing sink URLs", "count", len(existing))

	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("opening raw input: %w", err)
	}
	defer in.Close()

	processed, skipped := 0, 0
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record rawRecord
		if err := json.Unmarshal(line, &record); err != nil {
			slog.Warn("skipping unparseable raw record", "line", lineNumber, "error", err)
			continue
		}
		if record.URL == "" {
			slog.Warn("skipping raw record without url", "line", lineNumber)
			continue
		}
		if existing[record.URL] {
			skipped++
			continue
		}

		extracted, err := extractor.Extract(ctx, record.Text)
		if err != nil {
			slog.Warn("keyword extraction failed, skipping record", "url", record.URL, "error", err)
			continue
		}

		doc := index.Document{
			URL:      record.URL,
			Title:    record.Title,
			Text:     record.Text,
			Keywords: extracted,
		}
		if err := out.Write(ctx, doc); err != nil {
			slog.Warn("skipping unwritable record", "url", record.URL, "error", err)
			continue
		}
		existing[record.URL] = true
		processed++
		slog.Info("tagged record", "url", record.URL, "keywords", len(extracted))
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading raw input: %w", err)
	}

	slog.Info("preprocessing complete", "processed", processed, "skipped", skipped)
	return nil
}

// fileSink appends tagged records to a JSONL file.
type fileSink struct {
	path   string
	file   *os.File
	writer *bufio.Writer
}

func newFileSink(path string) (*fileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening output: %w", err)
	}
	return &fileSink{path: path, file: f, writer: bufio.NewWriter(f)}, nil
}

// ExistingURLs collects URLs already present in the output file so they are
// not tagged twice.
func (s *fileSink) ExistingURLs(_ context.Context) (map[string]bool, error) {
	existing := make(map[string]bool)

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return existing, nil
		}
		return nil, fmt.Errorf("opening existing output: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		var record struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			slog.Warn("skipping unparseable line in existing output", "error", err)
			continue
		}
		if record.URL != "" {
			existing[record.URL] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading existing output: %w", err)
	}

	return existing, nil
}

func (s *fileSink) Write(_ context.Context, doc index.Document) error {
	tagged := taggedRecord{
		URL:      doc.URL,
		Title:    doc.Title,
		Keywords: encodeKeywords(doc.Keywords),
		Text:     doc.Text,
	}
	encoded, err := json.Marshal(tagged)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	if _, err := s.writer.Write(encoded); err != nil {
		return err
	}
	return s.writer.WriteByte('\n')
}

func (s *fileSink) Close() error {
	if err := s.writer.Flush(); err != nil {
		return err
	}
	return s.file.Close()
}

// postgresSink upserts tagged records into the same table the server loads
// when INDEX_SOURCE is postgres.
type postgresSink struct {
	source *index.PostgresSource
}

func newPostgresSink(ctx context.Context, dsn string) (*postgresSink, error) {
	source, err := index.NewPostgresSource(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &postgresSink{source: source}, nil
}

func (s *postgresSink) ExistingURLs(ctx context.Context) (map[string]bool, error) {
	return s.source.ExistingURLs(ctx)
}

func (s *postgresSink) Write(ctx context.Context, doc index.Document) error {
	return s.source.Save(ctx, doc)
}

func (s *postgresSink) Close() error {
	s.source.Close()
	return nil
}

// encodeKeywords writes pairs in the same [term, weight] array shape that
// index.DecodeKeywords reads back.
func encodeKeywords(kws []index.KeywordWeight) [][]any {
	if len(kws) == 0 {
		return [][]any{}
	}
	encoded := make([][]any, len(kws))
	for i, kw := range kws {
		encoded[i] = []any{kw.Term, kw.Weight}
	}
	return encoded
}
