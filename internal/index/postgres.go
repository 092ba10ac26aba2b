package index

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSource loads documents from a wiki_documents table. It serves
// deployments where the crawler writes into Postgres instead of JSONL files.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource creates a connection pool and verifies connectivity.
func NewPostgresSource(ctx context.Context, databaseURL string) (*PostgresSource, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresSource{pool: pool}, nil
}

// Close closes the connection pool.
func (s *PostgresSource) Close() {
	s.pool.Close()
}

// Load streams all documents into an index. Rows with undecodable keyword
// JSON are kept with no keywords rather than dropped; title matching still
// works for them.
func (s *PostgresSource) Load(ctx context.Context) (*Index, error) {
	query := `
		SELECT url, title, content, keywords
		FROM wiki_documents
		ORDER BY url
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		var keywordsJSON []byte

		if err := rows.Scan(&doc.URL, &doc.Title, &doc.Text, &keywordsJSON); err != nil {
			slog.Warn("skipping unscannable document row", "error", err)
			continue
		}

		var entries []json.RawMessage
		if len(keywordsJSON) > 0 {
			if err := json.Unmarshal(keywordsJSON, &entries); err != nil {
				slog.Warn("skipping undecodable keyword column", "url", doc.URL, "error", err)
				entries = nil
			}
		}
		doc.Keywords = DecodeKeywords(entries)

		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read documents: %w", err)
	}

	slog.Info("loaded document index from postgres", "documents", len(docs))
	return New(docs), nil
}

// ExistingURLs returns the set of URLs already stored, so the preprocessor
// can skip pages it has tagged before.
func (s *PostgresSource) ExistingURLs(ctx context.Context) (map[string]bool, error) {
	rows, err := s.pool.Query(ctx, `SELECT url FROM wiki_documents`)
	if err != nil {
		return nil, fmt.Errorf("failed to query document URLs: %w", err)
	}
	defer rows.Close()

	urls := make(map[string]bool)
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan document URL: %w", err)
		}
		urls[url] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read document URLs: %w", err)
	}
	return urls, nil
}

// Save upserts one tagged document, keyed by URL.
func (s *PostgresSource) Save(ctx context.Context, doc Document) error {
	keywordsJSON, err := json.Marshal(encodeKeywords(doc.Keywords))
	if err != nil {
		return fmt.Errorf("failed to marshal keywords: %w", err)
	}

	query := `
		INSERT INTO wiki_documents (url, title, content, keywords, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (url) DO UPDATE
		SET title = EXCLUDED.title,
		    content = EXCLUDED.content,
		    keywords = EXCLUDED.keywords,
		    updated_at = now()
	`
	if _, err := s.pool.Exec(ctx, query, doc.URL, doc.Title, doc.Text, keywordsJSON); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

// encodeKeywords produces the [term, weight] pair layout DecodeKeywords
// accepts.
func encodeKeywords(keywords []KeywordWeight) [][]any {
	pairs := make([][]any, 0, len(keywords))
	for _, kw := range keywords {
		pairs = append(pairs, []any{kw.Term, kw.Weight})
	}
	return pairs
}
