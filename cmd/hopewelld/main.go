package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hopewell-bot/hopewell/internal/augment"
	"github.com/hopewell-bot/hopewell/internal/config"
	"github.com/hopewell-bot/hopewell/internal/index"
	"github.com/hopewell-bot/hopewell/internal/keywords"
	"github.com/hopewell-bot/hopewell/internal/llm"
	"github.com/hopewell-bot/hopewell/internal/rerank"
	"github.com/hopewell-bot/hopewell/internal/retriever"
	"github.com/hopewell-bot/hopewell/internal/server"
	"github.com/hopewell-bot/hopewell/internal/service"
	"github.com/hopewell-bot/hopewell/internal/session"
)

func main() {
	// Set up structured logging
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("failed to run server", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("starting question-answering service",
		"http_port", cfg.HTTPPort,
		"environment", cfg.Environment,
		"index_source", cfg.IndexSource,
		"llm_backend", cfg.LLMBackend,
	)

	// Load the document index
	ix, err := loadIndex(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to load document index: %w", err)
	}
	slog.Info("document index ready", "documents", ix.Len())

	// Keyword extraction collaborator
	var extractor keywords.Extractor
	if cfg.KeywordServiceURL != "" {
		extractor = keywords.NewServiceExtractor(keywords.ServiceConfig{BaseURL: cfg.KeywordServiceURL})
		slog.Info("using keyword extraction service", "url", cfg.KeywordServiceURL)
	} else {
		extractor = keywords.NewNaiveExtractor()
		slog.Info("using builtin keyword tokenizer")
	}

	// LLM collaborator
	llmClient, err := newLLMClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM client: %w", err)
	}

	// Pipeline stages
	ret := retriever.New(extractor, ix)
	aug := augment.New(llmClient, ret, cfg.KnowledgeBaseTopic)
	rr := rerank.New(llmClient)
	sessions := session.NewStore(llmClient,
		session.WithMaxTurns(cfg.SessionMaxTurns),
		session.WithTTL(cfg.SessionTTL),
	)
	pipeline := service.NewPipeline(ret, aug, rr, sessions)

	// HTTP host surface
	httpServer := server.NewHTTPServer(server.HTTPServerConfig{
		Port:           cfg.HTTPPort,
		Logger:         slog.Default(),
		AllowedOrigins: []string{"*"}, // Configure in production
		APIKey:         cfg.APIKey,
	}, pipeline)

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		slog.Info("received shutdown signal", "signal", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown HTTP server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}

// loadIndex builds the keyword index from the configured source.
func loadIndex(ctx context.Context, cfg *config.Config) (*index.Index, error) {
	switch cfg.IndexSource {
	case "postgres":
		source, err := index.NewPostgresSource(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		defer source.Close()
		return source.Load(ctx)
	case "file":
		return index.LoadJSONL(cfg.IndexFile)
	default:
		return nil, fmt.Errorf("unknown index source %q", cfg.IndexSource)
	}
}

// newLLMClient selects the configured LLM backend.
func newLLMClient(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	switch cfg.LLMBackend {
	case "gemini":
		client, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, llm.WithGeminiModel(cfg.GeminiModel))
		if err != nil {
			return nil, err
		}
		slog.Info("initialized Gemini client", "model", cfg.GeminiModel)
		return client, nil
	case "ollama":
		client := llm.NewOllamaClient(llm.WithBaseURL(cfg.OllamaURL), llm.WithModel(cfg.OllamaModel))
		slog.Info("initialized Ollama client", "model", cfg.OllamaModel)
		return client, nil
	default:
		return nil, fmt.Errorf("unknown LLM backend %q", cfg.LLMBackend)
	}
}

// Ensure interfaces are satisfied at compile time
var (
	_ service.Searcher    = (*retriever.Retriever)(nil)
	_ service.Augmenter   = (*augment.Augmenter)(nil)
	_ service.Reranker    = (*rerank.Reranker)(nil)
	_ server.QueryService = (*service.Pipeline)(nil)
)
