package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gmellini/recall/internal/analysis"
	"github.com/gmellini/recall/internal/config"
	"github.com/gmellini/recall/internal/httpapi"
	"github.com/gmellini/recall/internal/llm"
	"github.com/gmellini/recall/internal/memory"
	"github.com/gmellini/recall/internal/observability"
	"github.com/gmellini/recall/internal/ratelimit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	store, err := memory.NewVectorStore(ctx, cfg.DatabaseURL, cfg.EmbeddingDim)
	if err != nil {
		log.Fatalf("vector store init failed: %v", err)
	}
	defer store.Close()
	if cfg.DatabaseURL != "" {
		log.Printf("vector store: postgres (pgvector, dim=%d)", cfg.EmbeddingDim)
	} else {
		log.Printf("vector store: in-process chromem (ephemeral)")
	}

	var (
		completer llm.Completer
		embedder  llm.Embedder
	)
	if cfg.OpenAIAPIKey != "" {
		client, err := llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:         cfg.OpenAIAPIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			ChatModel:      cfg.ChatModel,
			EmbeddingModel: cfg.EmbeddingModel,
		})
		if err != nil {
			log.Fatalf("openai client init failed: %v", err)
		}
		completer = client
		embedder = client
		log.Printf("llm provider: openai")
	} else {
		// Without credentials the service still saves and searches, using
		// deterministic summaries and a local hash embedder.
		embedder = llm.NewHashEmbedder(cfg.EmbeddingDim)
		log.Printf("llm provider: none (fallback summaries, hash embeddings)")
	}

	memories := memory.NewService(store, completer, embedder, metrics)
	analyzer := analysis.NewCoherenceAnalyzer(nil)
	suggester := analysis.NewSuggestionGenerator()
	promptAnalyzer := analysis.NewPromptAnalyzer(completer)
	limiter := ratelimit.New(cfg.DailyRequestLimit, cfg.RateTableMaxEntries)

	api := httpapi.New(cfg, memories, analyzer, suggester, promptAnalyzer, limiter, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	limiter.StartJanitor(runCtx, time.Hour)

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
