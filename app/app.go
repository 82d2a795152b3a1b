// Package app wires configuration, clients, retrievers and services into a
// runnable application shared by the server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"ragcompare-backend/config"
	"ragcompare-backend/handlers"
	"ragcompare-backend/ingest"
	"ragcompare-backend/llm"
	"ragcompare-backend/logging"
	"ragcompare-backend/repository"
	"ragcompare-backend/scoring"
	"ragcompare-backend/service"
	"ragcompare-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/philippgille/chromem-go"
	"github.com/ternarybob/arbor"
)

// AllowedOrigins are the browser origins accepted by the HTTP API
var AllowedOrigins = []string{"http://localhost:8080", "http://127.0.0.1:8080"}

// App holds the clients and services of one process
type App struct {
	Config *config.Config
	Logger arbor.ILogger

	Gemini *llm.GeminiClient
	Pool   *pgxpool.Pool

	LLM        *service.LLMService
	RAG        *service.RAGService
	Evaluation *service.EvaluationService
}

// New connects to Gemini and, for the pgvector retriever, to Postgres
func New(ctx context.Context, cfg *config.Config, logger arbor.ILogger) (*App, error) {
	a := &App{Config: cfg, Logger: logging.OrNoOp(logger)}

	if cfg.Gemini.APIKey == "" {
		a.Logger.Warn().Msg("GEMINI_API_KEY not set")
	}
	gemini, err := llm.NewGeminiClient(ctx, cfg.Gemini.APIKey,
		llm.WithGenerationModel(cfg.Gemini.GenerationModel),
		llm.WithEmbeddingModel(cfg.Gemini.EmbeddingModel),
		llm.WithTemperature(cfg.Gemini.Temperature),
		llm.WithLogger(a.Logger),
	)
	if err != nil {
		return nil, err
	}
	a.Gemini = gemini
	a.Logger.Info().Str("model", cfg.Gemini.GenerationModel).Msg("Gemini client initialized")

	if cfg.Retriever.Type == config.RetrieverPGVector {
		pool, err := OpenPool(ctx, cfg.Retriever.DatabaseURL, a.Logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Pool = pool
	}
	return a, nil
}

// OpenPool connects to Postgres and verifies the connection
func OpenPool(ctx context.Context, url string, logger arbor.ILogger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping Postgres: %w", err)
	}
	logging.OrNoOp(logger).Info().Msg("Postgres connection established")
	return pool, nil
}

// InitServices opens the configured retriever and builds the answering services
func (a *App) InitServices(ctx context.Context) error {
	retriever, err := a.openRetriever(ctx)
	if err != nil {
		return err
	}

	a.LLM = service.NewLLMService(
		service.LLMWithGenerator(a.Gemini),
		service.LLMWithLogger(a.Logger),
	)
	a.RAG = service.NewRAGService(
		service.RAGWithGenerator(a.Gemini),
		service.RAGWithRetriever(retriever),
		service.RAGWithCitationService(service.NewCitationService()),
		service.RAGWithLogger(a.Logger),
	)

	scorer := scoring.NewJudgeScorer(
		scoring.WithGenerator(a.Gemini),
		scoring.WithEmbedder(a.Gemini),
		scoring.WithRelevancyQuestions(a.Config.Eval.RelevancyQuestions),
		scoring.WithAnswerAsReference(a.Config.Eval.PrecisionAnswerAsReference),
		scoring.WithLogger(a.Logger),
	)
	a.Evaluation = service.NewEvaluationService(
		service.EvalWithRAG(a.RAG),
		service.EvalWithLLM(a.LLM),
		service.EvalWithScorer(scorer),
		service.EvalWithLogger(a.Logger),
	)
	return nil
}

// Router builds the HTTP engine. InitServices must have succeeded.
func (a *App) Router() *gin.Engine {
	h := handlers.NewQueryHandler(a.LLM, a.RAG, a.Evaluation, handlers.WithHandlerLogger(a.Logger))
	return handlers.NewRouter(h, a.Logger, AllowedOrigins...)
}

func (a *App) openRetriever(ctx context.Context) (service.Retriever, error) {
	cfg := a.Config.Retriever
	switch cfg.Type {
	case config.RetrieverPGVector:
		if a.Pool == nil {
			return nil, errors.New("pgvector retriever requires a database connection")
		}
		repo := repository.NewDocumentChunkRepository(a.Pool)
		return repository.NewVectorRetriever(repo, a.Gemini, cfg.TopK), nil

	case config.RetrieverLocal:
		if _, err := os.Stat(cfg.LocalIndexPath); err == nil {
			index, err := repository.LoadLocalIndex(cfg.LocalIndexPath, a.embeddingFunc(), cfg.TopK)
			if err != nil {
				return nil, err
			}
			a.Logger.Info().Str("path", cfg.LocalIndexPath).Int("chunks", index.Count()).Msg("Local index loaded")
			return index, nil
		}

		a.Logger.Info().Str("path", cfg.LocalIndexPath).Msg("Local index not found, building it")
		index, _, err := a.buildLocalIndex(ctx)
		if err != nil {
			return nil, err
		}
		return index, nil

	default:
		return nil, fmt.Errorf("unknown retriever type: %s", cfg.Type)
	}
}

// BuildIndex ingests the corpus into the configured retriever backend.
// With rebuild unset, pgvector skips files that already have chunks.
// With rebuild set, the stored chunks of each loaded file are replaced.
func (a *App) BuildIndex(ctx context.Context, rebuild bool) (*ingest.Stats, error) {
	switch a.Config.Retriever.Type {
	case config.RetrieverPGVector:
		if a.Pool == nil {
			return nil, errors.New("pgvector index requires a database connection")
		}
		repo := repository.NewDocumentChunkRepository(a.Pool)
		var opts []ingest.IndexerOption
		if rebuild {
			opts = append(opts, ingest.WithReplaceExisting(repo))
		} else {
			opts = append(opts, ingest.WithSkipExisting(repo))
		}
		indexer, err := a.newIndexer(ctx, repo, opts...)
		if err != nil {
			return nil, err
		}
		return indexer.Build(ctx)

	default:
		_, stats, err := a.buildLocalIndex(ctx)
		return stats, err
	}
}

func (a *App) buildLocalIndex(ctx context.Context) (*repository.LocalIndex, *ingest.Stats, error) {
	cfg := a.Config.Retriever
	index, err := repository.NewLocalIndex(a.embeddingFunc(), cfg.TopK)
	if err != nil {
		return nil, nil, err
	}

	indexer, err := a.newIndexer(ctx, index)
	if err != nil {
		return nil, nil, err
	}
	stats, err := indexer.Build(ctx)
	if err != nil {
		return nil, nil, err
	}

	if err := index.Save(cfg.LocalIndexPath); err != nil {
		return nil, nil, err
	}
	a.Logger.Info().Int("chunks", index.Count()).Str("path", cfg.LocalIndexPath).Msg("Local index created")
	return index, stats, nil
}

func (a *App) newIndexer(ctx context.Context, writer ingest.ChunkWriter, opts ...ingest.IndexerOption) (*ingest.Indexer, error) {
	store, err := storage.NewStorage(ctx, a.Config.Storage)
	if err != nil {
		return nil, err
	}
	splitter, err := ingest.NewSplitter(a.Config.Chunking.Size, a.Config.Chunking.Overlap)
	if err != nil {
		return nil, err
	}

	loader := ingest.NewLoader(store, ingest.WithLoaderLogger(a.Logger))
	opts = append(opts, ingest.WithIndexerLogger(a.Logger))
	return ingest.NewIndexer(loader, splitter, a.Gemini, writer, opts...), nil
}

func (a *App) embeddingFunc() chromem.EmbeddingFunc {
	return a.Gemini.Embed
}

// Close releases the database pool and the Gemini connection
func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
	if a.Gemini != nil {
		if err := a.Gemini.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close Gemini client")
		}
	}
}
