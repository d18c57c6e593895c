package main

import (
	"context"
	"fmt"
	"log"

	"github.com/F0xhopper/Cogno-MVP/config"
	"github.com/F0xhopper/Cogno-MVP/handlers"
	"github.com/F0xhopper/Cogno-MVP/llm"
	"github.com/F0xhopper/Cogno-MVP/repository"
	"github.com/F0xhopper/Cogno-MVP/service"
	"github.com/F0xhopper/Cogno-MVP/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"
)

func main() {
	// Load .env from the working directory or the project root
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			log.Printf("Warning: No .env file found, using environment variables")
		}
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	db, err := initPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to initialize Postgres: ", err)
	}
	defer db.Close()

	docStorage, err := storage.NewStorageFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	log.Println("Storage initialized")

	llmClient, embedder, err := initLLM(cfg)
	if err != nil {
		log.Fatal("Failed to initialize LLM client: ", err)
	}
	generator := llm.NewRetryClient(llmClient, cfg.MaxRetries, cfg.RequestTimeout)

	// Repositories
	docRepo := repository.NewDocumentRepository(db)
	chunkRepo := repository.NewChunkRepository(db)

	// Services
	ingestService := service.NewIngestService(
		service.IngestWithDocumentRepository(docRepo),
		service.IngestWithChunkRepository(chunkRepo),
		service.IngestWithStorage(docStorage),
		service.IngestWithEmbedder(embedder),
		service.IngestWithChunking(cfg.ChunkSize, cfg.ChunkOverlap),
	)

	ragOpts := []service.RAGServiceOption{
		service.WithQueryExpander(service.NewQueryExpander(
			generator, cfg.ExpansionEnabled, cfg.ExpansionCount, cfg.ExpansionTemperature)),
		service.WithRelevanceRanker(service.NewRelevanceRanker(cfg.RankingEnabled)),
		service.WithAnswerSynthesizer(service.NewAnswerSynthesizer(
			generator, cfg.SynthesisContextLimit, cfg.SynthesisTemperature, cfg.CitationsEnabled)),
	}
	if cfg.CritiqueEnabled {
		ragOpts = append(ragOpts, service.WithCritiqueEvaluator(
			service.NewCritiqueEvaluator(generator), cfg.CritiqueThreshold, cfg.MaxImprovementAttempts))
	}
	if cfg.CacheEnabled {
		ragOpts = append(ragOpts, service.WithAnswerCache())
	}
	ragService := service.NewRAGService(ragOpts...)

	// Handlers
	documentHandler := handlers.NewDocumentHandler(ingestService)
	queryHandler := handlers.NewQueryHandler(embedder, chunkRepo, ragService, cfg.TopK)

	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	api := r.Group("/api")
	{
		api.POST("/documents/upload", documentHandler.UploadDocument)
		api.GET("/documents", documentHandler.ListDocuments)
		api.GET("/documents/:id", documentHandler.GetDocument)
		api.GET("/documents/:id/chunks", documentHandler.ListChunks)
		api.DELETE("/documents/:id", documentHandler.DeleteDocument)

		api.POST("/query", queryHandler.Query)
	}

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}

func initPostgres(connString string) (*pgxpool.Pool, error) {
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	_, err = pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		log.Printf("Warning: Failed to create pgvector extension: %v", err)
		log.Println("This may be normal if extension is already installed or requires superuser privileges")
	} else {
		log.Println("pgvector extension enabled")
	}

	log.Println("Postgres connection established with pgvector support")
	return pool, nil
}

// initLLM builds the provider-specific generation client and embedder
func initLLM(cfg *config.Config) (llm.Client, llm.Embedder, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.GeminiAPIKey))
		if err != nil {
			return nil, nil, err
		}
		gemini := llm.NewGeminiClient(client, cfg.GeminiAPIKey, cfg.GeminiModel)
		log.Println("Gemini client initialized")
		return gemini, gemini, nil

	case config.ProviderOpenAI:
		openaiClient := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		log.Println("OpenAI client initialized")
		return openaiClient, openaiClient, nil

	default:
		return nil, nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}
