package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/F0xhopper/Cogno-MVP/config"
	"github.com/F0xhopper/Cogno-MVP/llm"
	"github.com/F0xhopper/Cogno-MVP/repository"
	"github.com/F0xhopper/Cogno-MVP/service"
	"github.com/F0xhopper/Cogno-MVP/storage"

	"github.com/google/generative-ai-go/genai"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"
)

// Bulk-ingests every .pdf, .txt and .md file in a directory.
func main() {
	dir := flag.String("dir", "./docs", "directory of documents to ingest")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: No .env file found, using environment variables")
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	docStorage, err := storage.NewStorageFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	embedder, err := initEmbedder(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize embedder: %v", err)
	}

	ingestService := service.NewIngestService(
		service.IngestWithDocumentRepository(repository.NewDocumentRepository(pool)),
		service.IngestWithChunkRepository(repository.NewChunkRepository(pool)),
		service.IngestWithStorage(docStorage),
		service.IngestWithEmbedder(embedder),
		service.IngestWithChunking(cfg.ChunkSize, cfg.ChunkOverlap),
	)

	entries, err := os.ReadDir(*dir)
	if err != nil {
		log.Fatalf("Failed to read directory %s: %v", *dir, err)
	}

	ingested := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		filename := entry.Name()
		switch strings.ToLower(filepath.Ext(filename)) {
		case ".pdf", ".txt", ".md":
		default:
			log.Printf("Skipping %s: unsupported file type", filename)
			continue
		}

		path := filepath.Join(*dir, filename)
		file, err := os.Open(path)
		if err != nil {
			log.Printf("Warning: Failed to open %s: %v", path, err)
			continue
		}

		info, err := file.Stat()
		if err != nil {
			file.Close()
			log.Printf("Warning: Failed to stat %s: %v", path, err)
			continue
		}

		doc, err := ingestService.UploadDocument(ctx, filename, mimeTypeFor(filename), info.Size(), file)
		file.Close()
		if err != nil {
			log.Printf("Warning: Failed to upload %s: %v", filename, err)
			continue
		}

		if err := ingestService.ProcessDocument(ctx, doc.ID); err != nil {
			log.Printf("Warning: Failed to ingest %s: %v", filename, err)
			continue
		}

		processed, err := ingestService.GetDocument(ctx, doc.ID)
		if err != nil {
			log.Printf("Warning: Failed to reload %s: %v", filename, err)
			continue
		}

		log.Printf("✓ Ingested %s (%d chunks)", filename, processed.ChunkCount)
		ingested++
	}

	log.Printf("Done: %d of %d files ingested", ingested, len(entries))
}

func mimeTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".md":
		return "text/markdown"
	default:
		return "text/plain"
	}
}

func initEmbedder(cfg *config.Config) (llm.Embedder, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel), nil
	default:
		client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.GeminiAPIKey))
		if err != nil {
			return nil, err
		}
		return llm.NewGeminiClient(client, cfg.GeminiAPIKey, cfg.GeminiModel), nil
	}
}
