package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	sdkopenai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/crestline-ai/reglens/internal/api/handlers"
	"github.com/crestline-ai/reglens/internal/config"
	"github.com/crestline-ai/reglens/internal/database"
	"github.com/crestline-ai/reglens/internal/extractor"
	"github.com/crestline-ai/reglens/internal/jobs"
	"github.com/crestline-ai/reglens/internal/metrics"
	"github.com/crestline-ai/reglens/internal/openai"
	"github.com/crestline-ai/reglens/internal/repository"
	"github.com/crestline-ai/reglens/internal/server"
	"github.com/crestline-ai/reglens/internal/service"
	"github.com/crestline-ai/reglens/internal/storage"
	"github.com/crestline-ai/reglens/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the reglens API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.HasSentry() {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      environment,
			TracesSampleRate: sampleRate,
			Debug:            cfg.Debug,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	chunkRepo := repository.NewChunkRepository(pool)

	var embeddingClient service.EmbeddingClient
	var generationClient service.GenerationClient
	if cfg.HasOpenAI() {
		client, err := openai.NewClient(openai.Config{
			APIKey:              cfg.OpenAIAPIKey,
			EmbeddingModel:      sdkopenai.EmbeddingModel(cfg.EmbeddingModel),
			EmbeddingDimensions: cfg.EmbeddingDim,
			GenerationModel:     cfg.GenerationModel,
		})
		if err != nil {
			return fmt.Errorf("failed to create OpenAI client: %w", err)
		}
		embeddingClient = client
		generationClient = client
		log.Printf("OpenAI client configured (embedding: %s, generation: %s)", cfg.EmbeddingModel, cfg.GenerationModel)
	} else {
		log.Println("no OpenAI key configured, using hash-fallback embeddings and extractive answers")
	}

	embeddingSvc := service.NewEmbeddingService(embeddingClient, cfg.EmbeddingDim)
	chunker := service.NewHierarchicalChunker(service.DefaultChunkerConfig())

	ingestionSvc := service.NewIngestionService(chunkRepo, embeddingSvc, chunker, extractor.New())
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		ingestionSvc = ingestionSvc.WithArchiver(s3Client)
	}

	retriever := service.NewHybridRetriever(chunkRepo, embeddingSvc, service.RetrieverConfig{
		BM25K1:            cfg.BM25K1,
		BM25B:             cfg.BM25B,
		RRFK:              cfg.RRFK,
		SparseCorpusLimit: cfg.SparseCorpusLimit,
	})
	answerSvc := service.NewAnswerService(retriever, generationClient)
	evaluationSvc := service.NewEvaluationService(cfg.EvalTopK)

	var backfillWorker *jobs.Worker
	if embeddingClient != nil {
		backfill := jobs.NewEmbeddingBackfill(chunkRepo, embeddingClient, cfg.BackfillBatchSize)
		backfillWorker = jobs.NewWorker(backfill, cfg.BackfillInterval)
		go backfillWorker.Start(ctx)
		log.Println("embedding backfill worker started")
	}

	m := metrics.New()

	router := server.NewRouter(server.RouterConfig{
		IngestHandler:   handlers.NewIngestHandler(ingestionSvc, m),
		QueryHandler:    handlers.NewQueryHandler(answerSvc, m),
		EvaluateHandler: handlers.NewEvaluateHandler(evaluationSvc),
		Metrics:         m,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if backfillWorker != nil {
		backfillWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
