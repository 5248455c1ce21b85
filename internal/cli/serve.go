package cli

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
	"github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/kontext-dev/kontext/internal/api/handlers"
	"github.com/kontext-dev/kontext/internal/config"
	"github.com/kontext-dev/kontext/internal/database"
	"github.com/kontext-dev/kontext/internal/embedding"
	"github.com/kontext-dev/kontext/internal/jobs"
	"github.com/kontext-dev/kontext/internal/repository"
	"github.com/kontext-dev/kontext/internal/server"
	"github.com/kontext-dev/kontext/internal/service"
	"github.com/kontext-dev/kontext/internal/telemetry"
	"github.com/kontext-dev/kontext/internal/vector"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the kontext API server",
		Long:  "Start the kontext API server on the specified port",
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
		environment := cfg.SentryEnv
		if environment == "" {
			environment = "development"
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      environment,
			TracesSampleRate: cfg.SentrySampleRate,
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

	unitRepo := repository.NewUnitRepository(pool)
	continuationRepo := repository.NewContinuationRepository(pool)

	var embedder embedding.Client
	if cfg.HasOpenAI() {
		embedder = embedding.NewOpenAIClientWithConfig(embedding.Config{
			APIKey:     cfg.OpenAIAPIKey,
			Model:      openai.EmbeddingModel(cfg.EmbeddingModel),
			Dimensions: cfg.EmbeddingDimensions,
		})
		log.Println("semantic search enabled (OpenAI embeddings)")
	} else {
		embedder = embedding.NewNullClient(cfg.EmbeddingDimensions)
		log.Println("no OPENAI_API_KEY set, search degrades to lexical matching")
	}

	index := vector.NewIndex(cfg.EmbeddingDimensions)

	knowledgeSvc := service.NewKnowledgeService(unitRepo, embedder, index)
	searchSvc := service.NewSearchService(unitRepo, embedder, index)
	continuationSvc := service.NewContinuationService(continuationRepo, knowledgeSvc)

	loaded, err := knowledgeSvc.RebuildIndex(ctx)
	if err != nil {
		return fmt.Errorf("failed to build vector index: %w", err)
	}
	log.Printf("vector index loaded with %d embeddings", loaded)

	var backfillWorker *jobs.Worker
	if cfg.HasOpenAI() && cfg.BackfillInterval > 0 {
		processor := jobs.NewBackfillProcessor(unitRepo, embedder, index)
		backfillWorker = jobs.NewWorker(processor, cfg.BackfillInterval)
		go backfillWorker.Start(ctx)
		log.Println("embedding backfill worker started")
	}

	routerCfg := server.RouterConfig{
		KnowledgeHandler:    handlers.NewKnowledgeHandler(knowledgeSvc, searchSvc),
		ContinuationHandler: handlers.NewContinuationHandler(continuationSvc),
		Index:               index,
		EmbedderAvailable:   embedder.Available(),
	}

	router := server.NewRouter(routerCfg)

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
	// golang-migrate needs database/sql, not pgx pool connections
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
	} else {
		log.Printf("migrations: database at version %d", version)
	}

	return nil
}
