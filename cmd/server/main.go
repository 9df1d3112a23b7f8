package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stratadoc/internal/artifact"
	"stratadoc/internal/blob"
	"stratadoc/internal/config"
	"stratadoc/internal/diagram"
	"stratadoc/internal/extract"
	"stratadoc/internal/handler"
	"stratadoc/internal/ocr/gemini"
	"stratadoc/internal/ocr/openai"
	"stratadoc/internal/pdf"
	"stratadoc/internal/pipeline"
	"stratadoc/internal/port"
	"stratadoc/internal/propertydata"
	"stratadoc/internal/repository/postgres"
	"stratadoc/internal/router"
	"stratadoc/internal/service"
	s3storage "stratadoc/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	docRepo := postgres.NewDocumentRepo(db)
	contractRepo := postgres.NewContractRepo(db)
	pageRepo := postgres.NewPageRepo(db)
	diagramRepo := postgres.NewDiagramRepo(db)
	artifactRepo := postgres.NewArtifactRepo(db)

	// Initialize storage
	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}
	blobs := blob.NewService(s3Client, cfg.S3.Bucket)
	artifacts := artifact.NewStore(artifactRepo, blobs)

	// Initialize vision engines
	primaryEngine := gemini.NewEngine(&cfg.OCR.Primary)
	var secondaryEngine port.VisionEngine
	if secondary := cfg.OCR.SecondaryConfig(); secondary != nil {
		secondaryEngine = openai.NewEngine(secondary)
	}

	// Initialize the processing pipeline
	extractor := extract.NewExtractor(artifacts, primaryEngine, secondaryEngine, cfg.Pipeline)
	detector := diagram.NewDetector(artifacts, primaryEngine, cfg.Pipeline)
	pipe := pipeline.New(pipeline.Deps{
		Docs:      docRepo,
		Contracts: contractRepo,
		Pages:     pageRepo,
		Diagrams:  diagramRepo,
		Storage:   s3Client,
		Opener:    pdf.NewOpener(),
		Artifacts: artifacts,
		Extractor: extractor,
		Detector:  detector,
	}, cfg.Pipeline)

	// Initialize services
	docSvc := service.NewDocumentService(
		docRepo, pageRepo, diagramRepo, contractRepo, s3Client, pipe, &cfg.S3, &cfg.Artifact)
	propertySvc := propertydata.NewService(
		time.Duration(cfg.PropertyData.CacheTTLSecs)*time.Second,
		propertydata.NewDomainClient(&cfg.PropertyData.Domain),
		propertydata.NewCoreLogicClient(&cfg.PropertyData.CoreLogic),
	)

	// Initialize handlers
	docH := handler.NewDocumentHandler(docSvc)
	propertyH := handler.NewPropertyHandler(propertySvc)
	reportH := handler.NewReportHandler(docSvc)
	healthH := handler.NewHealthHandler(db)

	// Setup router
	r := router.Setup(docH, propertyH, reportH, healthH, cfg.CORS.AllowedOrigins)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start the queue worker alongside the HTTP server
	workerCtx, stopWorker := context.WithCancel(context.Background())
	worker := service.NewProcessQueueWorker(docRepo, docSvc, service.ProcessQueueConfig{
		PollInterval: time.Duration(cfg.Queue.PollIntervalSecs) * time.Second,
		MaxRetries:   cfg.Queue.MaxRetries,
		Concurrency:  cfg.Queue.Concurrency,
	})
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Start(workerCtx)
	}()

	go func() {
		log.Printf("Server starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	// Graceful shutdown: stop accepting requests, then drain the worker.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	stopWorker()
	<-workerDone
	log.Println("shutdown complete")
	return nil
}
