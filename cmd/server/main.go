package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"weddingplan/internal/config"
	"weddingplan/internal/currency"
	"weddingplan/internal/email/noop"
	"weddingplan/internal/email/ses"
	"weddingplan/internal/extraction"
	"weddingplan/internal/handler"
	"weddingplan/internal/logger"
	"weddingplan/internal/parser"
	"weddingplan/internal/parser/claude"
	"weddingplan/internal/parser/gemini"
	"weddingplan/internal/parser/openai"
	"weddingplan/internal/port"
	"weddingplan/internal/repository/postgres"
	"weddingplan/internal/router"
	"weddingplan/internal/service"
	"weddingplan/internal/session"
	s3storage "weddingplan/internal/storage/s3"
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

	zl := logger.New(cfg.Log)
	defer func() { _ = zl.Sync() }()
	zap.ReplaceGlobals(zl)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	vendorRepo := postgres.NewVendorRepo(db)

	// Extraction providers, tried in configured order
	parser.RegisterProvider("claude", claude.Factory)
	parser.RegisterProvider("openai", openai.Factory)
	parser.RegisterProvider("gemini", gemini.Factory)

	providerCfgs := make([]config.ParserProviderConfig, 0, 3)
	for _, p := range cfg.Parser.Providers() {
		providerCfgs = append(providerCfgs, *p)
	}
	extractor, err := parser.NewChain(providerCfgs, parser.WithLogger(zl))
	if err != nil {
		return fmt.Errorf("failed to initialize extraction providers: %w", err)
	}

	// Currency conversion
	rates := currency.NewClient(cfg.Currency, zl)
	converter := currency.NewConverter(rates, zl)

	// Optional source archive
	var sources port.SourceArchive
	if cfg.Import.ArchiveSources && cfg.S3.Bucket != "" {
		sources, err = s3storage.NewSourceArchive(&cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 source archive: %w", err)
		}
	}

	// Import summary email
	var emailSender port.EmailSender
	if cfg.Email.Provider == "ses" {
		emailSender, err = ses.NewSESSender(cfg.Email.Region, cfg.Email.FromAddress, cfg.Email.FromName, cfg.Email.FrontendURL)
		if err != nil {
			return fmt.Errorf("failed to initialize SES sender: %w", err)
		}
		zl.Info("email provider: SES", zap.String("region", cfg.Email.Region))
	} else {
		emailSender = noop.NewNoopSender(zl)
		zl.Info("email provider: noop (summaries are logged)")
	}

	// Initialize services
	authSvc := service.NewAuthService(cfg.JWT)
	vendorSvc := service.NewVendorService(vendorRepo, converter, cfg.Import.DefaultCurrency, zl)
	engine := extraction.NewEngine(extractor, extraction.Config{
		MaxPDFBytes:     cfg.Import.MaxPDFBytes(),
		DefaultCurrency: cfg.Import.DefaultCurrency,
	}, zl)
	sessions := session.NewStore(cfg.Import.SessionTTL)
	importSvc := service.NewImportService(service.ImportDeps{
		Sessions: sessions,
		Engine:   engine,
		Vendors:  vendorSvc,
		Sources:  sources,
		Email:    emailSender,
		Archive:  cfg.Import.ArchiveSources,
		Logger:   zl,
	})

	// Initialize handlers
	handlers := router.Handlers{
		Vendor: handler.NewVendorHandler(vendorSvc, zl),
		Import: handler.NewImportHandler(importSvc, cfg.Import.MaxPDFBytes(), zl),
		Health: handler.NewHealthHandler(vendorRepo),
	}

	// Setup router
	r := router.Setup(authSvc, handlers, cfg.CORS.AllowedOrigins, zl)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start the import session sweeper
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go service.NewSessionSweeper(sessions, cfg.Import.SweepInterval, zl).Start(sweepCtx)

	errCh := make(chan error, 1)
	go func() {
		zl.Info("server starting", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-quit:
		zl.Info("shutting down", zap.String("signal", sig.String()))
	}
	stopSweeper()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
