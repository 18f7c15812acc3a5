package main

import (
	"context"
	"fmt"
	"os"

	"github.com/cw-satou/astral-backend/internal/catalog"
	"github.com/cw-satou/astral-backend/internal/clients/line"
	"github.com/cw-satou/astral-backend/internal/clients/perplexity"
	"github.com/cw-satou/astral-backend/internal/clients/sheets"
	httpserver "github.com/cw-satou/astral-backend/internal/http"
	"github.com/cw-satou/astral-backend/internal/http/handlers"
	"github.com/cw-satou/astral-backend/internal/observability"
	"github.com/cw-satou/astral-backend/internal/pkg/envutil"
	"github.com/cw-satou/astral-backend/internal/pkg/logger"
	"github.com/cw-satou/astral-backend/internal/repos"
	"github.com/cw-satou/astral-backend/internal/services"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	// Tracing
	shutdownOTel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: envutil.Str("OTEL_SERVICE_NAME", "astral-backend"),
		Environment: envutil.Str("APP_ENV", "development"),
		Version:     envutil.Str("APP_VERSION", "dev"),
	})
	defer func() {
		if err := shutdownOTel(ctx); err != nil {
			log.Warn("otel shutdown failed", "error", err)
		}
	}()

	// Catalog
	log.Info("Loading stone and oracle catalogs...")
	cat, err := catalog.Load(log)
	if err != nil {
		log.Fatal("catalog load failed", "error", err)
	}

	// External clients
	chatClient, err := perplexity.NewFromEnv(log)
	if err != nil {
		log.Fatal("perplexity client init failed", "error", err)
	}

	rowStore, err := sheets.NewFromEnv(ctx, log)
	if err != nil {
		log.Warn("sheets client init failed, diagnoses will not be persisted", "error", err)
	}

	lineClient, err := line.NewFromEnv(log)
	if err != nil {
		log.Warn("line client init failed, webhook replies disabled", "error", err)
	}

	// Repos
	var diagnosisRepo repos.DiagnosisRepo
	if rowStore != nil {
		diagnosisRepo = repos.NewDiagnosisRepo(rowStore, log)
	}

	// Services
	log.Info("Setting up services from main...")
	mailService := services.NewMailService(log, services.MailConfigFromEnv())
	readingService := services.NewReadingService(log, chatClient, cat)
	diagnosisService := services.NewDiagnosisService(log, readingService, diagnosisRepo, mailService, cat)

	// Handlers
	diagnosisHandler := handlers.NewDiagnosisHandler(log, diagnosisService)
	webhookHandler := handlers.NewWebhookHandler(log, lineClient)

	// Server
	srv := httpserver.NewServer(httpserver.RouterConfig{
		Log:              log,
		DiagnosisHandler: diagnosisHandler,
		WebhookHandler:   webhookHandler,
	})

	addr := ":" + envutil.Str("PORT", "8080")
	log.Info("Starting HTTP server", "addr", addr)
	if err := srv.Run(addr); err != nil {
		log.Fatal("server exited", "error", err)
	}
}
