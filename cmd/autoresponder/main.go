package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	adapterhttp "github.com/inboxpilot/autoresponder/internal/autoresponder/adapters/http"
	"github.com/inboxpilot/autoresponder/internal/autoresponder/app"
	"github.com/inboxpilot/autoresponder/internal/autoresponder/generator"
	"github.com/inboxpilot/autoresponder/internal/autoresponder/mailbox"
	"github.com/inboxpilot/autoresponder/internal/autoresponder/repository/postgres"
	"github.com/inboxpilot/autoresponder/internal/platform/config"
	"github.com/inboxpilot/autoresponder/internal/platform/database"
	"github.com/inboxpilot/autoresponder/internal/platform/logger"
	"github.com/inboxpilot/autoresponder/internal/platform/messagebroker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel)
	appLogger.Info("Autoresponder starting...", "log_level", cfg.LogLevel, "poll_interval", cfg.PollInterval.String())

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewDBPool(rootCtx, cfg.PostgresDSN)
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	appLogger.Info("Successfully connected to PostgreSQL database")

	draftRepo := postgres.NewPgDraftRepository(dbPool, appLogger)
	if err := draftRepo.EnsureSchema(rootCtx); err != nil {
		appLogger.Error("Failed to ensure database schema", "error", err)
		os.Exit(1)
	}

	var events app.EventPublisher = app.NoopPublisher{}
	if cfg.NATSUrl != "" {
		natsClient, err := messagebroker.NewNATSClient(cfg.NATSUrl, appLogger, "autoresponder")
		if err != nil {
			appLogger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer natsClient.Close()
		events = natsClient
		appLogger.Info("Successfully connected to NATS")
	} else {
		appLogger.Warn("NATS URL not configured, lifecycle events disabled")
	}

	gmailBox, err := mailbox.NewGmailMailbox(rootCtx, mailbox.GmailConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RefreshToken: cfg.GmailRefreshToken,
	}, appLogger)
	if err != nil {
		appLogger.Error("Failed to initialize Gmail mailbox", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Gmail mailbox initialized", "address", gmailBox.SelfAddress())

	replyGen := generator.NewResilient(
		generator.NewOpenAIGenerator(generator.OpenAIConfig{
			APIKey:       cfg.OpenAIAPIKey,
			Model:        cfg.GeneratorModel,
			SystemPrompt: cfg.GeneratorSystemPrompt,
		}),
		cfg.FallbackReply,
		appLogger,
	)

	poller := app.NewPoller(gmailBox, replyGen, draftRepo, events, appLogger, app.PollerConfig{
		BatchSize:         cfg.UnreadBatchSize,
		PerMessageTimeout: cfg.PerMessageTimeout,
	})
	reviewService := app.NewReviewService(gmailBox, draftRepo, events, appLogger)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	adapterhttp.NewReviewHandler(reviewService, appLogger).RegisterRoutes(router)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		appLogger.Info("Review API listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.PollInterval)
		defer ticker.Stop()

		// First cycle right away instead of waiting a full interval.
		if _, err := poller.PollOnce(gCtx); err != nil {
			appLogger.Error("Poll cycle failed", "error", err)
		}
		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-ticker.C:
				if _, err := poller.PollOnce(gCtx); err != nil {
					appLogger.Error("Poll cycle failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("Autoresponder exited with error", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Autoresponder shut down successfully.")
}
