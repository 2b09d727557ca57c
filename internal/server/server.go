// Package server sets up and manages the main HTTP API server.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/gyeo009/lookback-Backend/internal/auth"
	"github.com/gyeo009/lookback-Backend/internal/calendar"
	"github.com/gyeo009/lookback-Backend/internal/config"
	"github.com/gyeo009/lookback-Backend/internal/database"
	"github.com/gyeo009/lookback-Backend/internal/db"
	"github.com/gyeo009/lookback-Backend/internal/events"
	"github.com/gyeo009/lookback-Backend/internal/google"
	"github.com/gyeo009/lookback-Backend/internal/router"
	"github.com/gyeo009/lookback-Backend/internal/vault"
)

// Server represents the API server with all its dependencies.
type Server struct {
	config         *config.Config
	reloader       *config.Reloader
	httpServer     *http.Server
	router         *router.Router
	dbPool         *sql.DB
	queueProcessor *events.QueueProcessor
	pubsub         *events.PubSubSender
	dispatcher     *calendar.Dispatcher
	store          calendar.Store
	processorStop  context.CancelFunc
}

// New creates a new Server instance with all dependencies initialized.
func New(reloader *config.Reloader) (*Server, error) {
	cfg := reloader.GetConfig()

	dbPool, err := database.NewPool(cfg.DatabaseURL, database.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	slog.Info("Database connection pool established")

	if cfg.RunMigrations {
		if err := database.Migrate(dbPool); err != nil {
			_ = dbPool.Close()
			return nil, err
		}
	}

	srv, err := build(reloader, dbPool)
	if err != nil {
		_ = dbPool.Close()
		return nil, err
	}
	return srv, nil
}

// build wires every component on top of an open database pool.
func build(reloader *config.Reloader, dbPool *sql.DB) (*Server, error) {
	cfg := reloader.GetConfig()
	queries := db.New(dbPool)

	ceClient, pubsub := setupEvents(cfg)
	emitter := events.NewEmitter(queries, events.EventSourceLookbackAPI)

	hostname, _ := os.Hostname()
	instanceID := fmt.Sprintf("%s-%d", hostname, os.Getpid())
	queueProcessor := events.NewQueueProcessor(queries, ceClient, instanceID, events.DefaultQueueProcessorConfig())

	httpClient := google.NewHTTPClient(cfg.GoogleHTTPTimeout)
	oauthClient := google.NewOAuthClient(google.OAuthConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	}, httpClient)

	store, vaultClient, err := setupCalendarStore(cfg)
	if err != nil {
		return nil, err
	}
	persister := calendar.NewPersister(calendar.NewGoogleLister(httpClient, ""), store, emitter)

	var (
		calendarSync auth.CalendarPersister = persister
		dispatcher   *calendar.Dispatcher
	)
	if cfg.CalendarSyncMode == config.CalendarSyncAsync {
		dispatcher = calendar.NewDispatcher(persister.Persist, cfg.CalendarWorkers, cfg.CalendarQueueSize, cfg.CalendarJobTimeout)
		calendarSync = dispatcher
	}

	service := auth.NewService(auth.ServiceConfig{
		Tokens:        oauthClient,
		Profiles:      google.NewProfileClient(httpClient, ""),
		Calendar:      calendarSync,
		CalendarAsync: dispatcher != nil,
		Users:         auth.NewAccounts(queries),
		Events:        emitter,
	})

	reloader.OnChange(func(old, new *config.Config) {
		if old.GoogleClientSecret != new.GoogleClientSecret {
			oauthClient.SetClientSecret(new.GoogleClientSecret)
			slog.Info("Google client secret rotated")
		}
		if vaultClient != nil && old.VaultToken != new.VaultToken {
			vaultClient.SetToken(new.VaultToken)
			slog.Info("Vault token rotated")
		}
	})

	handler := router.New(&router.Dependencies{
		AuthHandler:    auth.NewHandler(service),
		AllowedOrigins: cfg.AllowedOrigins,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	logServerConfig(cfg, pubsub != nil)

	return &Server{
		config:         cfg,
		reloader:       reloader,
		httpServer:     httpServer,
		router:         handler,
		dbPool:         dbPool,
		queueProcessor: queueProcessor,
		pubsub:         pubsub,
		dispatcher:     dispatcher,
		store:          store,
	}, nil
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	if err := s.reloader.Start(context.Background()); err != nil {
		slog.Warn("Config hot reload disabled", "err", err)
	}

	if s.dispatcher != nil {
		s.dispatcher.Start()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.processorStop = cancel
	go s.queueProcessor.Start(ctx)

	slog.Info("Starting lookback API", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server. In-flight logins finish first, then
// queued calendar jobs are drained.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Starting graceful shutdown")

	if err := s.reloader.Stop(); err != nil {
		slog.Error("Error stopping config reloader", "error", err)
	}

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		_ = s.httpServer.Close()
		errs = append(errs, fmt.Errorf("could not stop server gracefully: %w", err))
	}
	s.router.Close()

	if s.dispatcher != nil {
		if err := s.dispatcher.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("calendar jobs not drained: %w", err))
		}
	}

	if s.processorStop != nil {
		slog.Info("Stopping queue processor")
		s.queueProcessor.Stop()
		s.processorStop()
	}

	if s.pubsub != nil {
		if err := s.pubsub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing pubsub: %w", err))
		}
	}

	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing calendar store: %w", err))
	}

	if err := s.dbPool.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing database: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	slog.Info("Server stopped gracefully")
	return nil
}

// setupCalendarStore opens the configured calendar store. The Vault client is
// returned so token rotations can reach it.
func setupCalendarStore(cfg *config.Config) (calendar.Store, *vault.Client, error) {
	if cfg.CalendarStore == config.CalendarStoreVault {
		vaultClient, err := vault.NewClient(&vault.Config{
			Address: cfg.VaultAddr,
			Token:   cfg.VaultToken,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize vault client: %w", err)
		}
		return calendar.NewVaultStore(vault.NewKVv1(vaultClient, cfg.CalendarVaultMount)), vaultClient, nil
	}

	store, err := calendar.OpenBadger(cfg.CalendarBadgerDir)
	if err != nil {
		return nil, nil, err
	}
	return store, nil, nil
}

// setupEvents picks the CloudEvents client the queue processor publishes with.
func setupEvents(cfg *config.Config) (cloudevents.Client, *events.PubSubSender) {
	if cfg.GCPProjectID == "" || cfg.EventsTopicID == "" {
		slog.Info("Event publishing disabled (no GCP_PROJECT_ID or EVENTS_TOPIC_ID)")
		return events.NewNoOpClient(), nil
	}

	sender, err := events.NewPubSubSender(context.Background(), cfg.GCPProjectID, cfg.EventsTopicID)
	if err != nil {
		slog.Warn("Failed to create Pub/Sub sender, events disabled", "error", err)
		return events.NewNoOpClient(), nil
	}

	slog.Info("Event publishing configured with Pub/Sub",
		"project", cfg.GCPProjectID,
		"topic", cfg.EventsTopicID)
	return events.NewPubSubCloudEventsClient(sender), sender
}

// logServerConfig logs the server configuration at startup.
func logServerConfig(cfg *config.Config, pubsub bool) {
	slog.Info("Server configured",
		"port", cfg.Port,
		"calendar_sync_mode", cfg.CalendarSyncMode,
		"calendar_store", cfg.CalendarStore,
		"calendar_workers", cfg.CalendarWorkers,
		"pubsub", pubsub,
		"allowed_origins", cfg.AllowedOrigins)
}
