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

	"github.com/google/uuid"

	"github.com/example/intranet-portal/internal/application"
	"github.com/example/intranet-portal/internal/config"
	httptransport "github.com/example/intranet-portal/internal/http"
	"github.com/example/intranet-portal/internal/logging"
	"github.com/example/intranet-portal/internal/notification"
	"github.com/example/intranet-portal/internal/observability"
	"github.com/example/intranet-portal/internal/persistence/sqlite"
	"github.com/example/intranet-portal/internal/postalcode"
)

const serviceName = "intranet-portal"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, slog.LevelInfo).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("portal stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	shutdownTracing, err := observability.SetupTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.TracingEnabled,
		Endpoint:    cfg.TracingEndpoint,
		ServiceName: serviceName,
	})
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error("failed to flush traces", "error", err)
		}
	}()

	storage, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(ctx, logger); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	handler, err := newHandler(ctx, storage, cfg, logger)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("portal API listening", "addr", server.Addr, "booking_write_mode", cfg.BookingWriteMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// newHandler wires the services over storage and returns the HTTP entry point.
func newHandler(ctx context.Context, storage *sqlite.Storage, cfg config.Config, logger *slog.Logger) (http.Handler, error) {
	now := time.Now
	idGenerator := uuid.NewString
	metrics := observability.NewMetrics()

	renderer, err := notification.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("build notification catalog: %w", err)
	}

	directoryRepo := newDirectoryAdapter(storage)
	roomRepo := newRoomRepositoryAdapter(storage)

	settingsService := application.NewSettingsServiceWithLogger(newSettingsRepositoryAdapter(storage), now, logger)
	if _, err := settingsService.Reload(ctx); err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	settingsService.Subscribe(func(s application.Settings) {
		logger.Info("settings replaced", "updated_by", s.UpdatedBy, "departments", len(s.Departments))
	})

	notificationService := application.NewNotificationServiceWithLogger(
		newNotificationRepositoryAdapter(storage), renderer, idGenerator, now, metrics, logger)
	authService := application.NewAuthServiceWithLogger(
		directoryRepo,
		newSessionRepositoryAdapter(storage, cfg.SessionSecret),
		settingsService,
		application.VerifyPassword,
		application.NewVerificationToken,
		now,
		cfg.SessionTTL,
		logger,
	)
	directoryService := application.NewDirectoryServiceWithLogger(
		directoryRepo,
		postalcode.NewClient(cfg.PostalCodeURL, cfg.PostalCodeTimeout),
		application.HashPassword,
		idGenerator,
		now,
		logger,
	)
	roomService := application.NewRoomServiceWithLogger(roomRepo, idGenerator, now, logger)
	bookingService := application.NewBookingServiceWithOptions(
		roomRepo, newAppointmentRepositoryAdapter(storage), notificationService, now,
		application.BookingOptions{
			Mode:     application.BookingWriteMode(cfg.BookingWriteMode),
			Location: cfg.Location(),
			Metrics:  metrics,
			Logger:   logger,
		},
	)
	termService := application.NewTermServiceWithOptions(
		newTermRepositoryAdapter(storage), directoryRepo, authService, notificationService,
		idGenerator, application.NewVerificationToken, now,
		application.TermOptions{Location: cfg.Location(), Metrics: metrics, Logger: logger},
	)
	signatureService := application.NewSignatureServiceWithLogger(
		newSignatureRepositoryAdapter(storage), directoryRepo, notificationService, idGenerator, now, metrics, logger)

	return httptransport.NewRouter(httptransport.RouterConfig{
		Auth:          httptransport.NewAuthHandler(authService, logger),
		Directory:     httptransport.NewDirectoryHandler(directoryService, logger),
		Rooms:         httptransport.NewRoomHandler(roomService, logger),
		Appointments:  httptransport.NewAppointmentHandler(bookingService, logger),
		Terms:         httptransport.NewTermHandler(termService, logger),
		Signatures:    httptransport.NewSignatureHandler(signatureService, logger),
		Notifications: httptransport.NewNotificationHandler(notificationService, logger),
		Settings:      httptransport.NewSettingsHandler(settingsService, logger),
		Sessions:      authService,
		Metrics:       metrics.Handler(),
		Logger:        logger,
		Middleware: []func(http.Handler) http.Handler{
			observability.Tracing,
			httptransport.RequestLogger(logger),
			metrics.Middleware,
		},
	}), nil
}
