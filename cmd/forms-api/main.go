package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	"community-registration/volunteer-forms-backend/internal/auth"
	"community-registration/volunteer-forms-backend/internal/config"
	"community-registration/volunteer-forms-backend/internal/database"
	"community-registration/volunteer-forms-backend/internal/events"
	"community-registration/volunteer-forms-backend/internal/forms"
	"community-registration/volunteer-forms-backend/internal/middleware"
	"community-registration/volunteer-forms-backend/internal/notifications"
	"community-registration/volunteer-forms-backend/internal/retention"
	"community-registration/volunteer-forms-backend/internal/volunteers"
	"community-registration/volunteer-forms-backend/pkg/pdf"
	"community-registration/volunteer-forms-backend/pkg/storage"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (JSON or YAML)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	_, _ = maxprocs.Set(maxprocs.Logger(logger.Sugar().Infof))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := database.Open(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := forms.EnsureSchema(ctx, db.SQL); err != nil {
		return fmt.Errorf("failed to create form generation schema: %w", err)
	}
	if err := volunteers.AutoMigrate(db.Gorm); err != nil {
		return fmt.Errorf("failed to migrate volunteer registry: %w", err)
	}
	if err := notifications.AutoMigrate(db.Gorm); err != nil {
		return fmt.Errorf("failed to migrate delivery log: %w", err)
	}

	// Collaborators
	converter, err := pdf.New(pdf.Options{
		Backend:  cfg.Converter.Backend,
		Binary:   cfg.Converter.Binary,
		FontPath: cfg.Converter.FontPath,
	})
	if err != nil {
		return err
	}

	var store storage.S3Client
	if cfg.Storage.Enabled {
		store, err = storage.NewS3Client(ctx, storage.S3Config{
			Region:          cfg.Storage.Region,
			Endpoint:        cfg.Storage.Endpoint,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			UsePathStyle:    cfg.Storage.UsePathStyle,
		})
		if err != nil {
			return err
		}
	} else {
		logger.Warn("Object storage disabled, approved forms stay in the output directory")
	}

	sender, err := notifications.NewSender(ctx, cfg.Mail)
	if err != nil {
		return err
	}
	if sender == nil {
		logger.Warn("Mail provider not configured, approval emails are disabled")
	}

	// Services
	formsRepo := forms.NewRepository(db.SQL)
	formsService := forms.NewService(forms.Options{
		NamedTemplate:      cfg.Templates.Named,
		PositionalTemplate: cfg.Templates.Positional,
		OutputDir:          cfg.Output.Dir,
		ConvertTimeout:     cfg.Converter.Timeout,
		KeepTempDocx:       cfg.Output.KeepTempDocx,
	}, converter, formsRepo, logger)

	approver := notifications.NewApprover(sender, db.Gorm, cfg.Mail.FromName, logger)

	hub := events.NewHub(logger)
	defer hub.Close()

	volunteerService := volunteers.NewService(
		volunteers.NewRepository(db.Gorm),
		formsService,
		store,
		approver,
		hub,
		volunteers.Options{
			Bucket:     cfg.Storage.Bucket,
			KeyPrefix:  cfg.Storage.KeyPrefix,
			PresignTTL: cfg.Storage.PresignTTL,
		},
		logger,
	)

	// Retention
	cleaner := retention.NewManager(retention.Config{
		OutputDir: cfg.Output.Dir,
		MaxAge:    cfg.Output.Retention,
		Schedule:  cfg.Output.CleanupCron,
	}, formsRepo, logger)
	if err := cleaner.Start(ctx); err != nil {
		return err
	}
	defer cleaner.Stop()

	// Router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	limiter := middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst)
	go pruneClients(ctx, limiter)

	router := newRouter(handlers{
		forms:         forms.NewHandler(formsService, logger),
		volunteers:    volunteers.NewHandler(volunteerService, logger),
		notifications: notifications.NewHandler(approver, formsService, logger),
		auth:          auth.NewHandler(cfg.Auth, logger),
		events:        events.NewHandler(hub, cfg.Server.CORSOrigins, logger),
	}, routerOptions{
		corsOrigins: cfg.Server.CORSOrigins,
		limiter:     limiter,
	}, logger)

	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	logger.Info("Server started", zap.String("addr", srv.Addr))

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	// Graceful Shutdown
	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exiting")
	return nil
}

func pruneClients(ctx context.Context, limiter *middleware.RateLimiter) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Prune()
		}
	}
}
