package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Doxa-Code/omnichannel/internal/config"
	"github.com/Doxa-Code/omnichannel/internal/constants"
	"github.com/Doxa-Code/omnichannel/internal/database"
	"github.com/Doxa-Code/omnichannel/internal/models"
	"github.com/Doxa-Code/omnichannel/internal/queue"
	"github.com/Doxa-Code/omnichannel/internal/realtime"
	"github.com/Doxa-Code/omnichannel/internal/retry"
	"github.com/Doxa-Code/omnichannel/internal/service"
	"github.com/Doxa-Code/omnichannel/internal/tracing"
	"github.com/Doxa-Code/omnichannel/pkg/meta"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	// CLI flags
	verbose    = flag.Bool("verbose", false, "Enable verbose logging (includes sensitive information)")
	configPath = flag.String("config", "config.json", "Path to configuration file")
	version    = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("Omnichannel %s\nBuild Time: %s\nGit Commit: %s\n", Version, BuildTime, GitCommit)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logrus.Fatalf("Application error: %v", err)
	}
}

func run(ctx context.Context) error {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	logger.WithFields(logrus.Fields{
		"version": Version,
		"build":   BuildTime,
		"commit":  GitCommit,
	}).Info("Starting omnichannel")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	configureLogLevel(logger, cfg.LogLevel)

	tracingManager := tracing.NewTracingManager(cfg.Tracing, logger)
	if err := tracingManager.Initialize(ctx); err != nil {
		logger.Warnf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		if err := tracingManager.Shutdown(context.Background()); err != nil {
			logger.Warnf("Failed to shutdown tracing: %v", err)
		}
	}()

	// Open the database with exponential backoff: on container restarts the
	// volume may not be writable yet.
	var db *database.Database
	backoff := retry.NewBackoff(retry.BackoffConfig{
		InitialDelay: constants.DefaultRetryBackoffMs * time.Millisecond,
		MaxDelay:     constants.DefaultMaxBackoffMs * time.Millisecond,
		Multiplier:   2.0,
		MaxAttempts:  constants.DefaultDatabaseRetryAttempts,
		Jitter:       true,
	})
	err = backoff.Retry(ctx, func() error {
		var initErr error
		db, initErr = database.New(cfg.Database.Path)
		if initErr != nil {
			logger.Warnf("Failed to initialize database: %v", initErr)
		}
		return initErr
	})
	if err != nil {
		return fmt.Errorf("failed to initialize database after retries: %w", err)
	}
	defer db.Close()

	metaClient := meta.NewClient(cfg.Meta.APIBaseURL, cfg.Meta.AppID, cfg.Meta.AppSecret)

	drivers := service.NewDriverRegistry()
	drivers.Register(models.ChannelTypeWhatsApp, service.NewWhatsAppDriver(metaClient))

	broker := realtime.NewBroker(logger)
	events := service.NewBrokerPublisher(broker)
	outbox := queue.NewMemoryQueue()
	auth := service.NewAuthorizationService(db)

	messageService := service.NewMessageService(db, drivers, outbox, events, auth, logger)
	conversationService := service.NewConversationService(db, outbox, events, auth, logger)

	channelService := service.NewChannelService(db, auth, logger)
	channelService.RegisterStrategy(models.ChannelTypeWhatsApp, service.NewWhatsAppConnectionStrategy(metaClient))

	dispatcher := service.NewDispatcher(outbox, db, drivers, events, logger)
	go dispatcher.Run(ctx)

	sweeper := service.NewSweeper(db, logger,
		time.Duration(cfg.Sweeper.IntervalMinutes)*time.Minute,
		time.Duration(cfg.Sweeper.MaxIdleHours)*time.Hour,
	)
	go sweeper.Run(ctx)

	server := NewServer(cfg, logger, broker, messageService, conversationService, channelService)
	serverErrCh := make(chan error, constants.ServerErrorChannelSize)
	go func() {
		if err := server.Start(); err != nil {
			serverErrCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-serverErrCh:
		logger.Error(err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(constants.DefaultGracefulShutdownSec)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server gracefully: %w", err)
	}

	logger.Info("Server shutdown completed")
	return nil
}

func configureLogLevel(logger *logrus.Logger, configured string) {
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
		logger.Info("Verbose logging enabled - sensitive information will be logged")
		return
	}

	level, err := logrus.ParseLevel(configured)
	if err != nil {
		logger.Warnf("Invalid log level %q, defaulting to info", configured)
		logger.SetLevel(logrus.InfoLevel)
		return
	}
	logger.SetLevel(level)
}
