package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"toolEaseRt/internal/config"
	handler "toolEaseRt/internal/modules/realtime/application/handler"
	usecase "toolEaseRt/internal/modules/realtime/application/usecase"
	"toolEaseRt/internal/modules/realtime/infrastructure"
	transport "toolEaseRt/internal/modules/realtime/interface"
	"toolEaseRt/internal/platform/broker"
	"toolEaseRt/internal/shared/auth"
	"toolEaseRt/internal/shared/logging"
)

func main() {
	// Attempt to load variables from .env so local runs honour configuration tweaks.
	if err := godotenv.Overload(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, ".env load warning: %v\n", err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	_, logFile, err := logging.Setup(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: true,
		Directory: cfg.Logging.Directory,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging setup error: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	slog.Info("logging initialized", slog.String("directory", cfg.Logging.Directory), slog.String("level", cfg.Logging.Level), slog.String("format", cfg.Logging.Format))

	table, err := cfg.TopicTable()
	if err != nil {
		slog.Error("topic table invalid", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("topic table loaded", slog.Any("keys", table.Keys()), slog.Any("roles", cfg.Roles))

	stores := infrastructure.NewStoreRegistry(table, cfg.Pipeline.HistoryCapacity)
	broadcaster := infrastructure.NewBroadcaster(cfg.Roles, infrastructure.BroadcasterConfig{
		QueueCapacity: cfg.Pipeline.RoleQueueCapacity,
		IdleInterval:  cfg.Pipeline.IdleInterval,
	})

	// Use cases
	broadcastUC := usecase.NewBroadcastUseCase(stores, broadcaster)
	ingestUC := usecase.NewIngestUseCase(table, broadcastUC)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Iniciar el feed (kafka, nats o ninguno)
	var feedDone <-chan struct{}
	source, err := broker.NewFeedSource(cfg.Feed, table.FeedSubjects())
	if err != nil {
		slog.Error("feed setup failed", slog.String("driver", cfg.Feed.Driver), slog.Any("error", err))
		os.Exit(1)
	}
	if source != nil {
		defer source.Close()
		feedDone = broker.StartFeed(ctx, source, handler.NewFeedMessageHandler(ingestUC))
		slog.Info("feed consumer started", slog.String("driver", cfg.Feed.Driver), slog.Any("subjects", table.FeedSubjects()))
	} else {
		cfg.Feed.Driver = config.FeedDriverNone
		slog.Info("feed disabled, publish endpoint only")
	}

	var validator auth.TokenValidator
	if cfg.Security.PublishJWTSecret != "" {
		validator = auth.NewJWTValidator(cfg.Security.PublishJWTSecret)
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.Logger.SetOutput(log.Writer())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	// Streams end when ctx is cancelled so Shutdown does not wait on them.
	e.Server.BaseContext = func(net.Listener) context.Context { return ctx }

	hub := infrastructure.NewHub()
	transport.RegisterRoutes(e, transport.Dependencies{
		Stores:      stores,
		Broadcaster: broadcaster,
		Hub:         hub,
		Ingest:      ingestUC,
		Broadcast:   broadcastUC,
		Validator:   validator,
		FeedDriver:  cfg.Feed.Driver,
		Keepalive:   cfg.Pipeline.Keepalive,
	})

	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped", slog.Any("error", err))
		}
	}()

	// Esperar señales
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	slog.Info("shutting down", slog.Int("websockets", hub.Len()))
	cancel()
	hub.CloseAll()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown incomplete", slog.Any("error", err))
		_ = e.Close()
	}
	if source != nil {
		select {
		case <-feedDone:
		case <-shutdownCtx.Done():
			slog.Warn("feed consumer did not stop in time")
		}
	}
}
