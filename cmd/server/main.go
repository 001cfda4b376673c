package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/joho/godotenv"
	"github.com/mmuslimabdulj/chat2k/internal/config"
	httpHandler "github.com/mmuslimabdulj/chat2k/internal/delivery/http"
	"github.com/mmuslimabdulj/chat2k/internal/delivery/ws"
	"github.com/mmuslimabdulj/chat2k/internal/logging"
	"github.com/mmuslimabdulj/chat2k/internal/middleware"
	"github.com/mmuslimabdulj/chat2k/internal/store"
	"github.com/mmuslimabdulj/chat2k/internal/usecase"
)

const (
	shutdownTimeout        = 30 * time.Second
	sessionCleanupInterval = 10 * time.Minute
)

func main() {
	// Load .env file (ignore error if not exists, e.g. in production)
	_ = godotenv.Load()

	cfg := config.LoadFromEnv()
	logger := logging.Setup(cfg.LogLevel)

	// background work stops when shutdown begins
	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	gw, err := store.Open(bgCtx, store.Options{
		Driver:         cfg.StoreDriver,
		DBPath:         cfg.DBPath,
		RedisAddr:      cfg.RedisAddr,
		RedisPrefix:    cfg.RedisPrefix,
		MaxHistorySize: cfg.MaxHistorySize,
	})
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}

	// Initialize dependencies
	hub := ws.NewHub(logger)
	go hub.Run()

	registry := ws.NewRegistry(logger)
	engine := ws.NewEngine(gw, registry, hub, logger)
	controller := ws.NewController(gw, registry, engine, hub, ws.Options{
		PresenceInterval: cfg.PresenceInterval,
		HistoryLimit:     cfg.HistoryLimit,
	}, logger)

	sessions := usecase.NewSessionStore(cfg.SessionTTL)
	go sessions.RunCleanup(bgCtx, sessionCleanupInterval)
	accounts := usecase.NewAccounts(gw, sessions)

	limiters := middleware.NewLimiters(cfg.RateLimitAPI, cfg.RateLimitWS, cfg.RateLimitStrict)
	go limiters.RunCleanup(bgCtx)

	handler := httpHandler.NewHandler(cfg, controller, accounts, gw, logger)

	// Setup routes
	mux := http.NewServeMux()
	handler.Routes(mux, limiters.API.Wrap, limiters.Strict.Wrap, limiters.WebSocket.Wrap)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      middleware.SecurityHeaders(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("chat server running", "url", "http://localhost:"+cfg.Port, "store", cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				logger.Info("shutting down http server")
				stopBackground()
				return server.Shutdown(ctx)
			},
			"hub": func(ctx context.Context) error {
				hub.Stop()
				return nil
			},
			"store": func(ctx context.Context) error {
				return gw.Close()
			},
		},
	)

	exitCode := <-wait
	logger.Info("server exited", "code", exitCode)
	os.Exit(exitCode)
}
