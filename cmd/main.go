package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwrk-planet/logger/pkg/logger"
	"github.com/peekloop/session-service/config"
	"github.com/peekloop/session-service/internal/live"
	"github.com/peekloop/session-service/internal/postgres"
	"github.com/peekloop/session-service/internal/service"
	httpx "github.com/peekloop/session-service/internal/transport/http"
	"github.com/peekloop/session-service/internal/transport/ws"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting session-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- postgres ---
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.New(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer db.Close()

	// --- repos ---
	sessionRepo := postgres.NewSessionRepository(db.Pool)
	viewRepo := postgres.NewViewRepository(db.Pool)
	reactionRepo := postgres.NewReactionRepository(db.Pool)

	// --- services ---
	sessionSvc := service.NewSessionService(sessionRepo, viewRepo, reactionRepo)
	liveStore := service.NewLiveStore(sessionRepo, viewRepo, reactionRepo)

	// --- live core ---
	registry := live.NewRegistry()
	rooms := live.NewRoomStore(liveStore, cfg.StoreTimeout())
	dispatcher := live.NewDispatcher(registry)
	router := live.NewRouter(registry, rooms, dispatcher)
	reaper := live.NewReaper(rooms, registry, dispatcher, cfg.ReaperInterval())
	go reaper.Run(ctx)

	// --- transports ---
	wsServer := ws.NewServer(router, cfg.PingInterval())
	handler := httpx.NewHandler(sessionSvc)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      httpx.NewRouter(handler, wsServer, registry, cfg.CORS.AllowedOrigins),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	cancel() // останавливает рипер

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
