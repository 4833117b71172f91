package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"exchange_go/internal/app"
	"exchange_go/internal/engine"
	"exchange_go/internal/handlers"
	"exchange_go/internal/service"

	"github.com/gorilla/mux"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	// 1. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	cfg := bootstrap.Config

	// 2. Pprof Server (for performance profiling)
	if cfg.Server.PprofAddr != "" {
		go func() {
			// Localhost only for security
			slog.Info("🕵️ Pprof server started", slog.String("addr", cfg.Server.PprofAddr))
			if err := http.ListenAndServe(cfg.Server.PprofAddr, nil); err != nil {
				slog.Error("Pprof server failed", slog.Any("error", err))
			}
		}()
	}

	// 3. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Wire core: trade feed -> matching engine -> HTTP surface
	hub := handlers.NewHub()
	go hub.Run()

	feed := handlers.NewTradeFeed(hub, bootstrap.Storage)
	eng := engine.NewEngine(bootstrap.Storage, feed.Publish)
	candles := service.NewCandleService(bootstrap.Storage)

	router := mux.NewRouter()
	handler := handlers.NewHandler(cfg, bootstrap.Storage, eng, candles, hub)
	handler.SetupRoutes(router)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		slog.Info("✅ Exchange API listening", slog.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("❌ HTTP server failed", slog.Any("error", err))
			stop()
		}
	}()

	slog.Info("✨ Exchange fully operational. Press Ctrl+C to exit.")

	// Wait for shutdown signal
	<-ctx.Done()

	slog.Info("👋 Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown failed", slog.Any("error", err))
	}
}
