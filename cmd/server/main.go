package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docscope/internal/api"
	"github.com/dgallion1/docscope/internal/app"
	"github.com/dgallion1/docscope/internal/config"
	"github.com/dgallion1/docscope/internal/pipeline"
)

func main() {
	cfgFile := flag.String("config", "", "config file (default ./docscope.yaml or $HOME/.docscope/docscope.yaml)")
	flag.Parse()

	level := new(slog.LevelVar)
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	mgr, err := config.NewManager(*cfgFile)
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	cfg := mgr.Get()
	if err := cfg.ValidateServer(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	level.Set(cfg.Level())

	// Only the log level is applied live; everything else needs a restart.
	mgr.OnChange(func(c config.Config) {
		level.Set(c.Level())
		log.Info("configuration reloaded", "file", mgr.File(), "log_level", c.Level().String())
	})
	mgr.Watch()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize", "error", err)
		os.Exit(1)
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, a.Worker, a.Store, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, a.Engine, a.Latency, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Query.Timeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if err := a.Close(shutdownCtx); err != nil {
			log.Warn("close failed", "error", err)
		}
	}()

	log.Info("starting docscope", "port", cfg.Port, "store", cfg.Store.Backend)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
