package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fitbod/fitcoach/internal/auth"
	"github.com/fitbod/fitcoach/internal/coach"
	"github.com/fitbod/fitcoach/internal/config"
	"github.com/fitbod/fitcoach/internal/gemini"
	fitmcp "github.com/fitbod/fitcoach/internal/mcp"
	"github.com/fitbod/fitcoach/internal/paywall"
	"github.com/fitbod/fitcoach/internal/server"
	"github.com/fitbod/fitcoach/internal/storage"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("FitCoach starting", "version", Version)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if missing := cfg.MissingSecrets(); len(missing) > 0 {
		log.Warn("upstream secrets not set, dependent requests will fail", "missing", missing)
	}

	// Run migrations
	dsn := cfg.Database.DSN()
	version, err := storage.RunMigrations(dsn)
	if err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied", "version", version)

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	// Connect database
	ctx := context.Background()
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	// Paywall bridge
	sdk, err := paywall.OpenLocalSDK(cfg.Paywall.StateDir)
	if err != nil {
		log.Error("failed to open paywall state", "error", err)
		os.Exit(1)
	}
	defer sdk.Close()
	bridge := paywall.NewBridge(sdk, cfg.Paywall.Channel, nil, log)
	if err := bridge.Configure(cfg.Paywall.APIKey); err != nil {
		log.Error("paywall configure failed", "error", err)
		os.Exit(1)
	}
	log.Info("paywall bridge ready", "channel", bridge.Channel())

	// Upstream clients
	authClient := auth.NewClient(cfg.Supabase.URL, cfg.Supabase.ServiceRoleKey)
	model := gemini.New(ctx, gemini.Config{
		APIKey:  cfg.Gemini.APIKey,
		Model:   cfg.Gemini.Model,
		BaseURL: cfg.Gemini.BaseURL,
		Timeout: cfg.Gemini.Timeout,
	})
	log.Info("model client ready", "model", model.Model())

	// Chat pipeline
	svc := coach.NewService(coach.Deps{
		Auth:            authClient,
		Store:           db,
		Model:           model,
		PersistMessages: cfg.Chat.PersistMessages,
	}, log)

	// Create server
	srv := server.New(server.Deps{
		Chat:    svc,
		Store:   db,
		Auth:    authClient,
		Paywall: bridge,
		MCP:     fitmcp.New(db, Version, log),
	}, log)

	// Start server: tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr)
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
