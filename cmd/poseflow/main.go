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

	"github.com/claude/poseflow/internal/catalog"
	"github.com/claude/poseflow/internal/config"
	"github.com/claude/poseflow/internal/mcp"
	"github.com/claude/poseflow/internal/metrics"
	"github.com/claude/poseflow/internal/practice"
	"github.com/claude/poseflow/internal/recommend"
	"github.com/claude/poseflow/internal/server"
	"github.com/claude/poseflow/internal/storage"
	"github.com/claude/poseflow/internal/storage/sqlite"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("PoseFlow starting", "version", Version)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Open storage
	ctx := context.Background()
	var store practice.Store
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			log.Error("failed to open sqlite database", "path", cfg.Database.Path, "error", err)
			os.Exit(1)
		}
		defer db.Close()
		store = db
		log.Info("sqlite database opened", "path", cfg.Database.Path)
	default:
		dsn := cfg.Database.DSN()
		if err := storage.RunMigrations(dsn, "migrations"); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied")

		db, err := storage.New(ctx, dsn)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		store = db
		log.Info("database connected")
	}

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	// Load catalog
	cat := catalog.Default()
	if cfg.Catalog.Path != "" {
		cat, err = catalog.Load(cfg.Catalog.Path)
		if err != nil {
			log.Error("failed to load catalog", "path", cfg.Catalog.Path, "error", err)
			os.Exit(1)
		}
	}
	for _, d := range []catalog.Difficulty{catalog.Beginner, catalog.Intermediate, catalog.Advanced} {
		metrics.CatalogPoses.WithLabelValues(d.String()).Set(float64(len(cat.PosesByDifficulty(d))))
	}
	log.Info("catalog loaded", "poses", cat.Len())

	loc, err := cfg.Streak.Location()
	if err != nil {
		log.Error("invalid streak timezone", "error", err)
		os.Exit(1)
	}

	// Create service and server
	engine := recommend.NewEngine(cat, cfg.Recommend.Seed)
	svc := practice.NewService(store, engine, loc, log)

	srv := server.New(svc, cfg.Auth.APIKey, server.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RateRequests:   cfg.RateLimit.Requests,
		RateWindow:     cfg.RateLimit.Window,
	}, log)

	mcpSrv := mcp.New(svc, Version, log)
	srv.SetMCP(mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			return mcp.WithLogin(ctx, server.LoginFromRequest(r))
		}),
	))

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

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		srv.SetTailscale(lc)

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
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}

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
