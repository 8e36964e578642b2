// Command poseflow-mcp serves the PoseFlow MCP tools over stdio.
//
// Local mode opens the database from the server config; remote mode
// (-server) proxies to a running PoseFlow server over its REST API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/poseflow/internal/catalog"
	"github.com/claude/poseflow/internal/config"
	"github.com/claude/poseflow/internal/mcp"
	"github.com/claude/poseflow/internal/practice"
	"github.com/claude/poseflow/internal/recommend"
	"github.com/claude/poseflow/internal/storage"
	"github.com/claude/poseflow/internal/storage/sqlite"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "remote PoseFlow server URL (remote mode)")
	configPath := flag.String("config", "config.yaml", "path to config file (local mode)")
	login := flag.String("user", mcp.DefaultLogin, "login to act as in local mode")
	flag.Parse()

	// stdout carries the MCP protocol, so logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ds, cleanup, err := dataSource(*serverURL, *configPath, *login, log)
	if err != nil {
		log.Error("failed to set up data source", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	s := mcp.New(ds, Version, log)
	err = mcpserver.ServeStdio(s, mcpserver.WithStdioContextFunc(func(ctx context.Context) context.Context {
		return mcp.WithLogin(ctx, *login)
	}))
	if err != nil {
		log.Error("stdio server error", "error", err)
		os.Exit(1)
	}
}

func dataSource(serverURL, configPath, login string, log *slog.Logger) (mcp.DataSource, func(), error) {
	if serverURL != "" {
		log.Info("remote mode", "server", serverURL)
		return mcp.NewHTTPClient(serverURL), func() {}, nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	ctx := context.Background()
	var store practice.Store
	var closeStore func()
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return nil, nil, err
		}
		store, closeStore = db, func() { db.Close() }
	default:
		db, err := storage.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, nil, err
		}
		store, closeStore = db, db.Close
	}

	cat := catalog.Default()
	if cfg.Catalog.Path != "" {
		if cat, err = catalog.Load(cfg.Catalog.Path); err != nil {
			closeStore()
			return nil, nil, err
		}
	}
	loc, err := cfg.Streak.Location()
	if err != nil {
		closeStore()
		return nil, nil, err
	}

	svc := practice.NewService(store, recommend.NewEngine(cat, cfg.Recommend.Seed), loc, log)
	if _, err := svc.EnsureUser(ctx, login, ""); err != nil {
		closeStore()
		return nil, nil, fmt.Errorf("ensuring user %s: %w", login, err)
	}
	log.Info("local mode", "driver", cfg.Database.Driver, "user", login)
	return svc, closeStore, nil
}
