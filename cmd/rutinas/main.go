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

	"github.com/claude/rutinas/internal/authstate"
	"github.com/claude/rutinas/internal/config"
	rutinasmcp "github.com/claude/rutinas/internal/mcp"
	"github.com/claude/rutinas/internal/server"
	"github.com/claude/rutinas/internal/session"
	"github.com/claude/rutinas/internal/storage"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	mcpMode := flag.Bool("mcp", false, "serve the MCP tools over stdio instead of HTTP")
	flag.Parse()

	// stdout carries the MCP protocol in -mcp mode.
	logOut := os.Stdout
	if *mcpMode {
		logOut = os.Stderr
	}
	log := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("Rutinas starting", "version", Version)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessions := session.NewRegistry(time.Duration(cfg.Sessions.TTL), log)
	go sessions.Run(ctx, time.Duration(cfg.Sessions.SweepInterval))

	if *mcpMode {
		s := rutinasmcp.New(sessions, Version, log)
		if err := mcpserver.ServeStdio(s); err != nil {
			log.Error("mcp server error", "error", err)
			os.Exit(1)
		}
		return
	}

	// Routine library (optional)
	var library server.Library
	if cfg.Database.Enabled {
		dsn := cfg.Database.DSN()
		version, err := storage.RunMigrations(dsn, cfg.Database.MigrationsDir)
		if err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied", "version", version)

		if *migrateOnly {
			log.Info("migrate-only: exiting")
			return
		}

		db, err := storage.New(ctx, dsn)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		library = db
		log.Info("database connected")
	} else {
		if *migrateOnly {
			log.Error("migrate-only requires database.enabled")
			os.Exit(1)
		}
		log.Info("routine library disabled")
	}

	// Login flag
	var login server.LoginFlag
	flagStore, err := authstate.Open(cfg.State.Dir)
	if err != nil {
		log.Warn("login state unavailable", "dir", cfg.State.Dir, "error", err)
	} else {
		defer flagStore.Close()
		login = flagStore
	}

	srv := server.New(sessions, library, login, cfg.Auth.APIKey, log)

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

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped", "open_sessions", sessions.Len())
}
