// Package main is the entry point for the blog API server.
//
// main stays minimal. Its job is to:
//  1. read configuration (.env and environment)
//  2. create the long-lived dependencies (logger, store, cache)
//  3. hand them to internal/server and start it
//
// All actual logic lives in the internal packages.
package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sakif/blog-api/internal/cache"
	"github.com/sakif/blog-api/internal/config"
	"github.com/sakif/blog-api/internal/logger"
	"github.com/sakif/blog-api/internal/repository/sqlstore"
	"github.com/sakif/blog-api/internal/server"
	"github.com/sakif/blog-api/internal/service"
)

func main() {
	// === 1. CONFIGURATION ===
	cfg, err := config.Load()
	if err != nil {
		// no configured logger yet
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	// === 2. LOGGING ===
	log := logger.New(cfg.App.Environment, cfg.App.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// === 3. DATABASE ===
	// SQLite needs its directory to exist; ":memory:" and file: URIs are
	// used as given.
	if dir := filepath.Dir(cfg.Database.DSN); cfg.Database.Driver == config.DriverSQLite &&
		dir != "." && !strings.HasPrefix(cfg.Database.DSN, "file:") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal().Err(err).Str("dir", dir).Msg("failed to create database directory")
		}
	}

	store, err := sqlstore.Open(ctx, cfg.Database.Driver, cfg.Database.DSN, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("failed to open database")
	}

	// === 4. TAG CACHE (optional) ===
	// The server works without Redis; tags are then read from the store.
	var tagCache service.TagCache
	if cfg.Redis.Addr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable; tag cache disabled")
		} else {
			defer client.Close()
			tagCache = cache.NewTagCache(client, cfg.Redis.TagTTL)
			log.Info().Str("addr", cfg.Redis.Addr).Msg("tag cache enabled")
		}
	}

	// === 5. SERVER ===
	srv, err := server.New(cfg, store, tagCache, log)
	if err != nil {
		store.Close()
		log.Fatal().Err(err).Msg("failed to create server")
	}

	// Start blocks until SIGINT/SIGTERM and closes the store on the way out.
	if err := srv.Start(); err != nil {
		log.Error().Err(err).Msg("server error")
		os.Exit(1)
	}
}
