package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/protein/supplement-bot/common/logger"
	"github.com/protein/supplement-bot/common/otel"
	"github.com/protein/supplement-bot/core/config"
	"github.com/protein/supplement-bot/internal/curation"
	"github.com/protein/supplement-bot/internal/discord"
	httprouter "github.com/protein/supplement-bot/internal/http/router"
	"github.com/protein/supplement-bot/internal/metrics"
	"github.com/protein/supplement-bot/internal/service"
	"github.com/protein/supplement-bot/internal/store"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		// Can't use slog yet — OTel failed before logger setup
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "supplement bot starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	records := store.NewAirtable(store.Config{
		APIKey:          cfg.Airtable.APIKey,
		BaseID:          cfg.Airtable.BaseID,
		SupplementTable: cfg.Airtable.SupplementTable,
		SharersTable:    cfg.Airtable.SharersTable,
	}, slog.Default())

	if err := records.Validate(ctx); err != nil {
		slog.ErrorContext(ctx, "record store validation failed", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "record store validated",
		"base", cfg.Airtable.BaseID,
		"supplement_table", cfg.Airtable.SupplementTable,
		"sharers_table", cfg.Airtable.SharersTable)

	session, err := discord.NewSession(cfg.Discord.Token, cfg.Discord.GuildID, slog.Default())
	if err != nil {
		slog.ErrorContext(ctx, "failed to create gateway session", "error", err)
		os.Exit(1)
	}

	watcher := discord.NewChannelWatcher(session, cfg.Discord.CategoryID, slog.Default())
	auth := curation.NewAuthorizer(cfg.Discord.CuratorRoles)
	engine := curation.NewEngine(watcher, session, auth, cfg.Discord.EmojiID, slog.Default())
	reconciler := service.NewReconciler(records, records, slog.Default())
	backfill := service.NewBackfill(session, engine, reconciler, records, slog.Default())

	reactions := discord.NewReactionHandler(session, watcher, engine, reconciler, m,
		cfg.Discord.GuildID, cfg.Discord.EmojiID, slog.Default())
	syncCmd := discord.NewSyncCommand(session, watcher, backfill, m,
		cfg.Discord.AppID, cfg.Discord.GuildID, slog.Default())

	watcher.Bind(session)
	reactions.Bind(session)
	syncCmd.Bind(session)

	if err := session.Open(); err != nil {
		slog.ErrorContext(ctx, "failed to open gateway connection", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "gateway connected", "guild", cfg.Discord.GuildID)

	if err := watcher.Refresh(ctx); err != nil {
		slog.ErrorContext(ctx, "initial channel snapshot failed", "error", err)
		os.Exit(1)
	}

	if err := syncCmd.Register(ctx); err != nil {
		// The live path works without the command; keep running.
		slog.ErrorContext(ctx, "failed to register sync command", "error", err)
	} else {
		slog.InfoContext(ctx, "sync command registered")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, registry)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if err := session.Close(); err != nil {
		slog.ErrorContext(shutdownCtx, "gateway close error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, registry *prometheus.Registry) *gin.Engine {
	router := gin.New()

	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(gin.Recovery())

	httprouter.SetupRoutes(router, registry)
	return router
}
