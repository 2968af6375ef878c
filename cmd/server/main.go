package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/marketlens/optionchain/internal/config"
	"github.com/marketlens/optionchain/internal/engine"
	"github.com/marketlens/optionchain/internal/expiry"
	"github.com/marketlens/optionchain/internal/notify"
	"github.com/marketlens/optionchain/internal/prefs"
	"github.com/marketlens/optionchain/internal/replay"
	"github.com/marketlens/optionchain/internal/server"
	"github.com/marketlens/optionchain/internal/ws"
)

func main() {
	os.Exit(run())
}

func run() int {
	// .env is optional; env vars win either way
	_ = godotenv.Load()

	// Setup logger
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	// Load config
	cfg, err := config.Load(os.Getenv("CHAINVIEW_CONFIG"))
	if err != nil {
		logger.Error("failed to load config", zap.Error(err))
		return 1
	}

	logger.Info("configuration loaded",
		zap.String("port", cfg.Server.Port),
		zap.String("dataDir", cfg.Server.DataDir),
		zap.String("replayMode", cfg.Server.ReplayMode),
		zap.Strings("symbols", cfg.Symbols),
		zap.String("prefsBackend", cfg.Prefs.Backend),
		zap.Bool("wsEnabled", cfg.Server.WSEnabled),
	)

	// Load recordings
	logger.Info("loading recordings...")
	start := time.Now()

	loader, err := replay.NewMemoryLoader(cfg.Server.DataDir, logger)
	if err != nil {
		logger.Error("failed to load recordings", zap.Error(err))
		return 1
	}
	source := replay.NewReloadableSource(loader)
	defer source.Close()

	logger.Info("recordings loaded", zap.Duration("duration", time.Since(start)))

	playback := replay.NewPlayback(replay.Mode(cfg.Server.ReplayMode))

	// Preferences backend
	kv, err := buildKV(&cfg.Prefs)
	if err != nil {
		logger.Error("failed to create preferences backend", zap.Error(err))
		return 1
	}
	prefsStore := prefs.NewStore(kv, logger)

	// Staleness notifier
	notifier := notify.New(&notify.Config{
		Enabled:  cfg.Notify.Enabled,
		Server:   cfg.Notify.ServerURL,
		Topic:    cfg.Notify.Topic,
		Priority: cfg.Notify.Priority,
		Tags:     cfg.Notify.Tags,
		Token:    os.Getenv("CHAINVIEW_NTFY_TOKEN"),
	}, logger)

	// Session manager
	manager := engine.NewManager(source, playback, engine.SessionOptions{
		FlashDuration:  cfg.Chain.FlashDuration(),
		StalenessTick:  cfg.Chain.StalenessTick(),
		StaleThreshold: cfg.Chain.StaleThreshold(),
		Cooldown:       cfg.Chain.RefreshCooldown(),
		OIChangeNoise:  float64(cfg.Chain.OIChangeNoise),
	}, notifier, logger)
	defer manager.Close()

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Background refresh of live sessions
	go manager.Poll(ctx, cfg.Chain.RefreshInterval())

	reload := server.NewReloadManager(source, playback, cfg.Server.DataDir, logger)

	// WebSocket components (optional)
	var hub *ws.Hub
	if cfg.Server.WSEnabled {
		hub = ws.NewHub("chain", logger)
		go hub.Run(ctx)

		streamer, err := ws.NewStreamer(hub, manager, prefsStore, cfg.Chain.RefreshInterval(), logger)
		if err != nil {
			logger.Error("failed to create streamer", zap.Error(err))
			return 1
		}
		streamer.SetPauseCheck(reload.IsReloading)
		go streamer.Run(ctx)

		logger.Info("WebSocket enabled",
			zap.Duration("streamInterval", cfg.Chain.RefreshInterval()),
		)
	}

	srv := server.NewServer(manager, prefsStore, expiry.NewCalendar(), reload, cfg, logger)
	router := server.NewRouter(srv, hub, manager, logger)

	// Setup HTTP server
	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Cancel context to stop streamers and pollers
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
		return 1
	}

	logger.Info("server stopped")
	return 0
}

func buildKV(cfg *config.PrefsConfig) (prefs.KV, error) {
	switch cfg.Backend {
	case "memory":
		return prefs.NewMemoryKV(), nil
	case "file":
		return prefs.NewFileKV(cfg.FileDir)
	case "redis":
		return prefs.NewRedisKV(cfg.RedisURL)
	default:
		return nil, fmt.Errorf("unknown prefs backend: %s", cfg.Backend)
	}
}
