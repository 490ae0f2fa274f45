package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"cardiocheck/config"
	"cardiocheck/db"
	qhttp "cardiocheck/http"
	"cardiocheck/inference"
	"cardiocheck/logging"
)

func main() {
	// 1. Load config
	configPath := config.Resolve("config.yaml")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	logger.Info("config loaded", zap.String("path", configPath))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Open the model-load journal
	storeOpts := []inference.StoreOption{inference.WithStoreLogger(logger.Named("store"))}
	var history qhttp.LoadHistory
	if cfg.Database.Path != "" {
		journal, err := db.Open(cfg.Database.Path)
		if err != nil {
			logger.Warn("model-load journal disabled", zap.String("path", cfg.Database.Path), zap.Error(err))
		} else {
			defer journal.Close()
			storeOpts = append(storeOpts, inference.WithLoadRecorder(journal))
			history = journal
		}
	}

	// 3. Load the model; a failure leaves the service up with the store unloaded
	store := inference.NewStore(inference.StoreConfig{
		ModelType:    cfg.ML.ModelType,
		ModelPath:    cfg.ML.ModelPath,
		FeaturesPath: cfg.ML.FeaturesPath,
	}, storeOpts...)
	if err := store.Initialize(ctx); err != nil {
		logger.Error("model unavailable, predictions will be refused", zap.Error(err))
	}
	if cfg.ML.Watch {
		go func() {
			if err := store.Watch(ctx, cfg.ML.WatchDebounce); err != nil {
				logger.Warn("artifact watcher stopped", zap.Error(err))
			}
		}()
	}

	pipeline, err := inference.NewPipeline(store,
		inference.WithPipelineLogger(logger.Named("pipeline")),
		inference.WithStrictVocabulary(cfg.ML.StrictVocabulary),
		inference.WithCache(cfg.ML.CacheSize),
	)
	if err != nil {
		logger.Fatal("failed to build pipeline", zap.Error(err))
	}

	// 4. Start HTTP server
	handlers := qhttp.NewHandlers(pipeline, store, history, cfg.Http.StaticDir, logger.Named("http"))
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.Http.Port,
		Timeout:        cfg.Http.Timeout,
		AllowedOrigins: cfg.Http.AllowedOrigins,
		MaxBodyBytes:   cfg.Http.MaxBodyBytes,
	}, handlers, logger.Named("http"))
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 5. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")
	cancel()

	if err := server.Stop(); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("exiting")
}
