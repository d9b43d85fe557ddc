package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"errorhelper/internal/bridge"
	"errorhelper/internal/chat"
	"errorhelper/internal/config"
	"errorhelper/internal/diagnostics"
	"errorhelper/internal/explain"
	"errorhelper/internal/export"
	"errorhelper/internal/feedback"
	"errorhelper/internal/handlers"
	"errorhelper/internal/jobs"
	"errorhelper/internal/llm"
	_ "errorhelper/internal/llm/gemini"
	"errorhelper/internal/metrics"
	"errorhelper/internal/models"
	"errorhelper/internal/prompts"
	"errorhelper/internal/routers"
	"errorhelper/internal/tts"
	_ "errorhelper/internal/tts/murf"
	"errorhelper/internal/utils"
	"errorhelper/internal/voice"
)

type routeSet struct {
	health    *handlers.HealthHandler
	workspace *handlers.WorkspaceHandler
	errors    *handlers.ErrorsHandler
	feedback  *handlers.FeedbackHandler
	panels    *handlers.BridgeHandler
}

// registerRoutes puts everything except the panel websocket behind the request timeout.
func registerRoutes(router *chi.Mux, routes routeSet, timeout time.Duration) {
	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(timeout))
		routers.HealthRoutes(r, routes.health)
		routers.WorkspaceRoutes(r, routes.workspace)
		routers.ErrorRoutes(r, routes.errors)
		routers.FeedbackRoutes(r, routes.feedback)
	})
	routers.PanelRoutes(router, routes.panels)
}

// initDatabase opens the feedback store and migrates its tables.
func initDatabase(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&models.AIFeedback{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// newSynthesizer builds the speech backend, fronted by the redis audio cache
// when REDIS_ADDR is set.
func newSynthesizer(cfg *config.Config, logger *zap.Logger) (tts.Synthesizer, *redis.Client, error) {
	synth, err := tts.NewSynthesizer(cfg.TTSProvider)
	if err != nil {
		return nil, nil, err
	}
	if cfg.RedisAddr == "" {
		return synth, nil, nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unreachable, audio cache will miss until it recovers", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	return tts.NewCachedSynthesizer(synth, rdb, cfg.AudioCacheTTL, logger), rdb, nil
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(cfg.LogLevel, cfg.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Configuration loaded",
		zap.String("provider", cfg.Provider),
		zap.String("tts_provider", cfg.TTSProvider),
		zap.String("db_driver", cfg.DBDriver))

	promptManager, err := prompts.NewPromptManager()
	if err != nil {
		logger.Fatal("Failed to initialize prompt manager", zap.Error(err))
	}

	baseProvider, err := llm.NewProvider(cfg.Provider)
	if err != nil {
		logger.Fatal("Failed to initialize AI provider", zap.Error(err))
	}
	aiProvider := llm.NewBreakerProvider(baseProvider, llm.BreakerConfig{
		MaxFailures: cfg.BreakerMaxFailures,
		Timeout:     cfg.BreakerOpenTimeout,
	}, logger)

	synthesizer, rdb, err := newSynthesizer(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize speech provider", zap.Error(err))
	}

	// core: the active document feeds the watcher, which reconciles the cache
	workspace := diagnostics.NewWorkspace()
	cache := diagnostics.NewCache()
	watcher := diagnostics.NewWatcher(workspace, cache, logger)
	watcher.OnRefresh(func(records []diagnostics.ErrorRecord) {
		metrics.SetActiveErrors(len(records))
	})

	explainCoord := explain.NewCoordinator(cache, aiProvider, promptManager, cfg.RequestTimeout, logger)
	voiceCoord := voice.NewCoordinator(synthesizer, cfg.DefaultVoice, cfg.DefaultStyle, cfg.RequestTimeout, logger)
	chatCoord := chat.NewCoordinator(aiProvider, cfg.RequestTimeout, logger)

	panelBridge := bridge.New(cache, chatCoord, voiceCoord, export.NewFileExporter(cfg.ExportDir), logger)
	explainCoord.SetDetailView(panelBridge)
	cache.OnChange(panelBridge.RenderTree)

	db, err := initDatabase(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Error("Failed to initialize database, feedback system will be disabled", zap.Error(err))
	}

	var (
		feedbackManager *feedback.FeedbackManager
		feedbackHandler *handlers.FeedbackHandler
		exporterJob     *jobs.FeedbackExporterJob
		pinger          handlers.Pinger
	)

	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			pinger = sqlDB
		}

		feedbackManager = feedback.NewFeedbackManager(db, cfg.FeedbackCacheTTL, logger)
		explainCoord.SetRecorder(feedbackManager)
		feedbackHandler = handlers.NewFeedbackHandler(feedbackManager, logger)

		exporterJob = jobs.NewFeedbackExporterJob(feedbackManager, &jobs.ExporterConfig{
			Schedule:      cfg.ExportSchedule,
			ExportDir:     cfg.FeedbackDir,
			ExportEnabled: cfg.ExportEnabled,
		}, logger)
		if cfg.ExportEnabled {
			if err := exporterJob.Start(); err != nil {
				logger.Error("Failed to start feedback exporter job", zap.Error(err))
			} else {
				logger.Info("Feedback exporter job started", zap.String("schedule", cfg.ExportSchedule))
			}
		}

		logger.Info("Feedback system initialized successfully")
	}

	router := chi.NewRouter()

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	router.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer, metrics.Middleware)

	registerRoutes(router, routeSet{
		health:    handlers.NewHealthHandler(aiProvider, synthesizer, promptManager, pinger, cfg),
		workspace: handlers.NewWorkspaceHandler(workspace, watcher, logger),
		errors:    handlers.NewErrorsHandler(cache, explainCoord, voiceCoord, logger),
		feedback:  feedbackHandler,
		panels:    handlers.NewBridgeHandler(panelBridge, cfg.AllowedOrigins, logger),
	}, cfg.RequestTimeout)

	serverAddr := ":" + cfg.Port

	// write timeout leaves room for a voice request that uses its whole budget
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("errorhelper starting", zap.String("addr", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// wait for interrupt signal to gracefully shutdown the server
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownChan

	logger.Info("errorhelper shutting down...")

	if exporterJob != nil {
		exporterJob.Stop()
		logger.Info("Feedback exporter job stopped")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	// in-flight explanations and panel work finish before their stores close
	explainCoord.Wait()
	panelBridge.Wait()

	if feedbackManager != nil {
		feedbackManager.Close()
	}
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("errorhelper exited")
}
