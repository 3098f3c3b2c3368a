package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"intervai/internal/config"
	"intervai/internal/evaluation"
	"intervai/internal/gateway"
	"intervai/internal/handlers"
	"intervai/internal/jobs"
	"intervai/internal/llm"
	_ "intervai/internal/llm/gemini"
	"intervai/internal/metrics"
	"intervai/internal/middleware"
	"intervai/internal/models"
	"intervai/internal/prompts"
	"intervai/internal/questions"
	"intervai/internal/queue"
	"intervai/internal/quota"
	"intervai/internal/repositories"
	"intervai/internal/routers"
	"intervai/internal/session"
	"intervai/internal/storage/object"
	"intervai/internal/voice"
)

func initDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.Resume{},
		&models.Job{},
		&models.Optimization{},
		&models.InterviewQuestion{},
		&models.InterviewSession{},
		&models.InterviewMessage{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// newServer builds the HTTP server. The write timeout must outlast the REST
// group's per-request timeout, or the server cuts off slow responses before
// the middleware gets to answer with 504. WebSocket connections are exempt
// from both once hijacked.
func newServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: routers.RequestTimeout + 15*time.Second,
		IdleTimeout:  90 * time.Second,
	}
}

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	logger.Info("Configuration loaded", zap.String("provider", cfg.Provider))

	promptManager, err := prompts.NewPromptManager()
	if err != nil {
		logger.Fatal("Failed to initialize prompt manager", zap.Error(err))
	}

	aiProvider, err := llm.NewProvider(cfg.Provider)
	if err != nil {
		logger.Fatal("Failed to initialize AI provider", zap.Error(err))
	}

	db, err := initDatabase(cfg.PostgresDSN)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	sessionRepo := &repositories.SessionRepository{DB: db}
	questionRepo := &repositories.QuestionRepository{DB: db}
	optimizationRepo := &repositories.OptimizationRepository{DB: db}

	quotaSvc := quota.NewRedisService(rdb, cfg.QuotaDailyLimit)
	voiceClient := voice.NewHTTPClient(cfg.VoiceServiceURL, logger)

	audioStore, err := object.NewLocalStore(cfg.AudioDir, cfg.AudioBaseURL)
	if err != nil {
		logger.Fatal("Failed to initialize audio storage", zap.Error(err))
	}

	evaluationQueue := queue.NewRedisQueue(rdb, cfg.QueueKey, cfg.QueueMaxAttempts, logger)

	orchestrator := session.NewOrchestrator(
		sessionRepo, questionRepo, optimizationRepo,
		quotaSvc, evaluationQueue, voiceClient,
		aiProvider, promptManager, logger,
	)
	generator := questions.NewGenerator(aiProvider, optimizationRepo, questionRepo, logger)
	guideGenerator := questions.NewGuideGenerator(aiProvider, optimizationRepo, promptManager, logger)
	evaluator := evaluation.NewEvaluator(sessionRepo, optimizationRepo, aiProvider, promptManager, logger)

	workerPool := queue.NewWorkerPool(
		evaluationQueue,
		func(ctx context.Context, msg queue.EvaluationMessage) error {
			err := evaluator.EvaluateSession(ctx, msg.SessionID)
			if err != nil {
				metrics.RecordEvaluation("failed")
				return err
			}
			metrics.RecordEvaluation("succeeded")
			return nil
		},
		cfg.QueueWorkers, cfg.QueueJobsPerMinute, time.Minute, logger,
	)
	workerPool.Start()
	defer workerPool.Stop()

	// Sample backlog depth for the metrics endpoint.
	depthCtx, cancelDepth := context.WithCancel(context.Background())
	defer cancelDepth()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-depthCtx.Done():
				return
			case <-ticker.C:
				if depth, err := evaluationQueue.Depth(depthCtx); err == nil {
					metrics.SetQueueDepth(depth)
				}
			}
		}
	}()

	sweeper := jobs.NewEvaluationSweeper(sessionRepo, evaluationQueue, cfg.SweeperSchedule, cfg.SweeperGrace, logger)
	if err := sweeper.Start(); err != nil {
		logger.Fatal("Failed to start evaluation sweeper", zap.Error(err))
	}
	defer sweeper.Stop()

	interviewHandler := handlers.NewInterviewHandler(orchestrator, evaluator, logger)
	questionHandler := handlers.NewQuestionHandler(generator, guideGenerator, logger)
	audioHandler := handlers.NewAudioHandler(aiProvider, logger)
	healthHandler := handlers.NewHealthHandler(db, rdb, aiProvider)

	gatewayHandler := gateway.NewHandler(
		cfg.JWTSecret,
		gateway.NewRedisStore(rdb),
		gateway.NewHub(),
		orchestrator, aiProvider, audioStore, voiceClient, logger,
	)

	router := chi.NewRouter()

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	// No global request timeout: the gateway's WebSocket connections outlive
	// any sane value. The REST routes carry their own timeout instead.
	router.Use(chimiddleware.RequestID, chimiddleware.RealIP, chimiddleware.Logger, chimiddleware.Recoverer)
	router.Use(metrics.Middleware())

	limiter := middleware.NewRateLimiter(nil)
	routers.HealthRoutes(router, healthHandler)
	routers.InterviewRoutes(router, cfg.JWTSecret, limiter, interviewHandler, questionHandler, audioHandler)
	router.Get("/ws/interview", gatewayHandler.InterviewWS)

	// Synthesized and uploaded answer audio is served back as static files.
	router.Handle(strings.TrimRight(cfg.AudioBaseURL, "/")+"/*",
		http.StripPrefix(strings.TrimRight(cfg.AudioBaseURL, "/"), http.FileServer(http.Dir(cfg.AudioDir))))

	server := newServer(cfg.Port, router)

	go func() {
		logger.Info("Interview service starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownChan

	logger.Info("Interview service shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Interview service stopped")
}
