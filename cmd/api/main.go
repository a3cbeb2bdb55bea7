package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"greencredit/greenscore-backend/internal/auth"
	"greencredit/greenscore-backend/internal/config"
	"greencredit/greenscore-backend/internal/engine/confidence"
	"greencredit/greenscore-backend/internal/engine/credits"
	"greencredit/greenscore-backend/internal/engine/emission"
	"greencredit/greenscore-backend/internal/engine/score"
	"greencredit/greenscore-backend/internal/engine/sector"
	"greencredit/greenscore-backend/internal/engine/pipeline"
	"greencredit/greenscore-backend/internal/evidence"
	"greencredit/greenscore-backend/internal/portfolio"
	"greencredit/greenscore-backend/internal/review"
	"greencredit/greenscore-backend/internal/scores"
)

func main() {
	// .env is optional, real deployments set variables directly
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg.Logging.Level)
	defer logger.Sync()

	// sqlx connection for the evidence and score repositories
	db, err := sqlx.Connect("postgres", cfg.Database.GetDatabaseURL())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxConnections)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	// gorm connection for the review queue and credit portfolio
	gormDB, err := gorm.Open(gormpostgres.Open(cfg.Database.GetDatabaseURL()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to open gorm connection", zap.Error(err))
	}

	// Scoring engine
	climatiq := emission.NewClimatiqClient(emission.ClimatiqConfig{
		APIKey:  cfg.Climatiq.APIKey,
		BaseURL: cfg.Climatiq.BaseURL,
		Timeout: cfg.Climatiq.Timeout,
	}, logger)
	calculator := emission.NewCalculator(climatiq, logger)
	baselines := sector.NewService(logger)
	computer := score.NewComputer(baselines, logger)
	aggregator := credits.NewAggregator(logger)
	manager := confidence.NewManager(logger)

	assistant, err := pipeline.NewAssistant(pipeline.AssistantConfig{
		APIKey:    cfg.Gemini.APIKey,
		ModelName: cfg.Gemini.ModelName,
	}, logger)
	if err != nil {
		logger.Warn("Summaries disabled, assistant failed to start", zap.Error(err))
	}
	if assistant != nil {
		defer assistant.Close()
	}

	orchestrator := pipeline.NewOrchestrator(calculator, computer, aggregator, manager, assistant, logger)

	// Review queue
	reviewRepo, err := review.NewGormRepository(gormDB)
	if err != nil {
		logger.Fatal("Failed to initialize review repository", zap.Error(err))
	}
	reviewService := review.NewService(reviewRepo, logger)
	reviewHandler := review.NewHandler(reviewService, logger)

	// Carbon credit portfolio
	portfolioRepo, err := portfolio.NewGormRepository(gormDB)
	if err != nil {
		logger.Fatal("Failed to initialize portfolio repository", zap.Error(err))
	}
	portfolioService := portfolio.NewService(portfolioRepo, aggregator, logger)
	portfolioHandler := portfolio.NewHandler(portfolioService, logger)

	// GreenScore history and sector analytics
	scoresRepo := scores.NewPostgresRepository(db)
	scoresService := scores.NewService(scoresRepo, baselines, logger)
	scoresHandler := scores.NewHandler(scoresService, logger)

	// Evidence processing
	evidenceRepo := evidence.NewPostgresRepository(db)
	evidenceService := evidence.NewService(evidenceRepo, orchestrator, scoresService, portfolioService, reviewService, scoresService, logger)
	evidenceHandler := evidence.NewHandler(evidenceService, logger)

	// Setup Router
	router := gin.Default()

	// CORS Middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Register Routes
	api := router.Group("/api/v1/ai")
	api.Use(auth.Middleware(cfg.Auth.JWTSecret, logger))
	{
		evidenceHandler.RegisterRoutes(api)
		scoresHandler.RegisterRoutes(api)
		portfolioHandler.RegisterRoutes(api)
	}

	admin := router.Group("/api/v1/admin")
	admin.Use(auth.Middleware(cfg.Auth.JWTSecret, logger), auth.RequireAdmin())
	{
		reviewHandler.RegisterRoutes(admin)
	}

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	// Start Server
	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", srv.Addr))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}

func newLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
