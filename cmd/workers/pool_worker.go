package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"greencredit/greenscore-backend/internal/config"
	"greencredit/greenscore-backend/internal/engine/credits"
	"greencredit/greenscore-backend/internal/portfolio"
)

// PoolWorker periodically sweeps pooling-eligible carbon credits into
// per-standard pools so small holdings can be registered together.
type PoolWorker struct {
	service  *portfolio.Service
	poolName string
	logger   *zap.Logger
}

// NewPoolWorker creates a new pooling worker
func NewPoolWorker(service *portfolio.Service, poolName string, logger *zap.Logger) *PoolWorker {
	return &PoolWorker{
		service:  service,
		poolName: poolName,
		logger:   logger,
	}
}

// RunOnce performs a single pooling sweep
func (w *PoolWorker) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	result, err := w.service.RunPooling(ctx, w.poolName)
	if err != nil {
		w.logger.Error("Pooling sweep failed", zap.Error(err))
		return
	}

	if result.TotalParticipants == 0 {
		w.logger.Info("No pooling-eligible credits found")
		return
	}

	for standard, pool := range result.Pools {
		w.logger.Info("Pool ready for registration",
			zap.String("standard", standard),
			zap.String("pool_name", pool.PoolName),
			zap.Int("participants", pool.ParticipantCount),
			zap.Float64("tonnes_co2", pool.TotalTonnesCO2),
			zap.Float64("net_value_usd", pool.TotalNetValueUSD))
	}
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	db, err := gorm.Open(gormpostgres.Open(cfg.Database.GetDatabaseURL()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	repo, err := portfolio.NewGormRepository(db)
	if err != nil {
		logger.Fatal("Failed to initialize portfolio repository", zap.Error(err))
	}
	service := portfolio.NewService(repo, credits.NewAggregator(logger), logger)
	worker := NewPoolWorker(service, cfg.Worker.PoolName, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Worker.PoolSchedule, func() { worker.RunOnce(ctx) }); err != nil {
		logger.Fatal("Invalid pool schedule", zap.String("schedule", cfg.Worker.PoolSchedule), zap.Error(err))
	}
	scheduler.Start()

	logger.Info("Pool worker started", zap.String("schedule", cfg.Worker.PoolSchedule), zap.String("pool_name", cfg.Worker.PoolName))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Pool worker shutting down")
	cancel()
	<-scheduler.Stop().Done()
}
