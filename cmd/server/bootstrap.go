package main

import (
	"github.com/studygrouphub/backend/internal/config"
	"github.com/studygrouphub/backend/internal/handlers"
	"github.com/studygrouphub/backend/internal/models"
	"github.com/studygrouphub/backend/internal/services"
	"github.com/studygrouphub/backend/internal/store"
	"github.com/studygrouphub/backend/pkg/logger"
)

// appServices holds everything main needs to serve and later shut down.
type appServices struct {
	statsQueue     services.StatsQueue
	statsWorker    *services.StatsWorker
	statsScheduler *services.StatsScheduler

	userHandler   *handlers.UserHandler
	groupHandler  *handlers.GroupHandler
	taskHandler   *handlers.TaskHandler
	fileHandler   *handlers.FileHandler
	healthHandler *handlers.HealthHandler
}

// bootstrap opens the database, builds the services and starts the
// background stats refresh machinery.
func bootstrap(cfg *config.Config) *appServices {
	db, err := models.InitDB(&cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	if err := models.AutoMigrate(db); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	if cfg.Database.Seed {
		if err := models.SeedDefaultData(db); err != nil {
			logger.Warn().Err(err).Msg("Failed to seed default data")
		}
	}

	st := store.New(db)
	stats := services.NewStatsService(st)

	// Redis-backed when enabled, otherwise refreshes run inline
	queue := services.NewStatsQueue(cfg, stats)

	worker := services.NewStatsWorker(&cfg.Redis, stats)
	if worker != nil {
		if err := worker.Start(); err != nil {
			logger.Error().Err(err).Msg("Failed to start stats worker")
			worker = nil
		}
	}

	scheduler := services.NewStatsScheduler(stats, cfg.Stats.ReconcileCron)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Str("spec", cfg.Stats.ReconcileCron).Msg("Failed to start stats scheduler")
	}

	return &appServices{
		statsQueue:     queue,
		statsWorker:    worker,
		statsScheduler: scheduler,
		userHandler:    handlers.NewUserHandler(services.NewUserService(st, stats)),
		groupHandler:   handlers.NewGroupHandler(services.NewGroupService(st, stats, cfg.Permission)),
		taskHandler:    handlers.NewTaskHandler(services.NewTaskService(st, queue, cfg.Permission)),
		fileHandler:    handlers.NewFileHandler(services.NewFileService(st, queue, cfg.Upload, cfg.Permission)),
		healthHandler:  handlers.NewHealthHandler(st, queue),
	}
}

// shutdown stops background work after the HTTP server has drained.
func (s *appServices) shutdown() {
	s.statsScheduler.Stop()
	logger.Info().Msg("Stats scheduler stopped")

	if s.statsWorker != nil {
		s.statsWorker.Stop()
	}
	if s.statsQueue != nil {
		if err := s.statsQueue.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close stats queue")
		}
	}
}
