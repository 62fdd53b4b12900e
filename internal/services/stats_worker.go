package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"

	"github.com/studygrouphub/backend/internal/config"
	"github.com/studygrouphub/backend/pkg/logger"
)

// StatsWorker consumes stats refresh tasks from Redis
type StatsWorker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	stats   *StatsService
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// NewStatsWorker returns nil when Redis is disabled.
func NewStatsWorker(cfg *config.RedisConfig, stats *StatsService) *StatsWorker {
	if !cfg.Enabled {
		return nil
	}

	server := asynq.NewServer(
		redisOpt(cfg),
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Warnf("[StatsWorker] Error processing task %s: %v", task.Type(), err)
			}),
		},
	)

	return &StatsWorker{
		server: server,
		mux:    asynq.NewServeMux(),
		stats:  stats,
	}
}

func (w *StatsWorker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.mux.HandleFunc(TaskTypeStatsRefresh, w.handleStatsRefresh)

	w.running = true
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		logger.Infof("[StatsWorker] Starting async worker...")
		if err := w.server.Run(w.mux); err != nil {
			logger.Errorf("[StatsWorker] Server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the worker
func (w *StatsWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	logger.Infof("[StatsWorker] Shutting down...")
	w.server.Shutdown()
	w.running = false
	w.wg.Wait()
	logger.Infof("[StatsWorker] Shutdown complete")
}

func (w *StatsWorker) handleStatsRefresh(ctx context.Context, t *asynq.Task) error {
	task, err := decodeStatsRefresh(t.Payload())
	if err != nil {
		logger.Warnf("[StatsWorker] Failed to unmarshal task: %v", err)
		return err
	}
	return w.stats.Refresh(ctx, task.UserID, task.GroupID)
}

func decodeStatsRefresh(payload []byte) (*StatsRefreshTask, error) {
	var task StatsRefreshTask
	if err := json.Unmarshal(payload, &task); err != nil {
		return nil, err
	}
	return &task, nil
}
