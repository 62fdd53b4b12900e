package services

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/studygrouphub/backend/internal/config"
	"github.com/studygrouphub/backend/pkg/logger"
)

const (
	TaskTypeStatsRefresh = "stats:refresh"
)

// StatsRefreshTask asks for one (user, group) cache row to be recomputed.
type StatsRefreshTask struct {
	UserID  int64 `json:"user_id"`
	GroupID int64 `json:"group_id"`
}

// StatsQueue defines how stats refreshes are dispatched
type StatsQueue interface {
	// Enqueue dispatches a refresh. The sync queue runs it before returning.
	Enqueue(ctx context.Context, task *StatsRefreshTask) error
	// IsAsync returns true if refreshes run out of band
	IsAsync() bool
	// Close gracefully shuts down the queue
	Close() error
}

// NewStatsQueue picks the async queue when Redis is enabled and reachable,
// otherwise the inline one.
func NewStatsQueue(cfg *config.Config, stats *StatsService) StatsQueue {
	if cfg.Redis.Enabled {
		queue, err := NewAsyncStatsQueue(&cfg.Redis)
		if err != nil {
			logger.Warnf("[StatsQueue] Redis unavailable, falling back to sync mode: %v", err)
			return NewSyncStatsQueue(stats)
		}
		logger.Infof("[StatsQueue] Async queue initialized with Redis at %s", cfg.Redis.Addr)
		return queue
	}
	logger.Infof("[StatsQueue] Sync queue initialized (Redis disabled)")
	return NewSyncStatsQueue(stats)
}

func redisOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// AsyncStatsQueue implements StatsQueue using asynq (Redis-based)
type AsyncStatsQueue struct {
	client *asynq.Client
}

func NewAsyncStatsQueue(cfg *config.RedisConfig) (*AsyncStatsQueue, error) {
	opt := redisOpt(cfg)
	client := asynq.NewClient(opt)

	inspector := asynq.NewInspector(opt)
	defer inspector.Close()

	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncStatsQueue{client: client}, nil
}

func (q *AsyncStatsQueue) Enqueue(ctx context.Context, task *StatsRefreshTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	info, err := q.client.EnqueueContext(ctx, asynq.NewTask(TaskTypeStatsRefresh, payload),
		asynq.Queue("default"),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return err
	}

	logger.Debug().Str("id", info.ID).Int64("user_id", task.UserID).Int64("group_id", task.GroupID).Msg("Stats refresh enqueued")
	return nil
}

func (q *AsyncStatsQueue) IsAsync() bool {
	return true
}

func (q *AsyncStatsQueue) Close() error {
	return q.client.Close()
}

// SyncStatsQueue refreshes in the calling goroutine so the response already
// reflects the new counts.
type SyncStatsQueue struct {
	stats *StatsService
}

func NewSyncStatsQueue(stats *StatsService) *SyncStatsQueue {
	return &SyncStatsQueue{stats: stats}
}

func (q *SyncStatsQueue) Enqueue(ctx context.Context, task *StatsRefreshTask) error {
	return q.stats.Refresh(ctx, task.UserID, task.GroupID)
}

func (q *SyncStatsQueue) IsAsync() bool {
	return false
}

func (q *SyncStatsQueue) Close() error {
	return nil
}

// refreshStats dispatches refreshes for the given users in one group. Failures
// are logged and dropped; the cache is corrected on the next refresh.
func refreshStats(ctx context.Context, queue StatsQueue, groupID int64, userIDs ...int64) {
	seen := make(map[int64]bool, len(userIDs))
	for _, uid := range userIDs {
		if seen[uid] {
			continue
		}
		seen[uid] = true
		if err := queue.Enqueue(ctx, &StatsRefreshTask{UserID: uid, GroupID: groupID}); err != nil {
			logger.Warn().Err(err).Int64("user_id", uid).Int64("group_id", groupID).Msg("Stats refresh failed")
		}
	}
}
