package services

import (
	"context"
	"errors"
	"testing"

	"github.com/studygrouphub/backend/internal/config"
	"github.com/studygrouphub/backend/internal/models"
)

func TestTaskTypeStatsRefresh_Constant(t *testing.T) {
	if TaskTypeStatsRefresh != "stats:refresh" {
		t.Errorf("TaskTypeStatsRefresh = %q, expected %q", TaskTypeStatsRefresh, "stats:refresh")
	}
}

func TestDecodeStatsRefresh(t *testing.T) {
	task, err := decodeStatsRefresh([]byte(`{"user_id":7,"group_id":3}`))
	if err != nil {
		t.Fatal(err)
	}
	if task.UserID != 7 || task.GroupID != 3 {
		t.Errorf("unexpected task %+v", task)
	}
	if _, err := decodeStatsRefresh([]byte("not json")); err == nil {
		t.Error("expected error for invalid payload")
	}
}

func TestNewStatsQueue_SyncWhenRedisDisabled(t *testing.T) {
	cfg := config.DefaultConfig()
	queue := NewStatsQueue(cfg, nil)
	if queue.IsAsync() {
		t.Error("queue should be sync when Redis is disabled")
	}
	if err := queue.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

func TestNewStatsWorker_NilWhenRedisDisabled(t *testing.T) {
	if w := NewStatsWorker(&config.RedisConfig{Enabled: false}, nil); w != nil {
		t.Error("worker should be nil when Redis is disabled")
	}
}

func TestSyncStatsQueue_RefreshesInline(t *testing.T) {
	env := newTestEnv(t)
	env.addTask(t, env.fx.Bob, models.TaskStatusDone)

	queue := NewSyncStatsQueue(env.stats)
	if err := queue.Enqueue(context.Background(), &StatsRefreshTask{UserID: env.fx.Bob, GroupID: env.fx.GroupID}); err != nil {
		t.Fatal(err)
	}
	if c := env.cachedStats(t, env.fx.Bob); c == nil || c.CompletedTasks != 1 {
		t.Errorf("cache = %+v", c)
	}
}

type recordingQueue struct {
	tasks []StatsRefreshTask
	err   error
}

func (q *recordingQueue) Enqueue(_ context.Context, task *StatsRefreshTask) error {
	q.tasks = append(q.tasks, *task)
	return q.err
}
func (q *recordingQueue) IsAsync() bool { return true }
func (q *recordingQueue) Close() error  { return nil }

func TestRefreshStats_DeduplicatesAndSwallowsErrors(t *testing.T) {
	q := &recordingQueue{err: errors.New("redis down")}

	refreshStats(context.Background(), q, 5, 1, 2, 1)

	if len(q.tasks) != 2 {
		t.Fatalf("expected 2 dispatches, got %d", len(q.tasks))
	}
	if q.tasks[0].UserID != 1 || q.tasks[1].UserID != 2 || q.tasks[0].GroupID != 5 {
		t.Errorf("unexpected tasks %+v", q.tasks)
	}
}

func TestStatsScheduler_DisabledWithoutSpec(t *testing.T) {
	s := NewStatsScheduler(nil, "")
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	s.Stop()
}

func TestStatsScheduler_RejectsBadSpec(t *testing.T) {
	s := NewStatsScheduler(nil, "not a cron")
	if err := s.Start(); err == nil {
		t.Error("expected error for invalid cron spec")
	}
	s.Stop()
}

func TestStatsScheduler_RunReconciles(t *testing.T) {
	env := newTestEnv(t)
	env.addTask(t, env.fx.Alice, models.TaskStatusPending)

	NewStatsScheduler(env.stats, "@every 1h").run()

	if c := env.cachedStats(t, env.fx.Alice); c == nil || c.TotalTasks != 1 {
		t.Errorf("cache = %+v", c)
	}
}
