package services

import (
	"testing"

	"gorm.io/gorm"

	"github.com/studygrouphub/backend/internal/config"
	"github.com/studygrouphub/backend/internal/models"
	"github.com/studygrouphub/backend/internal/store"
	"github.com/studygrouphub/backend/internal/testutil"
	"github.com/studygrouphub/backend/pkg/response"
)

type testEnv struct {
	db     *gorm.DB
	fx     testutil.Fixture
	cfg    *config.Config
	stats  *StatsService
	users  *UserService
	groups *GroupService
	tasks  *TaskService
	files  *FileService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, config.DefaultConfig())
}

func newTestEnvWithConfig(t *testing.T, cfg *config.Config) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	cfg.Upload.BasePath = t.TempDir()

	st := store.New(db)
	stats := NewStatsService(st)
	queue := NewSyncStatsQueue(stats)

	return &testEnv{
		db:     db,
		fx:     fx,
		cfg:    cfg,
		stats:  stats,
		users:  NewUserService(st, stats),
		groups: NewGroupService(st, stats, cfg.Permission),
		tasks:  NewTaskService(st, queue, cfg.Permission),
		files:  NewFileService(st, queue, cfg.Upload, cfg.Permission),
	}
}

func (e *testEnv) addTask(t *testing.T, leaderID int64, status string) int64 {
	t.Helper()
	task := models.Task{TaskDesc: "task", Status: status, GroupID: e.fx.GroupID, LeaderID: leaderID, CreateTime: testutil.Now()}
	if err := e.db.Create(&task).Error; err != nil {
		t.Fatal(err)
	}
	return task.TaskID
}

func (e *testEnv) cachedStats(t *testing.T, userID int64) *models.MemberStats {
	t.Helper()
	var rows []models.MemberStats
	if err := e.db.Where("user_id = ? AND group_id = ?", userID, e.fx.GroupID).Find(&rows).Error; err != nil {
		t.Fatal(err)
	}
	if len(rows) == 0 {
		return nil
	}
	return &rows[0]
}

func assertKind(t *testing.T, err error, kind response.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if !response.IsKind(err, kind) {
		t.Fatalf("expected %s error, got %v", kind, err)
	}
}
