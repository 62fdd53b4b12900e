package services

import (
	"context"
	"fmt"
	"time"

	"github.com/studygrouphub/backend/internal/config"
	"github.com/studygrouphub/backend/internal/models"
	"github.com/studygrouphub/backend/internal/store"
	"github.com/studygrouphub/backend/pkg/logger"
	"github.com/studygrouphub/backend/pkg/response"
)

type TaskService struct {
	store *store.Store
	queue StatsQueue
	perms config.PermissionConfig
}

func NewTaskService(st *store.Store, queue StatsQueue, perms config.PermissionConfig) *TaskService {
	return &TaskService{store: st, queue: queue, perms: perms}
}

type CreateTaskRequest struct {
	TaskDesc string
	GroupID  int64
	LeaderID int64
}

type CreateTaskResult struct {
	TaskID int64  `json:"task_id"`
	Status string `json:"status"`
}

type TaskItem struct {
	TaskID       int64           `json:"task_id" gorm:"column:task_id"`
	TaskDesc     string          `json:"task_desc" gorm:"column:task_desc"`
	CreateTime   models.DateTime `json:"create_time" gorm:"column:create_time"`
	CompleteTime models.DateTime `json:"complete_time" gorm:"column:complete_time"`
	Status       string          `json:"status" gorm:"column:status"`
	GroupID      int64           `json:"group_id" gorm:"column:group_id"`
	LeaderID     int64           `json:"leader_id" gorm:"column:leader_id"`
	LeaderName   string          `json:"leader_name" gorm:"column:leader_name"`
}

type TaskProgress struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Pending   int64 `json:"pending"`
	Progress  int   `json:"progress"`
}

// Create adds a pending task. The leader must already be a group member.
func (s *TaskService) Create(ctx context.Context, req *CreateTaskRequest) (*CreateTaskResult, error) {
	if err := requireGroup(ctx, s.store, req.GroupID); err != nil {
		return nil, err
	}
	if err := requireUser(ctx, s.store, req.LeaderID, "负责人"); err != nil {
		return nil, err
	}
	member, err := isMember(ctx, s.store, req.LeaderID, req.GroupID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, response.NewForbidden("负责人必须是小组成员")
	}

	task := models.Task{
		TaskDesc:   req.TaskDesc,
		CreateTime: time.Now(),
		Status:     models.TaskStatusPending,
		GroupID:    req.GroupID,
		LeaderID:   req.LeaderID,
	}
	if err := s.store.Insert(ctx, &task); err != nil || task.TaskID == 0 {
		return nil, response.NewStorageFailure("任务创建失败")
	}
	return &CreateTaskResult{TaskID: task.TaskID, Status: task.Status}, nil
}

// ListByGroup returns the group's tasks newest first. status filters only when
// it names a known status; anything else lists everything.
func (s *TaskService) ListByGroup(ctx context.Context, groupID int64, status string) ([]TaskItem, error) {
	if err := requireGroup(ctx, s.store, groupID); err != nil {
		return nil, err
	}

	query := `
		SELECT t.task_id, t.task_desc, t.create_time, t.complete_time, t.status, t.group_id, t.leader_id,
		       COALESCE(u.user_name, '') AS leader_name
		FROM sg_task t
		LEFT JOIN sg_user u ON t.leader_id = u.user_id
		WHERE t.group_id = ?`
	args := []interface{}{groupID}
	if normalized, ok := models.NormalizeTaskStatus(status); ok {
		query += " AND t.status = ?"
		args = append(args, normalized)
	}
	query += " ORDER BY t.create_time DESC, t.task_id DESC"

	var tasks []TaskItem
	if err := s.store.QueryAll(ctx, &tasks, query, args...); err != nil {
		return nil, response.NewStorageFailure("任务查询失败")
	}
	return tasks, nil
}

// UpdateStatus moves a task between pending and done. Completing stamps
// complete_time; reopening leaves it as is.
func (s *TaskService) UpdateStatus(ctx context.Context, taskID, userID int64, rawStatus string) error {
	status, ok := models.NormalizeTaskStatus(rawStatus)
	if !ok {
		return response.NewBadRequest(fmt.Sprintf("状态值必须是'%s'或'%s'", models.TaskStatusPending, models.TaskStatusDone))
	}

	var task models.Task
	found, err := s.store.QueryOne(ctx, &task,
		"SELECT task_id, status, group_id, leader_id FROM sg_task WHERE task_id = ?", taskID)
	if err != nil {
		return err
	}
	if !found {
		return response.NewNotFoundf("任务ID=%d不存在", taskID)
	}

	if task.LeaderID != userID {
		if err := s.checkAdmin(ctx, userID, task.GroupID); err != nil {
			return err
		}
	}

	if task.Status == status {
		return response.NewConflict(fmt.Sprintf("任务已经是'%s'状态", status))
	}

	var affected int64
	if status == models.TaskStatusDone {
		affected, err = s.store.Execute(ctx,
			"UPDATE sg_task SET status = ?, complete_time = ? WHERE task_id = ?", status, time.Now(), taskID)
	} else {
		affected, err = s.store.Execute(ctx, "UPDATE sg_task SET status = ? WHERE task_id = ?", status, taskID)
	}
	if err != nil || affected == 0 {
		return response.NewStorageFailure("状态更新失败")
	}

	logger.Info().Int64("task_id", taskID).Str("status", status).Int64("user_id", userID).Msg("Task status updated")
	refreshStats(ctx, s.queue, task.GroupID, task.LeaderID, userID)
	return nil
}

// checkAdmin lets a non-leader through only with a permission level at or
// above permission.levels.group.admin. Without that threshold configured the
// check cannot be evaluated and fails as a server error.
func (s *TaskService) checkAdmin(ctx context.Context, userID, groupID int64) error {
	var membership struct {
		PermissionLevel *int `gorm:"column:permission_level"`
	}
	found, err := s.store.QueryOne(ctx, &membership,
		"SELECT permission_level FROM sg_user_group WHERE user_id = ? AND group_id = ?", userID, groupID)
	if err != nil {
		return err
	}
	if !found {
		return response.NewForbidden("无权限更新该任务状态")
	}

	threshold, ok := s.perms.Level("group", "admin")
	if !ok {
		logger.Error().Int64("user_id", userID).Int64("group_id", groupID).Msg("permission.levels.group.admin is not configured")
		return response.NewStorageFailure("permission level threshold not configured")
	}
	if membership.PermissionLevel == nil || *membership.PermissionLevel < threshold {
		return response.NewForbidden("无权限更新该任务状态")
	}
	return nil
}

// Progress summarises completion across the whole group.
func (s *TaskService) Progress(ctx context.Context, groupID int64) (*TaskProgress, error) {
	if err := requireGroup(ctx, s.store, groupID); err != nil {
		return nil, err
	}

	var total, completed int64
	if _, err := s.store.QueryOne(ctx, &total, "SELECT COUNT(*) FROM sg_task WHERE group_id = ?", groupID); err != nil {
		return nil, err
	}
	if _, err := s.store.QueryOne(ctx, &completed,
		"SELECT COUNT(*) FROM sg_task WHERE group_id = ? AND status = ?", groupID, models.TaskStatusDone); err != nil {
		return nil, err
	}

	return &TaskProgress{
		Total:     total,
		Completed: completed,
		Pending:   total - completed,
		Progress:  percent(completed, total),
	}, nil
}
