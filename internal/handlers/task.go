package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/studygrouphub/backend/internal/services"
	"github.com/studygrouphub/backend/internal/validate"
	"github.com/studygrouphub/backend/pkg/response"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// POST /api/task/create
func (h *TaskHandler) Create(c *gin.Context) {
	p, ok := bindPayload(c)
	if !ok {
		return
	}
	if !check(c, validate.RequireFields(p, "task_desc", "group_id", "leader_id")) ||
		!check(c, validate.CheckType(p, validate.Str("task_desc"), validate.Int("group_id"), validate.Int("leader_id"))) ||
		!check(c, validate.CheckLength(validate.StrValue(p, "task_desc"), 1, 500, "任务描述")) {
		return
	}

	result, err := h.taskService.Create(c.Request.Context(), &services.CreateTaskRequest{
		TaskDesc: validate.StrValue(p, "task_desc"),
		GroupID:  validate.IntValue(p, "group_id"),
		LeaderID: validate.IntValue(p, "leader_id"),
	})
	if !check(c, err) {
		return
	}
	response.Success(c, "任务创建成功", result)
}

// ListByGroup lists a group's tasks, newest first. Unknown status filters
// are ignored.
// GET /api/task/group/:id?status=
func (h *TaskHandler) ListByGroup(c *gin.Context) {
	groupID, ok := pathID(c, "小组ID")
	if !ok {
		return
	}
	tasks, err := h.taskService.ListByGroup(c.Request.Context(), groupID, c.Query("status"))
	if !check(c, err) {
		return
	}
	response.Success(c, "查询成功", tasks)
}

// PUT /api/task/:id/status
func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	taskID, ok := pathID(c, "任务ID")
	if !ok {
		return
	}
	p, ok := bindPayload(c)
	if !ok {
		return
	}
	if !check(c, validate.RequireFields(p, "status", "user_id")) ||
		!check(c, validate.CheckType(p, validate.Str("status"), validate.Int("user_id"))) {
		return
	}

	err := h.taskService.UpdateStatus(c.Request.Context(), taskID, validate.IntValue(p, "user_id"), validate.StrValue(p, "status"))
	if !check(c, err) {
		return
	}
	response.OK(c, "状态更新成功")
}

// GET /api/task/group/:id/progress
func (h *TaskHandler) Progress(c *gin.Context) {
	groupID, ok := pathID(c, "小组ID")
	if !ok {
		return
	}
	progress, err := h.taskService.Progress(c.Request.Context(), groupID)
	if !check(c, err) {
		return
	}
	response.Success(c, "查询成功", progress)
}
