package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/studygrouphub/backend/internal/services"
	"github.com/studygrouphub/backend/internal/validate"
	"github.com/studygrouphub/backend/pkg/response"
)

type GroupHandler struct {
	groupService *services.GroupService
}

func NewGroupHandler(groupService *services.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

// Create creates a group and binds the creator as its first member.
// POST /api/group/create
func (h *GroupHandler) Create(c *gin.Context) {
	p, ok := bindPayload(c)
	if !ok {
		return
	}
	if !check(c, validate.RequireFields(p, "group_name", "course_id", "creator_id")) ||
		!check(c, validate.CheckType(p, validate.Str("group_name"), validate.Int("course_id"), validate.Int("creator_id"))) ||
		!check(c, validate.CheckLength(validate.StrValue(p, "group_name"), 1, 30, "小组名称")) {
		return
	}

	result, err := h.groupService.Create(c.Request.Context(), &services.CreateGroupRequest{
		GroupName: validate.StrValue(p, "group_name"),
		CourseID:  validate.IntValue(p, "course_id"),
		CreatorID: validate.IntValue(p, "creator_id"),
	})
	if !check(c, err) {
		return
	}
	response.Success(c, "小组创建成功", result)
}

// GET /api/group/user/:id
func (h *GroupHandler) ListForUser(c *gin.Context) {
	userID, ok := pathID(c, "用户ID")
	if !ok {
		return
	}
	groups, err := h.groupService.ListForUser(c.Request.Context(), userID)
	if !check(c, err) {
		return
	}
	response.Success(c, "查询成功", groups)
}

// GET /api/group/:id
func (h *GroupHandler) GetDetail(c *gin.Context) {
	groupID, ok := pathID(c, "小组ID")
	if !ok {
		return
	}
	detail, err := h.groupService.GetDetail(c.Request.Context(), groupID)
	if !check(c, err) {
		return
	}
	response.Success(c, "查询成功", detail)
}

// GET /api/group/:id/members?user_id=
func (h *GroupHandler) Members(c *gin.Context) {
	groupID, ok := pathID(c, "小组ID")
	if !ok {
		return
	}
	userID, ok := queryUserID(c)
	if !ok {
		return
	}
	members, err := h.groupService.Members(c.Request.Context(), groupID, userID)
	if !check(c, err) {
		return
	}
	response.Success(c, "查询成功", members)
}

// POST /api/group/:id/invite
func (h *GroupHandler) Invite(c *gin.Context) {
	groupID, ok := pathID(c, "小组ID")
	if !ok {
		return
	}
	p, ok := bindPayload(c)
	if !ok {
		return
	}
	if validate.RequireFields(p, "inviter_id", "invitee_id") != nil {
		response.Error(c, response.NewMissingField("邀请人和被邀请人ID不能为空"))
		return
	}
	if !check(c, validate.CheckType(p, validate.Int("inviter_id"), validate.Int("invitee_id"))) {
		return
	}

	info, err := h.groupService.Invite(c.Request.Context(), groupID,
		validate.IntValue(p, "inviter_id"), validate.IntValue(p, "invitee_id"))
	if !check(c, err) {
		return
	}
	response.Success(c, "邀请成功", gin.H{"invitee_info": info})
}

// POST /api/group/:id/remove
func (h *GroupHandler) Remove(c *gin.Context) {
	groupID, ok := pathID(c, "小组ID")
	if !ok {
		return
	}
	p, ok := bindPayload(c)
	if !ok {
		return
	}
	if validate.RequireFields(p, "target_id") != nil {
		response.Error(c, response.NewMissingField("目标成员ID不能为空"))
		return
	}
	if !check(c, validate.CheckType(p, validate.Int("target_id"))) {
		return
	}

	if !check(c, h.groupService.Remove(c.Request.Context(), groupID, validate.IntValue(p, "target_id"))) {
		return
	}
	response.OK(c, "成员移除成功")
}
