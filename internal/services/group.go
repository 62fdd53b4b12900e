package services

import (
	"context"
	"time"

	"github.com/studygrouphub/backend/internal/config"
	"github.com/studygrouphub/backend/internal/models"
	"github.com/studygrouphub/backend/internal/store"
	"github.com/studygrouphub/backend/pkg/logger"
	"github.com/studygrouphub/backend/pkg/response"
)

const CapGroupMemberQuery = "group_member_query"

type GroupService struct {
	store *store.Store
	stats *StatsService
	perms config.PermissionConfig
}

func NewGroupService(st *store.Store, stats *StatsService, perms config.PermissionConfig) *GroupService {
	return &GroupService{store: st, stats: stats, perms: perms}
}

type CreateGroupRequest struct {
	GroupName string
	CourseID  int64
	CreatorID int64
}

type CreateGroupResult struct {
	GroupID   int64  `json:"group_id"`
	GroupName string `json:"group_name"`
}

type UserGroupItem struct {
	GroupID    int64           `json:"group_id" gorm:"column:group_id"`
	GroupName  string          `json:"group_name" gorm:"column:group_name"`
	CreateTime models.DateTime `json:"create_time" gorm:"column:create_time"`
	CourseID   int64           `json:"course_id" gorm:"column:course_id"`
	CourseName string          `json:"course_name" gorm:"column:course_name"`
	Semester   string          `json:"semester" gorm:"column:semester"`
}

type GroupDetail struct {
	GroupID    int64           `json:"group_id" gorm:"column:group_id"`
	GroupName  string          `json:"group_name" gorm:"column:group_name"`
	CourseID   int64           `json:"course_id" gorm:"column:course_id"`
	CreateTime models.DateTime `json:"create_time" gorm:"column:create_time"`
	CourseName string          `json:"course_name" gorm:"column:course_name"`
	CourseCode string          `json:"course_code" gorm:"column:course_code"`
	Semester   string          `json:"semester" gorm:"column:semester"`
}

type InviteeInfo struct {
	UserID   int64  `json:"user_id" gorm:"column:user_id"`
	UserName string `json:"user_name" gorm:"column:user_name"`
}

// Create inserts the group and the creator membership. If the membership
// insert fails the group row is deleted again.
func (s *GroupService) Create(ctx context.Context, req *CreateGroupRequest) (*CreateGroupResult, error) {
	ok, err := exists(ctx, s.store, "SELECT 1 FROM sg_course WHERE course_id = ?", req.CourseID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, response.NewNotFoundf("课程ID=%d不存在", req.CourseID)
	}
	if err := requireUser(ctx, s.store, req.CreatorID, "用户"); err != nil {
		return nil, err
	}

	now := time.Now()
	group := models.Group{GroupName: req.GroupName, CourseID: req.CourseID, CreateTime: now}
	if err := s.store.Insert(ctx, &group); err != nil || group.GroupID == 0 {
		return nil, response.NewStorageFailure("小组创建失败")
	}

	membership := models.UserGroup{
		UserID:   req.CreatorID,
		GroupID:  group.GroupID,
		Role:     models.RoleCreator,
		JoinTime: now,
	}
	if err := s.store.Insert(ctx, &membership); err != nil {
		if _, delErr := s.store.Execute(ctx, "DELETE FROM sg_group WHERE group_id = ?", group.GroupID); delErr != nil {
			logger.Error().Err(delErr).Int64("group_id", group.GroupID).Msg("Compensating group delete failed")
		}
		return nil, response.NewStorageFailure("小组创建成功，创建人绑定失败")
	}

	logger.Info().Int64("group_id", group.GroupID).Int64("creator_id", req.CreatorID).Msg("Group created")
	return &CreateGroupResult{GroupID: group.GroupID, GroupName: group.GroupName}, nil
}

// ListForUser returns the user's groups, newest first.
func (s *GroupService) ListForUser(ctx context.Context, userID int64) ([]UserGroupItem, error) {
	if err := requireUser(ctx, s.store, userID, "用户"); err != nil {
		return nil, err
	}

	var items []UserGroupItem
	err := s.store.QueryAll(ctx, &items, `
		SELECT g.group_id, g.group_name, g.create_time,
		       c.course_id, COALESCE(c.course_name, '') AS course_name, COALESCE(c.semester, '') AS semester
		FROM sg_user_group ug
		JOIN sg_group g ON ug.group_id = g.group_id
		LEFT JOIN sg_course c ON g.course_id = c.course_id
		WHERE ug.user_id = ?
		ORDER BY g.create_time DESC`, userID)
	if err != nil {
		return nil, response.NewStorageFailure("小组查询失败")
	}
	return items, nil
}

func (s *GroupService) GetDetail(ctx context.Context, groupID int64) (*GroupDetail, error) {
	var detail GroupDetail
	found, err := s.store.QueryOne(ctx, &detail, `
		SELECT g.group_id, g.group_name, g.course_id, g.create_time,
		       COALESCE(c.course_name, '') AS course_name,
		       COALESCE(c.course_code, '') AS course_code,
		       COALESCE(c.semester, '') AS semester
		FROM sg_group g
		LEFT JOIN sg_course c ON g.course_id = c.course_id
		WHERE g.group_id = ?`, groupID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, response.NewNotFoundf("小组ID=%d不存在", groupID)
	}
	return &detail, nil
}

// Members lists the group with cached stats. The requester must be a member
// only when group_member_query is listed under require_member.
func (s *GroupService) Members(ctx context.Context, groupID, requesterID int64) ([]MemberWithStats, error) {
	member, err := isMember(ctx, s.store, requesterID, groupID)
	if err != nil {
		return nil, err
	}
	if !member && s.perms.RequiresMember(CapGroupMemberQuery) {
		return nil, response.NewForbidden("无权限查询该小组成员")
	}
	if err := requireGroup(ctx, s.store, groupID); err != nil {
		return nil, err
	}

	members, err := s.stats.GetGroupMembersWithStats(ctx, groupID)
	if err != nil {
		return nil, response.NewStorageFailure("成员查询失败")
	}
	return members, nil
}

// Invite adds the invitee directly. Neither the inviter's rights nor the
// existence of the group or invitee is checked.
func (s *GroupService) Invite(ctx context.Context, groupID, inviterID, inviteeID int64) (*InviteeInfo, error) {
	if inviterID == inviteeID {
		return nil, response.NewBadRequest("不能邀请自己")
	}

	member, err := isMember(ctx, s.store, inviteeID, groupID)
	if err != nil {
		return nil, err
	}
	if member {
		return nil, response.NewConflict("该用户已经是小组成员")
	}

	now := time.Now()
	membership := models.UserGroup{UserID: inviteeID, GroupID: groupID, Role: models.RoleMember, JoinTime: now}
	if err := s.store.Insert(ctx, &membership); err != nil {
		return nil, response.NewStorageFailure("加入小组失败")
	}

	invitation := models.Invitation{GroupID: groupID, InviterID: inviterID, InviteeID: inviteeID, CreateTime: now}
	if err := s.store.Insert(ctx, &invitation); err != nil {
		logger.Warn().Err(err).Int64("group_id", groupID).Msg("Invitation record not written")
	}

	var info InviteeInfo
	found, err := s.store.QueryOne(ctx, &info, "SELECT user_id, user_name FROM sg_user WHERE user_id = ?", inviteeID)
	if err != nil || !found {
		info = InviteeInfo{UserID: inviteeID, UserName: "用户"}
	}
	return &info, nil
}

// Remove deletes the target's membership without checking the caller.
func (s *GroupService) Remove(ctx context.Context, groupID, targetID int64) error {
	affected, err := s.store.Execute(ctx, "DELETE FROM sg_user_group WHERE user_id = ? AND group_id = ?", targetID, groupID)
	if err != nil || affected == 0 {
		return response.NewBadRequest("该用户不是小组成员")
	}
	return nil
}
