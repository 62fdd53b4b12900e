package services

import (
	"context"
	"math"
	"time"

	"github.com/studygrouphub/backend/internal/models"
	"github.com/studygrouphub/backend/internal/store"
	"github.com/studygrouphub/backend/pkg/logger"
	"github.com/studygrouphub/backend/pkg/response"
)

var statsUpdateColumns = []string{"total_tasks", "completed_tasks", "uploaded_files", "last_active"}

// StatsService maintains the sg_member_stats cache. Task and File rows are
// the source of truth; the cache is corrected whenever a refresh runs.
type StatsService struct {
	store *store.Store
}

func NewStatsService(st *store.Store) *StatsService {
	return &StatsService{store: st}
}

type StatsCounts struct {
	TotalTasks     int64 `json:"total_tasks" gorm:"column:total_tasks"`
	CompletedTasks int64 `json:"completed_tasks" gorm:"column:completed_tasks"`
	UploadedFiles  int64 `json:"uploaded_files" gorm:"column:uploaded_files"`
}

// MemberStatsView is one member's live contribution in a group.
type MemberStatsView struct {
	StatsCounts
	CompletionRate int             `json:"completion_rate"`
	Role           string          `json:"role"`
	JoinTime       models.DateTime `json:"join_time"`
}

// MemberWithStats is a row of the group member listing. Counts come from the
// cache and may lag.
type MemberWithStats struct {
	UserID         int64           `json:"user_id" gorm:"column:user_id"`
	UserName       string          `json:"user_name" gorm:"column:user_name"`
	Contact        string          `json:"contact" gorm:"column:contact"`
	Role           string          `json:"role" gorm:"column:role"`
	JoinTime       models.DateTime `json:"join_time" gorm:"column:join_time"`
	TotalTasks     int64           `json:"total_tasks" gorm:"column:total_tasks"`
	CompletedTasks int64           `json:"completed_tasks" gorm:"column:completed_tasks"`
	UploadedFiles  int64           `json:"uploaded_files" gorm:"column:uploaded_files"`
	CompletionRate float64         `json:"completion_rate" gorm:"-"`
}

type GroupStatsRow struct {
	GroupID        int64  `json:"group_id" gorm:"column:group_id"`
	GroupName      string `json:"group_name" gorm:"column:group_name"`
	TotalTasks     int64  `json:"total_tasks" gorm:"column:total_tasks"`
	CompletedTasks int64  `json:"completed_tasks" gorm:"column:completed_tasks"`
	UploadedFiles  int64  `json:"uploaded_files" gorm:"column:uploaded_files"`
	Role           string `json:"role" gorm:"column:role"`
}

// UserStatsSummary aggregates a user's cached stats across all groups.
type UserStatsSummary struct {
	Groups []GroupStatsRow `json:"groups"`
	Totals StatsCounts     `json:"totals"`
}

// UpdateStats upserts the cache row for (user, group), overwriting counts.
func (s *StatsService) UpdateStats(ctx context.Context, userID, groupID int64, counts StatsCounts) error {
	row := models.MemberStats{
		UserID:         userID,
		GroupID:        groupID,
		TotalTasks:     counts.TotalTasks,
		CompletedTasks: counts.CompletedTasks,
		UploadedFiles:  counts.UploadedFiles,
		LastActive:     time.Now(),
	}
	return s.store.Upsert(ctx, &row, []string{"user_id", "group_id"}, statsUpdateColumns)
}

// Recompute counts tasks led and files uploaded by the user in the group.
func (s *StatsService) Recompute(ctx context.Context, userID, groupID int64) (StatsCounts, error) {
	var counts StatsCounts
	if _, err := s.store.QueryOne(ctx, &counts, `
		SELECT COUNT(*) AS total_tasks,
		       COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS completed_tasks
		FROM sg_task
		WHERE leader_id = ? AND group_id = ?`,
		models.TaskStatusDone, userID, groupID); err != nil {
		return StatsCounts{}, err
	}

	var files int64
	if _, err := s.store.QueryOne(ctx, &files,
		"SELECT COUNT(*) FROM sg_file WHERE uploader_id = ? AND group_id = ?", userID, groupID); err != nil {
		return StatsCounts{}, err
	}
	counts.UploadedFiles = files
	return counts, nil
}

// Refresh recomputes and stores the cache row.
func (s *StatsService) Refresh(ctx context.Context, userID, groupID int64) error {
	counts, err := s.Recompute(ctx, userID, groupID)
	if err != nil {
		return err
	}
	return s.UpdateStats(ctx, userID, groupID, counts)
}

// GetMemberStats returns live counts plus membership details and resyncs the
// cache. A missing membership is NotFound.
func (s *StatsService) GetMemberStats(ctx context.Context, userID, groupID int64) (*MemberStatsView, error) {
	counts, err := s.Recompute(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}

	var membership struct {
		Role     string          `gorm:"column:role"`
		JoinTime models.DateTime `gorm:"column:join_time"`
	}
	found, err := s.store.QueryOne(ctx, &membership,
		"SELECT role, join_time FROM sg_user_group WHERE user_id = ? AND group_id = ?", userID, groupID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, response.NewNotFound("统计信息不存在")
	}

	if err := s.UpdateStats(ctx, userID, groupID, counts); err != nil {
		logger.Warn().Err(err).Int64("user_id", userID).Int64("group_id", groupID).Msg("Stats resync failed")
	}

	return &MemberStatsView{
		StatsCounts:    counts,
		CompletionRate: percent(counts.CompletedTasks, counts.TotalTasks),
		Role:           membership.Role,
		JoinTime:       membership.JoinTime,
	}, nil
}

// GetGroupMembersWithStats lists members creator first, then leaders, then
// everyone else, each tier by name.
func (s *StatsService) GetGroupMembersWithStats(ctx context.Context, groupID int64) ([]MemberWithStats, error) {
	var members []MemberWithStats
	err := s.store.QueryAll(ctx, &members, `
		SELECT ug.user_id,
		       COALESCE(u.user_name, '') AS user_name,
		       COALESCE(u.contact, '') AS contact,
		       ug.role, ug.join_time,
		       COALESCE(ms.total_tasks, 0) AS total_tasks,
		       COALESCE(ms.completed_tasks, 0) AS completed_tasks,
		       COALESCE(ms.uploaded_files, 0) AS uploaded_files
		FROM sg_user_group ug
		LEFT JOIN sg_user u ON ug.user_id = u.user_id
		LEFT JOIN sg_member_stats ms ON ug.user_id = ms.user_id AND ug.group_id = ms.group_id
		WHERE ug.group_id = ?
		ORDER BY CASE ug.role WHEN ? THEN 1 WHEN ? THEN 2 ELSE 3 END, u.user_name`,
		groupID, models.RoleCreator, models.RoleLeader)
	if err != nil {
		return nil, err
	}
	for i := range members {
		members[i].CompletionRate = percentOneDecimal(members[i].CompletedTasks, members[i].TotalTasks)
	}
	return members, nil
}

// GetUserStatsSummary reads the cached stats of every group the user is in,
// newest group first, with column totals.
func (s *StatsService) GetUserStatsSummary(ctx context.Context, userID int64) (*UserStatsSummary, error) {
	var groups []GroupStatsRow
	err := s.store.QueryAll(ctx, &groups, `
		SELECT g.group_id,
		       COALESCE(g.group_name, '') AS group_name,
		       COALESCE(ms.total_tasks, 0) AS total_tasks,
		       COALESCE(ms.completed_tasks, 0) AS completed_tasks,
		       COALESCE(ms.uploaded_files, 0) AS uploaded_files,
		       ug.role
		FROM sg_user_group ug
		LEFT JOIN sg_group g ON ug.group_id = g.group_id
		LEFT JOIN sg_member_stats ms ON ug.user_id = ms.user_id AND ug.group_id = ms.group_id
		WHERE ug.user_id = ?
		ORDER BY g.create_time DESC`, userID)
	if err != nil {
		return nil, err
	}

	summary := &UserStatsSummary{Groups: groups}
	for _, g := range groups {
		summary.Totals.TotalTasks += g.TotalTasks
		summary.Totals.CompletedTasks += g.CompletedTasks
		summary.Totals.UploadedFiles += g.UploadedFiles
	}
	return summary, nil
}

// ReconcileAll refreshes the cache for every membership. It keeps going past
// individual failures and returns how many rows were refreshed.
func (s *StatsService) ReconcileAll(ctx context.Context) (int, error) {
	var pairs []struct {
		UserID  int64 `gorm:"column:user_id"`
		GroupID int64 `gorm:"column:group_id"`
	}
	if err := s.store.QueryAll(ctx, &pairs, "SELECT user_id, group_id FROM sg_user_group"); err != nil {
		return 0, err
	}

	refreshed := 0
	for _, p := range pairs {
		if err := ctx.Err(); err != nil {
			return refreshed, err
		}
		if err := s.Refresh(ctx, p.UserID, p.GroupID); err != nil {
			logger.Warn().Err(err).Int64("user_id", p.UserID).Int64("group_id", p.GroupID).Msg("Stats reconcile failed")
			continue
		}
		refreshed++
	}
	return refreshed, nil
}

// percent is round(part/total*100), 0 when total is 0.
func percent(part, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

func percentOneDecimal(part, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(part)*1000/float64(total)) / 10
}
