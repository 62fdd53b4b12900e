package services

import (
	"context"

	"github.com/studygrouphub/backend/internal/models"
	"github.com/studygrouphub/backend/internal/store"
	"github.com/studygrouphub/backend/pkg/response"
)

type UserService struct {
	store *store.Store
	stats *StatsService
}

func NewUserService(st *store.Store, stats *StatsService) *UserService {
	return &UserService{store: st, stats: stats}
}

type LoginResult struct {
	UserID   int64  `json:"user_id" gorm:"column:user_id"`
	UserName string `json:"user_name" gorm:"column:user_name"`
}

// Login matches a user id against its contact. There are no credentials
// beyond the pair and no session is issued.
func (s *UserService) Login(ctx context.Context, userID int64, contact string) (*LoginResult, error) {
	var result LoginResult
	found, err := s.store.QueryOne(ctx, &result,
		"SELECT user_id, user_name FROM sg_user WHERE user_id = ? AND contact = ?", userID, contact)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, response.NewUnauthorized("用户ID或联系方式错误")
	}
	return &result, nil
}

func (s *UserService) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	found, err := s.store.QueryOne(ctx, &user,
		"SELECT user_id, user_name, contact FROM sg_user WHERE user_id = ?", userID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, response.NewNotFoundf("用户ID=%d不存在", userID)
	}
	return &user, nil
}

// GetStats returns one group's live stats when groupID is set, otherwise the
// cached summary across all of the user's groups.
func (s *UserService) GetStats(ctx context.Context, userID int64, groupID *int64) (interface{}, error) {
	if groupID != nil {
		return s.stats.GetMemberStats(ctx, userID, *groupID)
	}
	return s.stats.GetUserStatsSummary(ctx, userID)
}

// exists reports whether query returns a row.
func exists(ctx context.Context, st *store.Store, query string, args ...interface{}) (bool, error) {
	var one int
	return st.QueryOne(ctx, &one, query, args...)
}

func isMember(ctx context.Context, st *store.Store, userID, groupID int64) (bool, error) {
	return exists(ctx, st, "SELECT 1 FROM sg_user_group WHERE user_id = ? AND group_id = ?", userID, groupID)
}

func requireGroup(ctx context.Context, st *store.Store, groupID int64) error {
	ok, err := exists(ctx, st, "SELECT 1 FROM sg_group WHERE group_id = ?", groupID)
	if err != nil {
		return err
	}
	if !ok {
		return response.NewNotFoundf("小组ID=%d不存在", groupID)
	}
	return nil
}

func requireUser(ctx context.Context, st *store.Store, userID int64, label string) error {
	ok, err := exists(ctx, st, "SELECT 1 FROM sg_user WHERE user_id = ?", userID)
	if err != nil {
		return err
	}
	if !ok {
		return response.NewNotFoundf("%sID=%d不存在", label, userID)
	}
	return nil
}
