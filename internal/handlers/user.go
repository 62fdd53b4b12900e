package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studygrouphub/backend/internal/services"
	"github.com/studygrouphub/backend/internal/validate"
	"github.com/studygrouphub/backend/pkg/response"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// LoginHint describes the login call for clients probing with GET.
// GET /api/user/login
func (h *UserHandler) LoginHint(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"code":   http.StatusOK,
		"msg":    "登录接口正常（请使用POST方法）",
		"method": "GET",
		"example": gin.H{
			"user_id": 1,
			"contact": "13800138000",
		},
	})
}

// POST /api/user/login
func (h *UserHandler) Login(c *gin.Context) {
	p, ok := bindPayload(c)
	if !ok {
		return
	}
	if !check(c, validate.RequireFields(p, "user_id", "contact")) ||
		!check(c, validate.CheckType(p, validate.Int("user_id"), validate.Str("contact"))) {
		return
	}

	result, err := h.userService.Login(c.Request.Context(), validate.IntValue(p, "user_id"), validate.StrValue(p, "contact"))
	if !check(c, err) {
		return
	}
	response.Success(c, "登录成功", result)
}

// GET /api/user/:id
func (h *UserHandler) GetByID(c *gin.Context) {
	id, ok := pathID(c, "用户ID")
	if !ok {
		return
	}
	user, err := h.userService.GetByID(c.Request.Context(), id)
	if !check(c, err) {
		return
	}
	response.Success(c, "查询成功", user)
}

// GetStats returns one group's stats when group_id is given, otherwise a
// summary over all of the user's groups.
// GET /api/user/:id/stats
func (h *UserHandler) GetStats(c *gin.Context) {
	id, ok := pathID(c, "用户ID")
	if !ok {
		return
	}

	var groupID *int64
	if raw := c.Query("group_id"); raw != "" {
		gid, err := validate.ParseInt(raw)
		if err != nil {
			response.BadRequest(c, "group_id必须为整数")
			return
		}
		groupID = &gid
	}

	stats, err := h.userService.GetStats(c.Request.Context(), id, groupID)
	if !check(c, err) {
		return
	}
	response.Success(c, "查询成功", stats)
}
