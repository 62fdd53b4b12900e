package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestLoginHint(t *testing.T) {
	s := newTestServer(t)
	env := expect(t, s.do(http.MethodGet, "/api/user/login", nil), http.StatusOK)
	if !strings.Contains(env.Msg, "POST") {
		t.Errorf("msg = %q", env.Msg)
	}
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		body   interface{}
		status int
		msg    string
	}{
		{"success", map[string]interface{}{"user_id": s.fx.Alice, "contact": "13800000001"}, http.StatusOK, "登录成功"},
		{"string id coerces", map[string]interface{}{"user_id": fmt.Sprint(s.fx.Alice), "contact": "13800000001"}, http.StatusOK, "登录成功"},
		{"empty body", nil, http.StatusBadRequest, "缺少必填参数：user_id,contact"},
		{"missing contact", map[string]interface{}{"user_id": s.fx.Alice}, http.StatusBadRequest, "缺少必填参数：contact"},
		{"bad id type", map[string]interface{}{"user_id": "abc", "contact": "x"}, http.StatusBadRequest, "user_id必须为int类型"},
		{"wrong contact", map[string]interface{}{"user_id": s.fx.Alice, "contact": "nope"}, http.StatusUnauthorized, "用户ID或联系方式错误"},
		{"invalid json", "{not json", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := expect(t, s.do(http.MethodPost, "/api/user/login", tt.body), tt.status)
			if tt.msg != "" && env.Msg != tt.msg {
				t.Errorf("msg = %q, expected %q", env.Msg, tt.msg)
			}
		})
	}
}

func TestGetUser(t *testing.T) {
	s := newTestServer(t)

	env := expect(t, s.do(http.MethodGet, fmt.Sprintf("/api/user/%d", s.fx.Bob), nil), http.StatusOK)
	var user struct {
		UserName string `json:"user_name"`
		Contact  string `json:"contact"`
	}
	data(t, env, &user)
	if user.UserName != "Bob" || user.Contact != "13800000002" {
		t.Errorf("unexpected user %+v", user)
	}

	expect(t, s.do(http.MethodGet, "/api/user/9999", nil), http.StatusNotFound)
	expect(t, s.do(http.MethodGet, "/api/user/abc", nil), http.StatusBadRequest)
}

func TestGetUserStats(t *testing.T) {
	s := newTestServer(t)

	env := expect(t, s.do(http.MethodGet, fmt.Sprintf("/api/user/%d/stats?group_id=%d", s.fx.Bob, s.fx.GroupID), nil), http.StatusOK)
	var one map[string]interface{}
	data(t, env, &one)
	if _, ok := one["completion_rate"]; !ok {
		t.Errorf("single group stats missing completion_rate: %v", one)
	}

	env = expect(t, s.do(http.MethodGet, fmt.Sprintf("/api/user/%d/stats", s.fx.Bob), nil), http.StatusOK)
	var summary map[string]interface{}
	data(t, env, &summary)
	if _, ok := summary["groups"]; !ok {
		t.Errorf("summary missing groups: %v", summary)
	}

	env = expect(t, s.do(http.MethodGet, fmt.Sprintf("/api/user/%d/stats?group_id=x", s.fx.Bob), nil), http.StatusBadRequest)
	if env.Msg != "group_id必须为整数" {
		t.Errorf("msg = %q", env.Msg)
	}
	expect(t, s.do(http.MethodGet, fmt.Sprintf("/api/user/%d/stats?group_id=9999", s.fx.Bob), nil), http.StatusNotFound)
}
