package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/studygrouphub/backend/internal/config"
	"github.com/studygrouphub/backend/internal/services"
	"github.com/studygrouphub/backend/internal/store"
	"github.com/studygrouphub/backend/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	fx     testutil.Fixture
	cfg    *config.Config
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := config.DefaultConfig()

	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)
	cfg.Upload.BasePath = t.TempDir()

	st := store.New(db)
	stats := services.NewStatsService(st)
	queue := services.NewSyncStatsQueue(stats)

	users := NewUserHandler(services.NewUserService(st, stats))
	groups := NewGroupHandler(services.NewGroupService(st, stats, cfg.Permission))
	tasks := NewTaskHandler(services.NewTaskService(st, queue, cfg.Permission))
	files := NewFileHandler(services.NewFileService(st, queue, cfg.Upload, cfg.Permission))

	r := gin.New()
	r.GET("/health", NewHealthHandler(st, queue).CheckHealth)
	api := r.Group("/api")
	api.GET("/user/login", users.LoginHint)
	api.POST("/user/login", users.Login)
	api.GET("/user/:id", users.GetByID)
	api.GET("/user/:id/stats", users.GetStats)
	api.POST("/group/create", groups.Create)
	api.GET("/group/user/:id", groups.ListForUser)
	api.GET("/group/:id", groups.GetDetail)
	api.GET("/group/:id/members", groups.Members)
	api.POST("/group/:id/invite", groups.Invite)
	api.POST("/group/:id/remove", groups.Remove)
	api.POST("/task/create", tasks.Create)
	api.GET("/task/group/:id", tasks.ListByGroup)
	api.GET("/task/group/:id/progress", tasks.Progress)
	api.PUT("/task/:id/status", tasks.UpdateStatus)
	api.POST("/file/upload", files.Upload)
	api.GET("/file/group/:id", files.ListByGroup)
	api.GET("/file/download/:id", files.Download)
	api.GET("/file/preview/:id", files.Preview)
	api.DELETE("/file/:id", files.Delete)

	return &testServer{router: r, db: db, fx: fx, cfg: cfg}
}

// do sends body as JSON. A string body is sent verbatim.
func (s *testServer) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) upload(fields map[string]string, fileName string, content []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if fileName != "" {
		fw, _ := mw.CreateFormFile("file", fileName)
		_, _ = fw.Write(content)
	}
	_ = mw.Close()

	req, _ := http.NewRequest(http.MethodPost, "/api/file/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid envelope %q: %v", w.Body.String(), err)
	}
	if env.Code != w.Code {
		t.Errorf("envelope code %d does not match status %d", env.Code, w.Code)
	}
	return env
}

func expect(t *testing.T, w *httptest.ResponseRecorder, status int) envelope {
	t.Helper()
	env := decode(t, w)
	if w.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, w.Code, env.Msg)
	}
	return env
}

func data(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("invalid data %s: %v", env.Data, err)
	}
}
