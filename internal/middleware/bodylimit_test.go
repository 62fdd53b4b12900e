package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestBodyLimit(t *testing.T) {
	var readErr error
	router := gin.New()
	router.Use(BodyLimit(8))
	router.POST("/test", func(c *gin.Context) {
		_, readErr = io.ReadAll(c.Request.Body)
		c.Status(http.StatusOK)
	})

	tests := []struct {
		body    string
		tooBig  bool
	}{
		{"small", false},
		{"definitely more than eight bytes", true},
	}

	for _, tt := range tests {
		readErr = nil
		req, _ := http.NewRequest("POST", "/test", strings.NewReader(tt.body))
		router.ServeHTTP(httptest.NewRecorder(), req)

		var maxErr *http.MaxBytesError
		if got := errors.As(readErr, &maxErr); got != tt.tooBig {
			t.Errorf("body %q: MaxBytesError = %v, expected %v (err %v)", tt.body, got, tt.tooBig, readErr)
		}
	}
}
