package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studygrouphub/backend/internal/validate"
	"github.com/studygrouphub/backend/pkg/response"
)

// bindPayload decodes a JSON body into a loose payload. An empty body yields
// an empty payload so the required-field check reports what is missing.
func bindPayload(c *gin.Context) (validate.Payload, bool) {
	p := validate.Payload{}
	if err := c.ShouldBindJSON(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return validate.Payload{}, true
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.BadRequest(c, "请求体过大")
			return nil, false
		}
		response.BadRequest(c, "请求体必须为JSON格式")
		return nil, false
	}
	return p, true
}

// queryUserID reads the acting user from ?user_id=.
func queryUserID(c *gin.Context) (int64, bool) {
	raw := c.Query("user_id")
	if raw == "" {
		response.Unauthorized(c, "请传入user_id")
		return 0, false
	}
	id, err := validate.ParseInt(raw)
	if err != nil {
		response.BadRequest(c, "user_id必须为整数")
		return 0, false
	}
	return id, true
}

func pathID(c *gin.Context, label string) (int64, bool) {
	id, err := validate.ParseInt(c.Param("id"))
	if err != nil {
		response.BadRequest(c, label+"必须为整数")
		return 0, false
	}
	return id, true
}

// check writes err and reports false when it is non-nil.
func check(c *gin.Context, err error) bool {
	if err != nil {
		response.Error(c, err)
		return false
	}
	return true
}
