package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/studygrouphub/backend/internal/services"
	"github.com/studygrouphub/backend/internal/validate"
	"github.com/studygrouphub/backend/pkg/logger"
	"github.com/studygrouphub/backend/pkg/response"
)

type FileHandler struct {
	fileService *services.FileService
}

func NewFileHandler(fileService *services.FileService) *FileHandler {
	return &FileHandler{fileService: fileService}
}

// Upload accepts a multipart form with file, group_id and uploader_id.
// POST /api/file/upload
func (h *FileHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		response.BadRequest(c, "上传内容超过请求大小限制")
		return
	}

	rawGroup, rawUploader := c.PostForm("group_id"), c.PostForm("uploader_id")
	if err != nil || rawGroup == "" || rawUploader == "" {
		response.Error(c, response.NewMissingField("文件、小组ID、上传人ID不能为空"))
		return
	}
	if header.Filename == "" {
		response.BadRequest(c, "请选择有效文件")
		return
	}
	groupID, gErr := validate.ParseInt(rawGroup)
	uploaderID, uErr := validate.ParseInt(rawUploader)
	if gErr != nil || uErr != nil {
		response.Error(c, response.NewInvalidType("小组ID、上传人ID必须为整数"))
		return
	}

	src, err := header.Open()
	if err != nil {
		logger.Error().Err(err).Str("file", header.Filename).Msg("Failed to open uploaded file")
		response.ServerError(c, "文件读取失败")
		return
	}
	defer src.Close()

	result, err := h.fileService.Upload(c.Request.Context(), &services.UploadRequest{
		GroupID:    groupID,
		UploaderID: uploaderID,
		FileName:   header.Filename,
		Content:    src,
	})
	if !check(c, err) {
		return
	}
	response.Success(c, "上传成功", result)
}

// GET /api/file/group/:id
func (h *FileHandler) ListByGroup(c *gin.Context) {
	groupID, ok := pathID(c, "小组ID")
	if !ok {
		return
	}
	files, err := h.fileService.ListByGroup(c.Request.Context(), groupID)
	if !check(c, err) {
		return
	}
	response.Success(c, "查询成功", files)
}

// GET /api/file/download/:id?user_id=
func (h *FileHandler) Download(c *gin.Context) {
	fileID, ok := pathID(c, "文件ID")
	if !ok {
		return
	}
	userID, ok := queryUserID(c)
	if !ok {
		return
	}
	access, err := h.fileService.Download(c.Request.Context(), fileID, userID)
	if !check(c, err) {
		return
	}
	c.Header("Content-Type", access.ContentType)
	c.FileAttachment(access.Path, access.OriginalName)
}

// Preview serves pdf and images inline; anything else is sent as an
// attachment with its resolved MIME type.
// GET /api/file/preview/:id?user_id=
func (h *FileHandler) Preview(c *gin.Context) {
	fileID, ok := pathID(c, "文件ID")
	if !ok {
		return
	}
	userID, ok := queryUserID(c)
	if !ok {
		return
	}
	access, err := h.fileService.Preview(c.Request.Context(), fileID, userID)
	if !check(c, err) {
		return
	}

	c.Header("Content-Type", access.ContentType)
	if !access.Inline {
		c.FileAttachment(access.Path, access.OriginalName)
		return
	}
	c.Header("Content-Disposition", "inline; filename*=UTF-8''"+url.PathEscape(access.OriginalName))
	c.File(access.Path)
}

// DELETE /api/file/:id?user_id=
func (h *FileHandler) Delete(c *gin.Context) {
	fileID, ok := pathID(c, "文件ID")
	if !ok {
		return
	}
	userID, ok := queryUserID(c)
	if !ok {
		return
	}
	if !check(c, h.fileService.Delete(c.Request.Context(), fileID, userID)) {
		return
	}
	response.OK(c, "文件删除成功")
}
