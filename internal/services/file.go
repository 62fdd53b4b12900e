package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/studygrouphub/backend/internal/config"
	"github.com/studygrouphub/backend/internal/models"
	"github.com/studygrouphub/backend/internal/storage"
	"github.com/studygrouphub/backend/internal/store"
	"github.com/studygrouphub/backend/pkg/logger"
	"github.com/studygrouphub/backend/pkg/response"
)

const CapFileDelete = "file_delete"

type FileService struct {
	store  *store.Store
	queue  StatsQueue
	upload config.UploadConfig
	perms  config.PermissionConfig
	now    func() time.Time
}

func NewFileService(st *store.Store, queue StatsQueue, upload config.UploadConfig, perms config.PermissionConfig) *FileService {
	return &FileService{store: st, queue: queue, upload: upload, perms: perms, now: time.Now}
}

// UploadRequest carries an already opened upload. Content must be seekable so
// its size can be measured before anything is written.
type UploadRequest struct {
	GroupID    int64
	UploaderID int64
	FileName   string
	Content    io.ReadSeeker
}

type UploadResult struct {
	FileID       int64  `json:"file_id"`
	OriginalName string `json:"original_name"`
}

type FileItem struct {
	FileID       int64           `json:"file_id" gorm:"column:file_id"`
	OriginalName string          `json:"original_name" gorm:"column:original_name"`
	StoreName    string          `json:"store_name" gorm:"column:store_name"`
	FileSize     int64           `json:"file_size" gorm:"column:file_size"`
	UploadTime   models.DateTime `json:"upload_time" gorm:"column:upload_time"`
	GroupID      int64           `json:"group_id" gorm:"column:group_id"`
	UploaderID   int64           `json:"uploader_id" gorm:"column:uploader_id"`
	UploaderName string          `json:"uploader_name" gorm:"column:uploader_name"`
}

// FileAccess describes a stored file a member may read.
type FileAccess struct {
	Path         string
	OriginalName string
	ContentType  string
	Inline       bool
}

// Upload stores the bytes and records the row. Membership is checked before
// the file itself; a failed row insert removes the stored bytes again.
func (s *FileService) Upload(ctx context.Context, req *UploadRequest) (*UploadResult, error) {
	member, err := isMember(ctx, s.store, req.UploaderID, req.GroupID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, response.NewForbidden("仅小组成员可上传文件")
	}
	if err := requireGroup(ctx, s.store, req.GroupID); err != nil {
		return nil, err
	}
	if err := requireUser(ctx, s.store, req.UploaderID, "上传人"); err != nil {
		return nil, err
	}

	if !s.upload.AllowsExtension(storage.Suffix(req.FileName)) {
		return nil, response.NewBadRequest("支持文件类型：" + strings.Join(s.upload.AllowedTypes, ", "))
	}
	sizeKB, err := storage.SizeKB(req.Content)
	if err != nil {
		return nil, response.NewBadRequest("请选择有效文件")
	}
	if sizeKB > s.upload.MaxSizeKB {
		return nil, response.NewBadRequest(fmt.Sprintf("文件最大%dKB", s.upload.MaxSizeKB))
	}

	now := s.now()
	storeName := storage.GenerateStoreName(req.GroupID, req.FileName, s.upload.StoreNameRule, now)
	path, err := storage.Save(req.Content, s.upload.BasePath, req.GroupID, storeName)
	if err != nil {
		return nil, response.NewStorageFailure("上传失败：文件保存失败")
	}

	file := models.File{
		OriginalName: req.FileName,
		StoreName:    storeName,
		FileSize:     sizeKB,
		UploadTime:   now,
		GroupID:      req.GroupID,
		UploaderID:   req.UploaderID,
	}
	if err := s.store.Insert(ctx, &file); err != nil || file.FileID == 0 {
		storage.Delete(path)
		return nil, response.NewStorageFailure("上传失败：文件信息写入失败")
	}

	logger.Info().Int64("file_id", file.FileID).Int64("group_id", req.GroupID).Int64("size_kb", sizeKB).Msg("File uploaded")
	refreshStats(ctx, s.queue, req.GroupID, req.UploaderID)
	return &UploadResult{FileID: file.FileID, OriginalName: file.OriginalName}, nil
}

func (s *FileService) ListByGroup(ctx context.Context, groupID int64) ([]FileItem, error) {
	if err := requireGroup(ctx, s.store, groupID); err != nil {
		return nil, err
	}

	var files []FileItem
	err := s.store.QueryAll(ctx, &files, `
		SELECT f.file_id, f.original_name, f.store_name, f.file_size, f.upload_time, f.group_id, f.uploader_id,
		       COALESCE(u.user_name, '') AS uploader_name
		FROM sg_file f
		LEFT JOIN sg_user u ON f.uploader_id = u.user_id
		WHERE f.group_id = ?
		ORDER BY f.upload_time DESC, f.file_id DESC`, groupID)
	if err != nil {
		return nil, response.NewStorageFailure("文件查询失败")
	}
	return files, nil
}

// Download resolves a file for a member as an octet-stream attachment.
func (s *FileService) Download(ctx context.Context, fileID, userID int64) (*FileAccess, error) {
	file, path, err := s.memberFile(ctx, fileID, userID, "无权限下载，仅小组成员可下载文件")
	if err != nil {
		return nil, err
	}
	return &FileAccess{
		Path:         path,
		OriginalName: file.OriginalName,
		ContentType:  "application/octet-stream",
	}, nil
}

// Preview resolves a file for a member with its real content type; PDFs and
// images are shown inline.
func (s *FileService) Preview(ctx context.Context, fileID, userID int64) (*FileAccess, error) {
	file, path, err := s.memberFile(ctx, fileID, userID, "无权限预览")
	if err != nil {
		return nil, err
	}
	return &FileAccess{
		Path:         path,
		OriginalName: file.OriginalName,
		ContentType:  storage.ContentType(file.OriginalName, path),
		Inline:       storage.Inline(file.OriginalName),
	}, nil
}

// Delete removes the row, then the bytes. Missing bytes are not an error and
// the row stays deleted if removing the bytes fails.
func (s *FileService) Delete(ctx context.Context, fileID, userID int64) error {
	file, err := s.find(ctx, fileID)
	if err != nil {
		return err
	}

	member, err := isMember(ctx, s.store, userID, file.GroupID)
	if err != nil {
		return err
	}
	if !member && s.perms.RequiresMember(CapFileDelete) {
		return response.NewForbidden("无权限删除")
	}

	if _, err := s.store.Execute(ctx, "DELETE FROM sg_file WHERE file_id = ?", fileID); err != nil {
		return response.NewStorageFailure("文件删除失败")
	}

	path := storage.Path(s.upload.BasePath, file.GroupID, file.StoreName)
	if storage.Exists(path) && !storage.Delete(path) {
		logger.Warn().Int64("file_id", fileID).Str("path", path).Msg("File row deleted but bytes remain")
	}
	return nil
}

func (s *FileService) find(ctx context.Context, fileID int64) (*models.File, error) {
	var file models.File
	found, err := s.store.QueryOne(ctx, &file,
		"SELECT file_id, original_name, store_name, file_size, upload_time, group_id, uploader_id FROM sg_file WHERE file_id = ?", fileID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, response.NewNotFound("文件不存在")
	}
	return &file, nil
}

func (s *FileService) memberFile(ctx context.Context, fileID, userID int64, forbiddenMsg string) (*models.File, string, error) {
	file, err := s.find(ctx, fileID)
	if err != nil {
		return nil, "", err
	}
	member, err := isMember(ctx, s.store, userID, file.GroupID)
	if err != nil {
		return nil, "", err
	}
	if !member {
		return nil, "", response.NewForbidden(forbiddenMsg)
	}

	path := storage.Path(s.upload.BasePath, file.GroupID, file.StoreName)
	if !storage.Exists(path) {
		return nil, "", response.NewNotFound("文件不存在或已被删除")
	}
	return file, path, nil
}
