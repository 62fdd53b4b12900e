// Package storage keeps uploaded bytes on the local filesystem under
// <base>/<group_id>/<store_name>.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/studygrouphub/backend/pkg/logger"
)

const timestampLayout = "20060102150405"

var contentTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".txt":  "text/plain",
}

var inlineTypes = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// Suffix is the lower-cased extension of name including the dot.
func Suffix(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// GenerateStoreName expands rule with {group_id}, {timestamp} and {suffix}.
// Two uploads to one group within the same second get the same name.
func GenerateStoreName(groupID int64, originalName, rule string, now time.Time) string {
	r := strings.NewReplacer(
		"{group_id}", strconv.FormatInt(groupID, 10),
		"{timestamp}", now.Format(timestampLayout),
		"{suffix}", Suffix(originalName),
	)
	return r.Replace(rule)
}

func Dir(basePath string, groupID int64) string {
	return filepath.Join(basePath, strconv.FormatInt(groupID, 10))
}

func Path(basePath string, groupID int64, storeName string) string {
	return filepath.Join(Dir(basePath, groupID), storeName)
}

// Save writes r to <base>/<group_id>/<store_name>, creating the group
// directory when needed, and returns the full path.
func Save(r io.Reader, basePath string, groupID int64, storeName string) (string, error) {
	dir := Dir(basePath, groupID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Error().Err(err).Str("dir", dir).Msg("Create upload directory failed")
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	path := filepath.Join(dir, storeName)
	f, err := os.Create(path)
	if err != nil {
		logger.Error().Err(err).Str("path", path).Msg("Create file failed")
		return "", fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		logger.Error().Err(err).Str("path", path).Msg("Write file failed")
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close file: %w", err)
	}
	return path, nil
}

// Delete removes path. It reports true only if a file existed and is gone.
func Delete(path string) bool {
	if !Exists(path) {
		return false
	}
	if err := os.Remove(path); err != nil {
		logger.Error().Err(err).Str("path", path).Msg("Delete file failed")
		return false
	}
	return true
}

func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// SizeKB measures a seekable stream and rewinds it. The result is floored.
func SizeKB(s io.Seeker) (int64, error) {
	end, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := s.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	return end / 1024, nil
}

func SizeKBOfPath(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size() / 1024, nil
}

// ContentType resolves the MIME type from the original extension, falling
// back to sniffing the stored bytes.
func ContentType(originalName, path string) string {
	if ct, ok := contentTypes[Suffix(originalName)]; ok {
		return ct
	}
	if mt, err := mimetype.DetectFile(path); err == nil {
		return mt.String()
	}
	return "application/octet-stream"
}

// Inline reports whether a preview should be shown in the browser rather
// than downloaded.
func Inline(originalName string) bool {
	return inlineTypes[Suffix(originalName)]
}
