package controllers

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sanjana123-dot/hometownhub/config"
	"github.com/sanjana123-dot/hometownhub/models"
	"github.com/sanjana123-dot/hometownhub/utils"
)

// Allowed upload extensions mapped to a coarse file type.
var allowedExtensions = map[string]string{
	".jpg": "image", ".jpeg": "image", ".png": "image", ".gif": "image", ".webp": "image",
	".mp4": "video", ".mov": "video", ".avi": "video", ".webm": "video",
	".pdf": "document", ".doc": "document", ".docx": "document", ".txt": "document",
	".zip": "archive", ".rar": "archive",
}

var allowedMIMEPrefixes = []string{
	"image/", "video/", "application/pdf", "application/msword",
	"application/vnd.openxmlformats-officedocument", "text/plain",
	"application/zip", "application/x-rar", "application/octet-stream",
}

type storedUpload struct {
	Field        string `json:"field"`
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	FileType     string `json:"file_type"`
	URL          string `json:"url"`
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.GetHeader("Content-Type"), "multipart/form-data")
}

func uploadAllowed(header *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	fileType, ok := allowedExtensions[ext]
	if !ok {
		return "", fmt.Errorf("file type %s is not allowed", ext)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType != "" {
		ok = false
		for _, prefix := range allowedMIMEPrefixes {
			if strings.HasPrefix(contentType, prefix) {
				ok = true
				break
			}
		}
		if !ok {
			return "", fmt.Errorf("content type %s is not allowed", contentType)
		}
	}
	return fileType, nil
}

// storeUploads saves all files posted under field, enforcing the size cap and
// allow-list, and records each one for timed cleanup until it is claimed.
func storeUploads(c *gin.Context, field string) ([]storedUpload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("invalid multipart form")
	}
	headers := form.File[field]
	if len(headers) == 0 {
		return nil, nil
	}

	cfg := config.Get()
	maxBytes := int64(cfg.UploadMaxSizeMB) << 20
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("upload directory unavailable")
	}

	var stored []storedUpload
	for i, header := range headers {
		if header.Size > maxBytes {
			return nil, fmt.Errorf("file %s exceeds the %dMB limit", header.Filename, cfg.UploadMaxSizeMB)
		}
		fileType, err := uploadAllowed(header)
		if err != nil {
			return nil, err
		}

		ext := strings.ToLower(filepath.Ext(header.Filename))
		name := uuid.NewString() + ext
		dst := filepath.Join(cfg.UploadDir, name)
		if err := c.SaveUploadedFile(header, dst); err != nil {
			utils.Logger.Error("upload save failed", zap.String("file", header.Filename), zap.Error(err))
			return nil, fmt.Errorf("failed to store %s", header.Filename)
		}

		url := "/uploads/" + name
		record := models.UploadedFile{
			FilePath: dst,
			URL:      url,
			ExpireAt: time.Now().Add(time.Duration(cfg.UploadTTLMinutes) * time.Minute),
		}
		if err := db().Create(&record).Error; err != nil {
			utils.Logger.Warn("upload record failed", zap.String("url", url), zap.Error(err))
		}

		stored = append(stored, storedUpload{
			Field:        strconv.Itoa(i),
			Filename:     name,
			OriginalName: header.Filename,
			FileType:     fileType,
			URL:          url,
		})
	}
	return stored, nil
}

// claimUploads marks stored files as attached so the cleaner leaves them
// alone.
func claimUploads(tx *gorm.DB, urls []string) {
	if len(urls) == 0 {
		return
	}
	if err := tx.Model(&models.UploadedFile{}).
		Where("url IN ?", urls).
		Update("claimed", true).Error; err != nil {
		utils.Logger.Warn("upload claim failed", zap.Error(err))
	}
}

// UploadFiles is the standalone upload endpoint: files come back as URLs the
// client attaches to a post or message later.
func UploadFiles(c *gin.Context) {
	if !isMultipart(c) {
		utils.Error(c, 400, 40030, "multipart form expected")
		return
	}
	stored, err := storeUploads(c, "files")
	if err != nil {
		utils.Error(c, 400, 40030, err.Error())
		return
	}
	if len(stored) == 0 {
		utils.Error(c, 400, 40030, "no files provided")
		return
	}
	utils.Created(c, stored)
}
