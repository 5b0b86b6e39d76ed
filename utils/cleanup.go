package utils

import (
	"os"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sanjana123-dot/hometownhub/models"
)

// StartUploadCleaner periodically removes uploaded files that were never
// attached to a post or message before their claim window expired. Uploads are
// recorded at write time and marked claimed when the owning resource is
// created.
func StartUploadCleaner(db *gorm.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			cleanExpiredUploads(db)
		}
	}()
}

func cleanExpiredUploads(db *gorm.DB) {
	var stale []models.UploadedFile
	err := db.Where("claimed = ? AND expire_at < ?", false, time.Now()).
		Limit(200).
		Find(&stale).Error
	if err != nil {
		Logger.Warn("upload cleanup query failed", zap.Error(err))
		return
	}

	for _, f := range stale {
		if err := os.Remove(f.FilePath); err != nil && !os.IsNotExist(err) {
			Logger.Warn("upload cleanup remove failed", zap.String("path", f.FilePath), zap.Error(err))
			continue
		}
		if err := db.Delete(&models.UploadedFile{}, f.ID).Error; err != nil {
			Logger.Warn("upload cleanup delete failed", zap.Uint("id", f.ID), zap.Error(err))
		}
	}
	if len(stale) > 0 {
		Logger.Info("upload cleanup pass", zap.Int("removed", len(stale)))
	}
}
