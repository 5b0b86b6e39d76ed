package main

import (
	"time"

	"go.uber.org/zap"

	"github.com/sanjana123-dot/hometownhub/config"
	"github.com/sanjana123-dot/hometownhub/models"
	"github.com/sanjana123-dot/hometownhub/routes"
	"github.com/sanjana123-dot/hometownhub/utils"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer utils.Logger.Sync()

	config.InitDatabase(
		&models.User{},
		&models.Community{},
		&models.Membership{},
		&models.Post{},
		&models.PostFile{},
		&models.PostLike{},
		&models.Comment{},
		&models.Event{},
		&models.EventAttendee{},
		&models.Announcement{},
		&models.Message{},
		&models.MessageFile{},
		&models.Notification{},
		&models.UploadedFile{},
	)

	utils.InitRedis(cfg)
	utils.StartBlacklistJanitor(10 * time.Minute)
	if cfg.UploadCleanupEnabled {
		utils.StartUploadCleaner(config.DB(), 15*time.Minute)
	}

	router := routes.SetupRouter()

	// Try the configured port first, then fall back when it is taken.
	ports := append([]string{cfg.AppPort}, cfg.FallbackPorts...)
	for i, port := range ports {
		addr := ":" + port
		utils.Logger.Info("starting HTTP server", zap.String("addr", addr))
		err := utils.NewGraceServer(addr, router).ListenAndServe()
		if err == nil {
			return
		}
		if utils.IsAddrInUse(err) && i < len(ports)-1 {
			utils.Logger.Warn("port in use, trying fallback", zap.String("port", port), zap.Error(err))
			continue
		}
		utils.Logger.Fatal("HTTP server failed", zap.Error(err))
	}
}
