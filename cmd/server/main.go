package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/phygital/internal/assets"
	"github.com/phygital/internal/config"
	"github.com/phygital/internal/db"
	"github.com/phygital/internal/handler"
	"github.com/phygital/internal/music"
	"github.com/phygital/internal/router"
)

func main() {
	cfg := config.Load()
	for _, warning := range cfg.Warnings() {
		log.Printf("config: %s", warning)
	}

	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	assetClient := assets.NewClient(cfg.AssetStoreURL, cfg.AssetStoreToken)
	musicClient := music.NewClient(cfg.SpotifyClientID, cfg.SpotifyClientSecret)

	api := handler.NewAPI(db.DB, assetClient, musicClient, cfg.OverrideSecret)

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(api, cfg.SessionSecret, "web/template/*.html")
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
