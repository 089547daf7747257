package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig 汇总运行服务所需的基础配置。
// 所有字段在启动时一次性读取，以显式引用传递给各组件，不依赖全局状态。
type AppConfig struct {
	ListenAddr          string
	Port                string
	DatabasePath        string
	SessionSecret       string
	GinMode             string
	AssetStoreURL       string
	AssetStoreToken     string
	SpotifyClientID     string
	SpotifyClientSecret string
	OverrideSecret      string
}

// Load 先尝试加载 .env 文件，再从环境变量读取应用配置，
// 并为缺失项提供安全的默认值。
func Load() AppConfig {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	databasePath := strings.TrimSpace(os.Getenv("DATABASE_PATH"))
	if databasePath == "" {
		databasePath = "phygital.db"
	}

	sessionSecret := strings.TrimSpace(os.Getenv("SESSION_SECRET"))
	if sessionSecret == "" {
		sessionSecret = "phygital-dev-secret"
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))
	if ginMode == "" {
		ginMode = "release"
	}

	return AppConfig{
		ListenAddr:          listenAddr,
		Port:                port,
		DatabasePath:        databasePath,
		SessionSecret:       sessionSecret,
		GinMode:             ginMode,
		AssetStoreURL:       strings.TrimRight(strings.TrimSpace(os.Getenv("DIRECTUS_URL")), "/"),
		AssetStoreToken:     strings.TrimSpace(os.Getenv("DIRECTUS_TOKEN")),
		SpotifyClientID:     strings.TrimSpace(os.Getenv("SPOTIFY_CLIENT_ID")),
		SpotifyClientSecret: strings.TrimSpace(os.Getenv("SPOTIFY_CLIENT_SECRET")),
		OverrideSecret:      strings.TrimSpace(os.Getenv("OVERRIDE_SECRET")),
	}
}

// Warnings 返回缺失的协作方配置说明，供启动时统一打日志，
// 避免运行到一半才发现配置不全。
func (c AppConfig) Warnings() []string {
	var warnings []string
	if c.AssetStoreURL == "" || c.AssetStoreToken == "" {
		warnings = append(warnings, "asset store not configured (DIRECTUS_URL / DIRECTUS_TOKEN), photo uploads will fail")
	}
	if c.SpotifyClientID == "" || c.SpotifyClientSecret == "" {
		warnings = append(warnings, "music lookup not configured (SPOTIFY_CLIENT_ID / SPOTIFY_CLIENT_SECRET), search will return empty results")
	}
	if c.OverrideSecret == "" {
		warnings = append(warnings, "OVERRIDE_SECRET not set, credential override and page provisioning endpoints are disabled")
	}
	return warnings
}
