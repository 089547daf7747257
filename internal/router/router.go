package router

import (
	"html/template"
	"path/filepath"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/phygital/internal/handler"
)

// SetupRouter 配置 Gin 引擎和路由。
// templateGlob 为空或没有匹配文件时跳过模板加载，方便纯 JSON 场景的测试。
func SetupRouter(api *handler.API, sessionSecret, templateGlob string) *gin.Engine {
	r := gin.Default()

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	r.Use(sessions.Sessions("phygital_session", store))

	// 加载模板并添加自定义函数
	r.SetFuncMap(template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"eq": func(a, b interface{}) bool {
			return a == b
		},
	})
	if glob := strings.TrimSpace(templateGlob); glob != "" {
		if matches, err := filepath.Glob(glob); err == nil && len(matches) > 0 {
			r.LoadHTMLGlob(glob)
		}
	}

	// 运维与监控端点
	r.GET("/health", api.HealthCheck)

	// 只读 API
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/music-search", api.SearchMusic)

		// 带外开通流程，运维密钥保护
		ops := apiGroup.Group("")
		ops.Use(api.OverrideSecretRequired())
		{
			ops.POST("/pages", api.CreatePage)
		}
	}

	// 租户页面路由，公开页与后台共用 slug 前缀
	page := r.Group("/:slug")
	{
		page.GET("", api.ShowPage)
		page.GET("/login", api.ShowLogin)
		page.POST("/login", api.Login)
		page.GET("/logout", api.Logout)

		// 应急改密，运维密钥保护，不经过登录会话
		page.POST("/reset-credential", api.OverrideSecretRequired(), api.ResetCredential)

		// 需要认证的编辑路由
		auth := page.Group("")
		auth.Use(handler.SlugAuthRequired())
		{
			auth.GET("/dashboard", api.ShowDashboard)
			auth.POST("/dashboard", api.SubmitDashboard)
		}
	}

	return r
}
