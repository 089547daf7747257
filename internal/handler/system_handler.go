package handler

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phygital/internal/service"
)

// HealthCheck 报告存储后端与两个协作方的可达性。
// 协作方探测失败不影响整体 200，只有数据库不可用才算不健康。
func (a *API) HealthCheck(c *gin.Context) {
	ctx := c.Request.Context()

	status := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	}
	code := http.StatusOK

	if err := a.pingDatabase(); err != nil {
		status["status"] = "unhealthy"
		status["database"] = "disconnected"
		code = http.StatusServiceUnavailable
	} else {
		status["database"] = "connected"
	}

	if err := a.assets.Ping(ctx); err != nil {
		status["assets"] = "disconnected"
	} else {
		status["assets"] = "connected"
	}

	if err := a.music.Ping(ctx); err != nil {
		status["music"] = "disconnected"
	} else {
		status["music"] = "connected"
	}

	c.JSON(code, status)
}

// pingDatabase 通过注入的连接探测存储后端，与其他 handler 路径一致，
// 不依赖全局实例。
func (a *API) pingDatabase() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// OverrideSecretRequired 校验请求头中携带的运维密钥。
// 摘要后做常数时间比较，密钥未配置时相关端点整体关闭。
func (a *API) OverrideSecretRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := strings.TrimSpace(a.overrideSecret)
		if secret == "" {
			respondError(c, http.StatusForbidden, "运维端点未启用")
			c.Abort()
			return
		}

		submitted := strings.TrimSpace(c.GetHeader("X-Override-Secret"))
		want := sha256.Sum256([]byte(secret))
		got := sha256.Sum256([]byte(submitted))
		if subtle.ConstantTimeCompare(want[:], got[:]) != 1 {
			respondError(c, http.StatusForbidden, "密钥不正确")
			c.Abort()
			return
		}
		c.Next()
	}
}

type createPagePayload struct {
	Slug            string `json:"slug"`
	Title           string `json:"title"`
	Message         string `json:"message"`
	BackgroundColor string `json:"background_color"`
	Password        string `json:"password"`
}

// CreatePage 供带外开通流程调用，创建一个新页面。
func (a *API) CreatePage(c *gin.Context) {
	var payload createPagePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, "请求参数不合法")
		return
	}

	page, err := a.pages.Create(payload.Slug, service.PageInput{
		Title:           payload.Title,
		Message:         payload.Message,
		BackgroundColor: payload.BackgroundColor,
		Credential:      payload.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSlugInvalid):
			respondError(c, http.StatusBadRequest, "slug 只能包含小写字母、数字和连字符")
		case errors.Is(err, service.ErrDuplicateSlug):
			respondError(c, http.StatusConflict, "该 slug 已被占用")
		default:
			respondError(c, http.StatusInternalServerError, "创建页面失败")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "页面已创建", "slug": page.Slug})
}

type resetCredentialPayload struct {
	Password string `json:"password"`
}

// ResetCredential 是应急的管理员改密操作，由运维密钥保护，
// 不经过登录会话，始终写入新的加盐哈希。
func (a *API) ResetCredential(c *gin.Context) {
	slug := service.NormalizeSlug(c.Param("slug"))

	var payload resetCredentialPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, "请求参数不合法")
		return
	}
	if strings.TrimSpace(payload.Password) == "" {
		respondError(c, http.StatusBadRequest, "新密码不能为空")
		return
	}

	page, err := a.pages.GetBySlug(slug)
	if err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			respondError(c, http.StatusNotFound, "页面不存在")
			return
		}
		respondError(c, http.StatusInternalServerError, "查询页面失败")
		return
	}

	hash, err := service.HashCredential(strings.TrimSpace(payload.Password))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "重置密码失败")
		return
	}
	page.CredentialHash = hash

	if err := a.pages.Save(page); err != nil {
		respondError(c, http.StatusInternalServerError, "重置密码失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "密码已重置"})
}
