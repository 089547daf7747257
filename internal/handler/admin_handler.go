package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/phygital/internal/service"
)

// 会话中记录当前已认证 slug 的键名
const sessionKeyAdminSlug = "admin_slug"

// SlugAuthRequired 校验会话是否已对当前 slug 认证。
// 认证状态一次只对一个 slug 生效，访问其他页面的后台需要重新登录。
func SlugAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := service.NormalizeSlug(c.Param("slug"))
		session := sessions.Default(c)
		if session.Get(sessionKeyAdminSlug) != slug {
			c.Redirect(http.StatusFound, fmt.Sprintf("/%s/login", slug))
			c.Abort()
			return
		}
		c.Next()
	}
}

// ShowLogin 渲染登录页面，已登录时直接跳转到编辑页。
func (a *API) ShowLogin(c *gin.Context) {
	slug := service.NormalizeSlug(c.Param("slug"))

	session := sessions.Default(c)
	if session.Get(sessionKeyAdminSlug) == slug {
		c.Redirect(http.StatusFound, fmt.Sprintf("/%s/dashboard", slug))
		return
	}

	c.HTML(http.StatusOK, "login.html", gin.H{
		"slug":  slug,
		"title": a.pageTitle(slug),
	})
}

// Login 处理登录请求。无论 slug 是否存在都返回同一错误信息，
// 避免通过登录接口探测页面是否存在。
func (a *API) Login(c *gin.Context) {
	slug := service.NormalizeSlug(c.Param("slug"))
	credential := c.PostForm("password")

	page, err := a.pages.GetBySlug(slug)
	if err != nil || !service.VerifyCredential(page, credential) {
		c.HTML(http.StatusUnauthorized, "login.html", gin.H{
			"slug":  slug,
			"title": a.pageTitle(slug),
			"error": "密码错误，请重试",
		})
		return
	}

	session := sessions.Default(c)
	session.Set(sessionKeyAdminSlug, slug)
	if err := session.Save(); err != nil {
		c.HTML(http.StatusInternalServerError, "login.html", gin.H{
			"slug":  slug,
			"error": "会话保存失败",
		})
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("/%s/dashboard", slug))
}

// Logout 清除会话并回到公开页。
func (a *API) Logout(c *gin.Context) {
	slug := service.NormalizeSlug(c.Param("slug"))
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.Redirect(http.StatusFound, "/"+slug)
}

// ShowDashboard 渲染页面编辑表单。
func (a *API) ShowDashboard(c *gin.Context) {
	slug := service.NormalizeSlug(c.Param("slug"))

	page, err := a.pages.GetBySlug(slug)
	if err != nil {
		c.HTML(http.StatusNotFound, "404.html", gin.H{"slug": slug})
		return
	}

	view, err := a.buildPageView(page)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "404.html", gin.H{"slug": slug})
		return
	}

	a.renderDashboard(c, http.StatusOK, view, gin.H{})
}

// SubmitDashboard 把提交的编辑表单交给 reconciler 合并并持久化。
// 带删除标记的提交只执行对应删除，忽略同一表单里的其他修改。
func (a *API) SubmitDashboard(c *gin.Context) {
	slug := service.NormalizeSlug(c.Param("slug"))

	req, closeFiles, err := buildEditRequest(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "表单格式不正确")
		return
	}
	defer closeFiles()

	_, err = a.reconciler.Apply(c.Request.Context(), slug, req)
	if err != nil {
		a.renderDashboardError(c, slug, err)
		return
	}

	page, err := a.pages.GetBySlug(slug)
	if err != nil {
		c.HTML(http.StatusNotFound, "404.html", gin.H{"slug": slug})
		return
	}
	view, err := a.buildPageView(page)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "404.html", gin.H{"slug": slug})
		return
	}

	message := "页面已更新"
	if req.DeleteOnly() {
		message = "已删除"
	}
	a.renderDashboard(c, http.StatusOK, view, gin.H{"success": message})
}

func (a *API) renderDashboard(c *gin.Context, status int, view pageViewModel, extra gin.H) {
	data := gin.H{
		"page":        view,
		"slug":        view.Slug,
		"currentYear": time.Now().Year(),
		"sections":    service.LayoutSections,
	}
	for key, value := range extra {
		data[key] = value
	}
	c.HTML(status, "dashboard.html", data)
}

func (a *API) renderDashboardError(c *gin.Context, slug string, err error) {
	page, pageErr := a.pages.GetBySlug(slug)
	if pageErr != nil {
		c.HTML(http.StatusNotFound, "404.html", gin.H{"slug": slug})
		return
	}
	view, viewErr := a.buildPageView(page)
	if viewErr != nil {
		c.HTML(http.StatusInternalServerError, "404.html", gin.H{"slug": slug})
		return
	}

	switch {
	case errors.Is(err, service.ErrEventNotFound):
		a.renderDashboard(c, http.StatusBadRequest, view, gin.H{"error": "时间轴条目不存在，可能已被删除"})
	case errors.Is(err, service.ErrFieldInvalid):
		a.renderDashboard(c, http.StatusBadRequest, view, gin.H{"error": "字段取值无效，请检查后重试"})
	case errors.Is(err, service.ErrPageNotFound):
		c.HTML(http.StatusNotFound, "404.html", gin.H{"slug": slug})
	default:
		a.renderDashboard(c, http.StatusInternalServerError, view, gin.H{"error": "保存失败，请稍后重试"})
	}
}

// buildEditRequest 把 multipart 表单转换为编辑请求。
// music_url 字段区分"未提交"和"提交了空值"：后者代表显式清除。
func buildEditRequest(c *gin.Context) (service.EditRequest, func(), error) {
	noop := func() {}

	req := service.EditRequest{
		Title:           c.PostForm("title"),
		Message:         c.PostForm("message"),
		BackgroundColor: c.PostForm("background_color"),
		Theme:           c.PostForm("theme"),
		FontStyle:       c.PostForm("font_style"),
		FontColor:       c.PostForm("font_color"),
		TitleColor:      c.PostForm("title_color"),
		FontSize:        c.PostForm("font_size"),
		AspectRatio:     c.PostForm("aspect_ratio"),
		GalleryTitle:    c.PostForm("gallery_title"),
		LayoutOrder:     c.PostForm("layout_order"),
		NewCredential:   c.PostForm("new_password"),
		NewEventDate:    c.PostForm("event_date"),
		NewEventTitle:   c.PostForm("event_title"),
		DeleteEventAt:   parseOptionalInt(c.PostForm("delete_event")),
		DeletePhotoID:   parseOptionalUint(c.PostForm("delete_photo")),
		PhotoOrders:     parsePhotoOrderMap(c.PostFormMap("photo_order")),
	}

	if musicURL, ok := c.GetPostForm("music_url"); ok {
		req.MusicURL = &musicURL
	}

	form, err := c.MultipartForm()
	if err != nil {
		// 非 multipart 的提交没有文件，按普通表单处理
		return req, noop, nil
	}

	var closers []func()
	for _, fileHeader := range form.File["photos"] {
		if fileHeader == nil || fileHeader.Filename == "" {
			continue
		}
		opened, err := fileHeader.Open()
		if err != nil {
			continue
		}
		closers = append(closers, func() { opened.Close() })
		req.Uploads = append(req.Uploads, service.Upload{
			Filename:    fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Data:        opened,
		})
	}

	closeFiles := func() {
		for _, close := range closers {
			close()
		}
	}
	return req, closeFiles, nil
}

func (a *API) pageTitle(slug string) string {
	page, err := a.pages.GetBySlug(slug)
	if err != nil || page.Title == "" {
		return slug
	}
	return page.Title
}
