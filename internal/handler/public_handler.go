package handler

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/phygital/internal/db"
	"github.com/phygital/internal/service"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

// pageViewModel 汇总公开页与编辑页共用的模板数据。
type pageViewModel struct {
	Slug            string
	Title           string
	MessageHTML     template.HTML
	MessageRaw      string
	BackgroundColor string
	Theme           string
	FontStyle       string
	FontColor       string
	TitleColor      string
	FontSize        string
	AspectRatio     string
	GalleryTitle    string
	MusicURL        string
	LayoutOrder     []string
	Timeline        []db.TimelineEvent
	Photos          []db.Photo
}

// ShowPage 渲染公开访问的定制页面。
func (a *API) ShowPage(c *gin.Context) {
	slug := c.Param("slug")

	page, err := a.pages.GetBySlug(slug)
	if err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			c.HTML(http.StatusNotFound, "404.html", gin.H{"slug": slug})
			return
		}
		c.HTML(http.StatusInternalServerError, "404.html", gin.H{"slug": slug})
		return
	}

	view, err := a.buildPageView(page)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "404.html", gin.H{"slug": slug})
		return
	}

	c.HTML(http.StatusOK, "page.html", gin.H{
		"page":        view,
		"currentYear": time.Now().Year(),
	})
}

func (a *API) buildPageView(page *db.Page) (pageViewModel, error) {
	photos, err := a.pages.SortedPhotos(page.ID)
	if err != nil {
		return pageViewModel{}, err
	}

	messageHTML, err := renderMessage(page.Message)
	if err != nil {
		return pageViewModel{}, err
	}

	return pageViewModel{
		Slug:            page.Slug,
		Title:           page.Title,
		MessageHTML:     messageHTML,
		MessageRaw:      page.Message,
		BackgroundColor: page.BackgroundColor,
		Theme:           page.Theme,
		FontStyle:       page.FontStyle,
		FontColor:       page.FontColor,
		TitleColor:      page.TitleColor,
		FontSize:        page.FontSize,
		AspectRatio:     page.AspectRatio,
		GalleryTitle:    page.GalleryTitle,
		MusicURL:        page.MusicURL,
		LayoutOrder:     layoutSections(page.LayoutOrder),
		Timeline:        page.Timeline,
		Photos:          photos,
	}, nil
}

// renderMessage 把页面留言按 Markdown 渲染并消毒。
func renderMessage(message string) (template.HTML, error) {
	if strings.TrimSpace(message) == "" {
		return "", nil
	}

	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(message), &buf); err != nil {
		return "", err
	}
	return template.HTML(sanitizer.SanitizeBytes(buf.Bytes())), nil
}

// layoutSections 解析存储的版块顺序，空值回退到默认顺序。
func layoutSections(stored string) []string {
	trimmed := strings.TrimSpace(stored)
	if trimmed == "" {
		return append([]string(nil), service.LayoutSections...)
	}

	var sections []string
	for _, part := range strings.Split(trimmed, ",") {
		if section := strings.TrimSpace(part); section != "" {
			sections = append(sections, section)
		}
	}
	if len(sections) == 0 {
		return append([]string(nil), service.LayoutSections...)
	}
	return sections
}
